package utils

import (
	"net/url"
	"strings"
)

// IsValidURL reports whether s is an absolute http(s) URL with a host
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// EnsureTrailingSlash returns s with exactly one trailing slash
func EnsureTrailingSlash(s string) string {
	return strings.TrimRight(s, "/") + "/"
}
