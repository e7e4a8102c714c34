package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

var textExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".toml": true,
	".md":   true,
	".log":  true,
	".ini":  true,
}

// DetectContentType picks a Content-Type from the file name alone
func DetectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if textExtensions[ext] {
		return "text/plain; charset=utf-8"
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
