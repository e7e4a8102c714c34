package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// staging files live next to the objects so the final rename stays on one filesystem
	stagingPrefix = ".dirsync-upload-"
	maxNameLength = 255
)

// ValidateName rejects names that are not a single, plain path element.
// Objects are flat: "a/b" is not normalized to "b", it is refused.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case len(name) > maxNameLength:
		return fmt.Errorf("%w: name too long", ErrInvalidName)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case filepath.VolumeName(name) != "":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case isStagingName(name):
		return fmt.Errorf("%w: %q uses a reserved prefix", ErrInvalidName, name)
	}
	return nil
}

func isStagingName(name string) bool {
	return strings.HasPrefix(name, stagingPrefix)
}
