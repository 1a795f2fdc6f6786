package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxFilenameLength bounds filenames accepted from callers.
const maxFilenameLength = 255

// ValidateFilename validates a source image filename for safety.
// It ensures the filename is a simple basename without path components,
// since the filename only carries the density suffix and extension.
//
// Validation rules:
//   - Filename cannot be empty
//   - Maximum length of 255 characters
//   - No null bytes or control characters
//   - No path separators
//   - Not "." or ".."
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}

	if len(name) > maxFilenameLength {
		return New(ErrCodeInvalidPath, "filename too long (max %d characters)", maxFilenameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "filename cannot be %q", name)
	}

	return nil
}

// emitNameRegex matches emission names: a content id, a ratio and an extension.
var emitNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateEmitName validates a variant emission name before it touches disk.
// Emission names are generated, so anything outside the generated alphabet
// indicates a misbehaving namer or a crafted request.
func ValidateEmitName(name string) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "emission name cannot contain path traversal sequences (..)")
	}

	if !emitNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPath, "invalid emission name: %q", name)
	}

	return nil
}

// attributeNameRegex matches HTML attribute names accepted for markup.
var attributeNameRegex = regexp.MustCompile(`^[A-Za-z_:][A-Za-z0-9_:.-]*$`)

// ValidateAttributeName validates an extra markup attribute name.
func ValidateAttributeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "attribute name cannot be empty")
	}
	if !attributeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid attribute name: %q", name)
	}
	return nil
}
