package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxLevel is the highest signal level identifier accepted from user input.
const MaxLevel = 64

// ValidateLevel checks a signal level identifier.
func ValidateLevel(level int) error {
	if level < 1 || level > MaxLevel {
		return New(ErrCodeInvalidInput, "level must be between 1 and %d, got %d", MaxLevel, level)
	}
	return nil
}

// ValidateWidth checks a container width in pixels.
// The width must be finite and large enough to hold at least one measure.
func ValidateWidth(width, minMeasureWidth float64) error {
	if math.IsNaN(width) || math.IsInf(width, 0) {
		return New(ErrCodeInvalidInput, "width must be a finite number")
	}
	if width <= 0 {
		return New(ErrCodeInvalidInput, "width must be positive, got %.1f", width)
	}
	if minMeasureWidth > 0 && width < minMeasureWidth {
		return New(ErrCodeInvalidInput, "width %.1f is narrower than one measure (%.1f)", width, minMeasureWidth)
	}
	return nil
}

// ValidatePath validates a file path passed to the loaders.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidatePathTemplate checks a signal path template. It must contain the
// {level} placeholder exactly once.
func ValidatePathTemplate(tmpl string) error {
	if err := ValidatePath(tmpl); err != nil {
		return err
	}
	if n := strings.Count(tmpl, "{level}"); n != 1 {
		return New(ErrCodeInvalidPath, "path template must contain {level} exactly once, found %d", n)
	}
	return nil
}
