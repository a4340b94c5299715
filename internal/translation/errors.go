package translation

import (
	"fmt"
	"strings"
)

// ValidationError rejects a request before any parsing or provider call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ValidateUpload checks the uploaded file name and the requested target
// language.
func ValidateUpload(filename, targetLang string) error {
	if filename == "" {
		return validationErrorf("No file uploaded")
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".po") {
		return validationErrorf("Only .po files are supported")
	}
	if !IsSupported(targetLang) {
		return validationErrorf("Unsupported target language: %s", targetLang)
	}
	return nil
}
