package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Upload rejections. All of them are raised before the model is called.
var (
	ErrNoFile          = errors.New("no image file provided")
	ErrUnsupportedType = errors.New("only PNG and JPEG images are allowed")
	ErrFileTooLarge    = errors.New("image exceeds the size limit")
	ErrMalformedUpload = errors.New("malformed multipart upload")
)

// ErrInvalidAPIKey means the provider rejected or never received a credential.
var ErrInvalidAPIKey = errors.New("invalid API key")

// ParseError means the model reply was not JSON. Raw is kept for logging only.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse analysis response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError means the reply was JSON but not a valid analysis.
type SchemaError struct {
	Raw    string
	Fields []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("analysis response did not match the expected format: %s", strings.Join(e.Fields, "; "))
}

// UpstreamError wraps any other failure of the model call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("analysis request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
