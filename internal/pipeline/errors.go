package pipeline

import "fmt"

// Error codes for run-fatal pipeline failures.
const (
	ErrCodeExtraction       = "EXTRACTION_FAILED"
	ErrCodeFrameRead        = "FRAME_READ_FAILED"
	ErrCodeFrameWrite       = "FRAME_WRITE_FAILED"
	ErrCodeUpscale          = "UPSCALE_FAILED"
	ErrCodeUnsupportedCodec = "UNSUPPORTED_CODEC"
	ErrCodeEncoding         = "ENCODING_FAILED"
	ErrCodeModelLoad        = "MODEL_LOAD_FAILED"
	ErrCodeWorkspace        = "WORKSPACE_FAILED"
)

// Error represents a pipeline failure with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
