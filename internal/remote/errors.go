package remote

import (
	"errors"
	"fmt"
)

// Validation errors; these never reach the network.
var (
	ErrNoFile      = errors.New("no file selected")
	ErrNoSession   = errors.New("no file loaded")
	ErrNoSelection = errors.New("no sheet selected")
)

// TransportError wraps a failure to complete the exchange at all: dialing,
// reading, or decoding the response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a whole-request failure reported by the server with ok=false.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// genericMessages are shown when the server reports failure without a message
var genericMessages = map[string]string{
	OpUpload:  "upload failed",
	OpAnalyze: "analysis failed",
	OpConvert: "conversion failed",
}

func newAPIError(op string, status int, msg string) *APIError {
	if msg == "" {
		msg = genericMessages[op]
	}
	return &APIError{Op: op, Status: status, Message: msg}
}

// UserMessage turns any error from this package into the one-line text shown
// to the user.
func UserMessage(err error) string {
	var apiErr *APIError
	var tErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFile):
		return "Select a spreadsheet file to upload first."
	case errors.Is(err, ErrNoSession):
		return "Upload a file first."
	case errors.Is(err, ErrNoSelection):
		return "Select at least one sheet."
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &tErr):
		return fmt.Sprintf("%s request failed, check the server log.", tErr.Op)
	default:
		return err.Error()
	}
}
