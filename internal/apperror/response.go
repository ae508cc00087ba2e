package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// Response is the canonical error body. Every error path produces exactly
// this three field shape.
type Response struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Exceptions []string `json:"exceptions"`
}

// NewResponse builds a Response from a numeric status, a message and an
// ordered list of detail strings.
func NewResponse(status int, message string, details ...string) Response {
	exceptions := make([]string, len(details))
	copy(exceptions, details)
	return Response{
		Status:     StatusName(status),
		Message:    message,
		Exceptions: exceptions,
	}
}

// FromKind builds the Response for a taxonomy entry: the message is the
// symbolic name and the single detail is the entry's human text.
func FromKind(kind Kind) Response {
	return NewResponse(kind.Status(), string(kind), kind.Detail())
}

// StatusName renders an HTTP status code as its canonical upper snake case
// name, e.g. 400 becomes "BAD_REQUEST".
func StatusName(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return fmt.Sprintf("STATUS_%d", status)
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
