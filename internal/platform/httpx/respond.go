// Package httpx provides HTTP response utilities and the single translation
// point from errors to the canonical wire error body.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/appbox-io/appbox/internal/apperror"
)

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError sends the canonical error body.
func WriteError(w http.ResponseWriter, status int, message string, details ...string) {
	JSON(w, status, apperror.NewResponse(status, message, details...))
}

// DecodeError describes a request body that could not be parsed.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "malformed request body: " + e.Reason
}

// ParamError describes a parameter that failed type coercion.
type ParamError struct {
	Name string
	Type string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s should be of type %s", e.Name, e.Type)
}

// MissingParamError describes an absent required query parameter.
type MissingParamError struct {
	Name string
}

func (e *MissingParamError) Error() string {
	return e.Name + " parameter is missing"
}

// MissingPartError describes an absent required multipart part.
type MissingPartError struct {
	Part string
}

func (e *MissingPartError) Error() string {
	return e.Part + " part is missing"
}

// DecodeJSON decodes the request body into target, rejecting trailing
// garbage. Failures come back as *DecodeError so the interceptor can
// classify them as client input malformation.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		return &DecodeError{Reason: decodeReason(err)}
	}
	if dec.More() {
		return &DecodeError{Reason: "unexpected trailing data"}
	}
	return nil
}

func decodeReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s value for %s should be of type %s", typeErr.Value, typeErr.Field, typeErr.Type)
	}
	if errors.Is(err, io.EOF) {
		return "request body is empty"
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset)
	}
	return "request body is not valid JSON"
}
