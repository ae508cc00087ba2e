package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/appbox-io/appbox/internal/apperror"
)

// RespondError is the single translation point from errors to HTTP
// responses. Every failure surfacing from routing, validation,
// authentication or business logic ends up here; handlers never build
// error bodies themselves. The original error is logged with full detail
// server side; the client facing body carries no internals.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logError(logger, err)

	if appErr, ok := apperror.AsError(err); ok && appErr.Kind.Valid() {
		JSON(w, appErr.Status(), apperror.FromKind(appErr.Kind))
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, fieldErr.Error())
		}
		WriteError(w, http.StatusBadRequest, "validation failed", details...)
		return
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		WriteError(w, http.StatusBadRequest, "malformed request body", decodeErr.Reason)
		return
	}

	var paramErr *ParamError
	if errors.As(err, &paramErr) {
		WriteError(w, http.StatusBadRequest, "invalid request parameter", paramErr.Error())
		return
	}

	var missingParamErr *MissingParamError
	if errors.As(err, &missingParamErr) {
		WriteError(w, http.StatusBadRequest, "missing request parameter", missingParamErr.Error())
		return
	}

	var missingPartErr *MissingPartError
	if errors.As(err, &missingPartErr) {
		WriteError(w, http.StatusBadRequest, "missing request part", missingPartErr.Error())
		return
	}

	switch {
	case errors.Is(err, apperror.ErrBadCredentials):
		WriteError(w, http.StatusUnauthorized, err.Error(), "Wrong username or password !")
	case errors.Is(err, apperror.ErrAuthentication):
		WriteError(w, http.StatusUnauthorized, err.Error(), "Please Login !")
	case errors.Is(err, apperror.ErrAccessDenied):
		WriteError(w, http.StatusForbidden, err.Error(), "Access Denied !")
	default:
		WriteError(w, http.StatusInternalServerError, "unexpected error", "Error !")
	}
}

// NotFound handles requests no route matched.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail := fmt.Sprintf("No handler found for %s %s", r.Method, r.URL.Path)
		if logger != nil {
			logger.Warn("no handler found", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		}
		WriteError(w, http.StatusNotFound, "no handler found", detail)
	}
}

// MethodNotAllowed handles requests whose path matched but whose method did
// not; the detail enumerates the methods the route does support.
func MethodNotAllowed(mux chi.Router, logger *slog.Logger) http.HandlerFunc {
	probe := []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		allowed := make([]string, 0, len(probe))
		for _, method := range probe {
			rctx := chi.NewRouteContext()
			if mux.Match(rctx, method, r.URL.Path) {
				allowed = append(allowed, method)
			}
		}
		detail := fmt.Sprintf("%s method is not supported for this request. Supported methods are %s",
			r.Method, strings.Join(allowed, " "))
		if logger != nil {
			logger.Warn("method not allowed", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		}
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed", detail)
	}
}

// UnsupportedMediaType writes the 415 body enumerating accepted types.
func UnsupportedMediaType(w http.ResponseWriter, contentType string, accepted []string) {
	detail := fmt.Sprintf("%s media type is not supported. Supported media types are %s",
		contentType, strings.Join(accepted, " "))
	WriteError(w, http.StatusUnsupportedMediaType, "unsupported media type", detail)
}

// Recoverer converts panics escaping request handling into the canonical
// 500 body instead of letting them reach the transport layer.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					if logger != nil {
						logger.Error("panic recovered",
							slog.Any("panic", rec),
							slog.String("path", r.URL.Path),
							slog.String("stack", string(debug.Stack())))
					}
					WriteError(w, http.StatusInternalServerError, "unexpected error", "Error !")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func logError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Error("request failed", slog.Any("error", err))
}
