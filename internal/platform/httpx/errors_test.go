package httpx_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/platform/httpx"
	_ "github.com/appbox-io/appbox/testing"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, apperror.Response) {
	t.Helper()
	res := httptest.NewRecorder()
	httpx.RespondError(res, nil, err)
	var body apperror.Response
	if decodeErr := json.Unmarshal(res.Body.Bytes(), &body); decodeErr != nil {
		t.Fatalf("decode error body: %v", decodeErr)
	}
	return res, body
}

func TestRespondErrorTaxonomyKinds(t *testing.T) {
	for _, kind := range apperror.Kinds() {
		res, body := respond(t, fmt.Errorf("business failure: %w", apperror.New(kind)))
		if res.Code != kind.Status() {
			t.Fatalf("%s expected status %d got %d", kind, kind.Status(), res.Code)
		}
		if body.Message != string(kind) {
			t.Fatalf("%s expected message %q got %q", kind, kind, body.Message)
		}
		if len(body.Exceptions) != 1 || body.Exceptions[0] != kind.Detail() {
			t.Fatalf("%s expected detail %q got %v", kind, kind.Detail(), body.Exceptions)
		}
	}
}

func TestRespondErrorValidation(t *testing.T) {
	type form struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}
	err := validator.New().Struct(form{Email: "nope", Password: "x"})
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	res, body := respond(t, err)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
	if body.Status != "BAD_REQUEST" {
		t.Fatalf("expected BAD_REQUEST got %q", body.Status)
	}
	if len(body.Exceptions) != 2 {
		t.Fatalf("expected one detail per field got %v", body.Exceptions)
	}
}

func TestRespondErrorSecuritySentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{apperror.ErrBadCredentials, http.StatusUnauthorized, "Wrong username or password !"},
		{apperror.ErrAuthentication, http.StatusUnauthorized, "Please Login !"},
		{apperror.ErrAccessDenied, http.StatusForbidden, "Access Denied !"},
	}
	for _, tc := range cases {
		res, body := respond(t, tc.err)
		if res.Code != tc.status {
			t.Fatalf("%v expected %d got %d", tc.err, tc.status, res.Code)
		}
		if len(body.Exceptions) != 1 || body.Exceptions[0] != tc.detail {
			t.Fatalf("%v expected detail %q got %v", tc.err, tc.detail, body.Exceptions)
		}
	}
}

func TestRespondErrorRequestShapeFailures(t *testing.T) {
	res, body := respond(t, &httpx.ParamError{Name: "page", Type: "int"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
	if body.Exceptions[0] != "page should be of type int" {
		t.Fatalf("unexpected detail %v", body.Exceptions)
	}

	res, body = respond(t, &httpx.MissingParamError{Name: "period"})
	if res.Code != http.StatusBadRequest || body.Exceptions[0] != "period parameter is missing" {
		t.Fatalf("unexpected response %d %v", res.Code, body.Exceptions)
	}

	res, body = respond(t, &httpx.MissingPartError{Part: "file"})
	if res.Code != http.StatusBadRequest || body.Exceptions[0] != "file part is missing" {
		t.Fatalf("unexpected response %d %v", res.Code, body.Exceptions)
	}
}

func TestRespondErrorUnanticipatedFailure(t *testing.T) {
	res, body := respond(t, errors.New("pgx: connection refused at 10.0.0.3"))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", res.Code)
	}
	if body.Message != "unexpected error" {
		t.Fatalf("internal error text must not leak, got %q", body.Message)
	}
	if len(body.Exceptions) != 1 || body.Exceptions[0] != "Error !" {
		t.Fatalf("unexpected detail %v", body.Exceptions)
	}
}

func TestNotFoundHandler(t *testing.T) {
	res := httptest.NewRecorder()
	httpx.NotFound(nil)(res, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
	var body apperror.Response
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Exceptions[0] != "No handler found for GET /nowhere" {
		t.Fatalf("unexpected detail %v", body.Exceptions)
	}
}

func TestMethodNotAllowedHandlerListsSupportedMethods(t *testing.T) {
	mux := chi.NewRouter()
	mux.Get("/api/things", func(w http.ResponseWriter, r *http.Request) {})
	mux.Post("/api/things", func(w http.ResponseWriter, r *http.Request) {})
	mux.MethodNotAllowed(httpx.MethodNotAllowed(mux, nil))

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/api/things", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", res.Code)
	}
	var body apperror.Response
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	detail := body.Exceptions[0]
	for _, method := range []string{"GET", "POST"} {
		if !strings.Contains(detail, method) {
			t.Fatalf("detail should list %s: %q", method, detail)
		}
	}
}

func TestRecovererProducesCanonical500(t *testing.T) {
	handler := httpx.Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", res.Code)
	}
	var body apperror.Response
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("unexpected status %q", body.Status)
	}
}
