// Package apperror defines the closed catalog of domain failures and the
// wire-level error body every endpoint produces.
package apperror

import "net/http"

// Kind identifies one domain failure. The set is closed; business code
// signals a failure by raising exactly one Kind and never builds an HTTP
// response itself.
type Kind string

const (
	// KindInvalidPassword indicates the supplied password does not match the account.
	KindInvalidPassword Kind = "INVALID_PASSWORD"
	// KindInvalidTokenType indicates a token of the wrong category was presented.
	KindInvalidTokenType Kind = "INVALID_TOKEN_TYPE"
	// KindInvalidRefreshToken indicates an expired or otherwise unusable refresh token.
	KindInvalidRefreshToken Kind = "INVALID_REFRESH_TOKEN"
	// KindAccessDenied indicates the caller lacks permission for the resource.
	KindAccessDenied Kind = "ACCESS_DENIED"
	// KindUserNotFound indicates the referenced account does not exist.
	KindUserNotFound Kind = "USER_NOT_FOUND"
	// KindRefreshTokenNotFound indicates no refresh token is registered for the subject.
	KindRefreshTokenNotFound Kind = "REFRESH_TOKEN_NOT_FOUND"
	// KindDuplicateUsername indicates the requested identifier is already taken.
	KindDuplicateUsername Kind = "DUPLICATE_USERNAME"
	// KindFileUploadFailed indicates the object store rejected an upload.
	KindFileUploadFailed Kind = "FILE_UPLOAD_FAILED"
)

type entry struct {
	status int
	detail string
}

var taxonomy = map[Kind]entry{
	KindInvalidPassword:      {http.StatusBadRequest, "The password is not valid."},
	KindInvalidTokenType:     {http.StatusBadRequest, "The token type is not valid."},
	KindInvalidRefreshToken:  {http.StatusBadRequest, "The token can no longer be used."},
	KindAccessDenied:         {http.StatusForbidden, "You do not have permission to access this resource."},
	KindUserNotFound:         {http.StatusNotFound, "The user could not be found."},
	KindRefreshTokenNotFound: {http.StatusNotFound, "The refresh token could not be found."},
	KindDuplicateUsername:    {http.StatusConflict, "The username already exists."},
	KindFileUploadFailed:     {http.StatusInternalServerError, "The file upload failed."},
}

// Kinds returns every catalog entry. The slice is freshly allocated.
func Kinds() []Kind {
	out := make([]Kind, 0, len(taxonomy))
	for k := range taxonomy {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k belongs to the catalog.
func (k Kind) Valid() bool {
	_, ok := taxonomy[k]
	return ok
}

// Status returns the HTTP status declared for k.
func (k Kind) Status() int {
	if e, ok := taxonomy[k]; ok {
		return e.status
	}
	return http.StatusInternalServerError
}

// Detail returns the human readable description declared for k.
func (k Kind) Detail() string {
	if e, ok := taxonomy[k]; ok {
		return e.detail
	}
	return "Unknown error."
}
