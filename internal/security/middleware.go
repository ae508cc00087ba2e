package security

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/observability"
	"github.com/appbox-io/appbox/internal/platform/httpx"
	"github.com/appbox-io/appbox/internal/token"
)

const bearerPrefix = "Bearer "

// Authenticator is the per request authentication filter. It extracts the
// bearer credential, verifies it through the token codec and populates the
// security context. A missing Authorization header, or one carrying another
// scheme, leaves the request anonymous so public routes still work; a bearer
// credential that is present but invalid always rejects the request, it is
// never downgraded to anonymous.
type Authenticator struct {
	Codec   *token.Manager
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Middleware runs the filter on every request.
func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.Codec.Verify(raw, token.CategoryAccess)
		if err != nil {
			if a.Logger != nil {
				a.Logger.Warn("credential rejected",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
			}
			a.Metrics.AuthFailure(failureReason(err))
			httpx.RespondError(w, a.Logger, classifyVerification(err))
			return
		}

		sec := &Context{Subject: claims.Subject}
		for _, raw := range claims.Roles {
			if role, ok := ParseRole(raw); ok {
				sec.Roles = append(sec.Roles, role)
			}
		}
		next.ServeHTTP(w, r.WithContext(Attach(r.Context(), sec)))
	})
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

func classifyVerification(err error) error {
	var expired *token.ExpiredError
	switch {
	case errors.Is(err, token.ErrWrongCategory):
		return apperror.New(apperror.KindInvalidTokenType)
	case errors.As(err, &expired) && expired.Category == token.CategoryRefresh:
		return apperror.New(apperror.KindInvalidRefreshToken)
	}
	return apperror.ErrAuthentication
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrWrongCategory):
		return "wrong_category"
	default:
		return "malformed"
	}
}

// Guard enforces a permission expression on the routes it wraps. Anonymous
// callers are told to authenticate; authenticated callers without the
// required role are denied.
type Guard struct {
	Engine  *Engine
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Require builds a middleware denying every request whose security context
// does not satisfy the expression.
func (g Guard) Require(requirement Expression) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sec := FromContext(r.Context())
			if g.Engine.Decide(sec, requirement) == Allow {
				next.ServeHTTP(w, r)
				return
			}
			if sec.Anonymous() {
				httpx.RespondError(w, g.Logger, apperror.ErrAuthentication)
				return
			}
			g.Metrics.AccessDenied()
			if g.Logger != nil {
				g.Logger.Warn("access denied",
					slog.String("subject", sec.Subject),
					slog.String("requirement", requirement.String()),
					slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, g.Logger, apperror.ErrAccessDenied)
		})
	}
}
