package app

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/appbox-io/appbox/internal/observability"
	"github.com/appbox-io/appbox/internal/platform/httpx"
	"github.com/appbox-io/appbox/internal/security"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator security.Authenticator
	Metrics       *observability.Metrics
}

var acceptedMediaTypes = []string{"application/json", "multipart/form-data"}

// MiddlewareStack installs the appbox middleware chain. The authentication
// filter runs after the infrastructure middlewares so its rejections are
// compressed and recovered like every other response; rejected credentials
// are counted by the auth failure metric, not the request counter.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		httpx.Recoverer(cfg.Logger),
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		mediaTypeMiddleware(cfg.Logger),
		cfg.Authenticator.Middleware,
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}

// mediaTypeMiddleware rejects request bodies in media types no handler can
// decode. Requests without a body pass through untouched.
func mediaTypeMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Content-Type")
			if header == "" || r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}
			mediaType, _, err := mime.ParseMediaType(header)
			if err != nil {
				if logger != nil {
					logger.Warn("unparseable content type", slog.String("contentType", header))
				}
				httpx.UnsupportedMediaType(w, header, acceptedMediaTypes)
				return
			}
			for _, accepted := range acceptedMediaTypes {
				if strings.EqualFold(mediaType, accepted) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.UnsupportedMediaType(w, mediaType, acceptedMediaTypes)
		})
	}
}
