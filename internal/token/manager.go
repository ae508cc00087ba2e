// Package token implements the signed credential codec: issuing and
// verifying access and refresh tokens with embedded subject, roles and
// category claims.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Category distinguishes the two credential kinds the service issues.
type Category string

const (
	// CategoryAccess marks short lived tokens presented on API requests.
	CategoryAccess Category = "access"
	// CategoryRefresh marks long lived tokens accepted only for rotation.
	CategoryRefresh Category = "refresh"
)

// Verification failure classes. Callers map these onto the error taxonomy.
var (
	// ErrMalformed indicates the credential could not be parsed or its signature failed.
	ErrMalformed = errors.New("token: malformed credential")
	// ErrExpired indicates the credential is outside its validity window.
	ErrExpired = errors.New("token: credential expired")
	// ErrWrongCategory indicates a credential of another category was presented.
	ErrWrongCategory = errors.New("token: wrong token category")
)

// ExpiredError reports an out-of-window credential together with the
// category it carried. An expired refresh token is a distinct failure from
// an expired access token, so callers need the category to classify it.
type ExpiredError struct {
	Category Category
}

func (e *ExpiredError) Error() string { return "token: credential expired" }

// Is keeps errors.Is(err, ErrExpired) matching.
func (e *ExpiredError) Is(target error) bool { return target == ErrExpired }

// Claims is the payload carried by every issued credential.
type Claims struct {
	Roles    []string `json:"roles,omitempty"`
	Category Category `json:"category"`
	jwt.RegisteredClaims
}

// Config holds the immutable codec settings.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// Manager signs and verifies credentials. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates the configuration and constructs a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Issue signs a new credential for subject carrying the given roles.
func (m *Manager) Issue(subject string, roles []string, category Category) (string, error) {
	ttl := m.config.AccessTTL
	if category == CategoryRefresh {
		ttl = m.config.RefreshTTL
	}
	now := time.Now()
	claims := Claims{
		Roles:    roles,
		Category: category,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// RefreshTTL exposes the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

// Verify parses raw, checks the signature and validity window, and enforces
// that the credential belongs to the wanted category. On any failure the
// returned claims are nil; callers never observe partially verified claims.
func (m *Manager) Verify(raw string, want Category) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// The signature already checked out, so the decoded claims are
			// trustworthy and the category can travel with the failure.
			if parsed != nil {
				if claims, ok := parsed.Claims.(*Claims); ok && claims.Category != "" {
					return nil, &ExpiredError{Category: claims.Category}
				}
			}
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Category != want {
		return nil, ErrWrongCategory
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}
