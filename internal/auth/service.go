package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/token"
	"github.com/appbox-io/appbox/internal/users"
)

// UserDirectory resolves accounts by their subject identifier.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
}

// Service wraps credential issuance and rotation rules.
type Service struct {
	directory UserDirectory
	tokens    *token.Manager
	store     *RefreshStore
	repo      Repository
	logger    *slog.Logger
}

// NewService constructs a new Service. repo may be nil when issuance
// auditing is not wanted.
func NewService(directory UserDirectory, tokens *token.Manager, store *RefreshStore, repo Repository, logger *slog.Logger) *Service {
	return &Service{
		directory: directory,
		tokens:    tokens,
		store:     store,
		repo:      repo,
		logger:    logger,
	}
}

// Login validates email/password credentials and issues a token pair. An
// unknown account and a password mismatch collapse into the same
// bad-credentials failure so the response does not reveal whether the
// account exists; infrastructure failures surface as such.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, apperror.ErrBadCredentials
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrBadCredentials
	}
	return s.issuePair(ctx, user)
}

// Refresh rotates a token pair. The presented credential must verify as a
// refresh token and match the one registered for the subject.
func (s *Service) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(raw, token.CategoryRefresh)
	if err != nil {
		if errors.Is(err, token.ErrWrongCategory) {
			return nil, apperror.New(apperror.KindInvalidTokenType)
		}
		return nil, apperror.New(apperror.KindInvalidRefreshToken)
	}

	stored, err := s.store.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, apperror.New(apperror.KindRefreshTokenNotFound)
		}
		return nil, err
	}
	if stored != raw {
		return nil, apperror.New(apperror.KindInvalidRefreshToken)
	}

	user, err := s.directory.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, apperror.New(apperror.KindUserNotFound)
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}
	return s.issuePair(ctx, user)
}

// Logout invalidates the registered refresh token for subject.
func (s *Service) Logout(ctx context.Context, subject string) error {
	if err := s.store.Delete(ctx, subject); err != nil {
		return err
	}
	if s.repo != nil {
		if err := s.repo.DeleteTokens(ctx, subject); err != nil && s.logger != nil {
			s.logger.Warn("delete token records", slog.Any("error", err))
		}
	}
	return nil
}

func (s *Service) issuePair(ctx context.Context, user *users.User) (*TokenPair, error) {
	access, err := s.tokens.Issue(user.Email, user.Roles(), token.CategoryAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(user.Email, user.Roles(), token.CategoryRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, user.Email, refresh); err != nil {
		return nil, err
	}
	if s.repo != nil {
		expiresAt := time.Now().Add(s.tokens.RefreshTTL())
		if err := s.repo.RecordToken(ctx, uuid.NewString(), user.Email, expiresAt); err != nil && s.logger != nil {
			s.logger.Warn("record token issuance", slog.Any("error", err))
		}
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
