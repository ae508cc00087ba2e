package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/security"
	"github.com/appbox-io/appbox/internal/storage"
)

// Service wraps account business rules.
type Service struct {
	repo   Repository
	store  storage.ObjectStore
	bucket string
}

// NewService constructs a new Service.
func NewService(repo Repository, store storage.ObjectStore, bucket string) *Service {
	return &Service{repo: repo, store: store, bucket: bucket}
}

// Register creates a new account with the baseline role.
func (s *Service) Register(ctx context.Context, email, nickname, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Nickname:     strings.TrimSpace(nickname),
		PasswordHash: string(hash),
		Role:         security.RoleUser,
	}
	return s.repo.Create(ctx, user)
}

// BySubject resolves the account behind a security context subject.
func (s *Service) BySubject(ctx context.Context, subject string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.New(apperror.KindUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, subject, current, next string) error {
	user, err := s.BySubject(ctx, subject)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.New(apperror.KindInvalidPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

// UpdateAvatar uploads the avatar to the object store and records its URL.
// Store failures surface as the upload taxonomy error; the caller only sees
// the catalog entry, never the transport detail.
func (s *Service) UpdateAvatar(ctx context.Context, subject, filename string, body io.Reader, size int64, contentType string) (string, error) {
	user, err := s.BySubject(ctx, subject)
	if err != nil {
		return "", err
	}
	object := fmt.Sprintf("avatars/%d/%s", user.ID, filename)
	url, err := s.store.Put(ctx, s.bucket, object, body, size, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperror.New(apperror.KindFileUploadFailed), err)
	}
	if err := s.repo.UpdateAvatar(ctx, user.ID, url); err != nil {
		return "", err
	}
	return url, nil
}
