package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/token"
	"github.com/appbox-io/appbox/internal/users"
	_ "github.com/appbox-io/appbox/testing"
)

type memoryDirectory struct {
	accounts map[string]*users.User
}

func (d *memoryDirectory) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	user, ok := d.accounts[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func newTestDirectory(t *testing.T, email, password string) *memoryDirectory {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &memoryDirectory{accounts: map[string]*users.User{
		email: {ID: 1, Email: email, Nickname: "tester", PasswordHash: string(hash), Role: "USER"},
	}}
}

func newTestService(t *testing.T, directory UserDirectory, refreshTTL time.Duration) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := token.NewManager(token.Config{
		Secret:     []byte("service-test-secret"),
		Issuer:     "appbox-test",
		AccessTTL:  time.Minute,
		RefreshTTL: refreshTTL,
	})
	require.NoError(t, err)

	store := NewRefreshStore(client, time.Hour)
	return NewService(directory, tokens, store, nil, nil)
}

func TestLoginIssuesPair(t *testing.T) {
	directory := newTestDirectory(t, "anna@example.com", "hunter2secret")
	svc := newTestService(t, directory, time.Hour)

	pair, err := svc.Login(context.Background(), "anna@example.com", "hunter2secret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	stored, err := svc.store.Get(context.Background(), "anna@example.com")
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, stored)
}

func TestLoginWrongPassword(t *testing.T) {
	directory := newTestDirectory(t, "anna@example.com", "hunter2secret")
	svc := newTestService(t, directory, time.Hour)

	_, err := svc.Login(context.Background(), "anna@example.com", "not-the-password")
	require.ErrorIs(t, err, apperror.ErrBadCredentials)
}

func TestLoginUnknownAccount(t *testing.T) {
	svc := newTestService(t, &memoryDirectory{accounts: map[string]*users.User{}}, time.Hour)

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever123")
	require.ErrorIs(t, err, apperror.ErrBadCredentials)
}

type failingDirectory struct {
	err error
}

func (d failingDirectory) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return nil, d.err
}

func TestLoginDirectoryFailureIsNotBadCredentials(t *testing.T) {
	wantErr := errors.New("connection reset")
	svc := newTestService(t, failingDirectory{err: wantErr}, time.Hour)

	_, err := svc.Login(context.Background(), "anna@example.com", "hunter2secret")
	require.ErrorIs(t, err, wantErr)
	require.NotErrorIs(t, err, apperror.ErrBadCredentials)
}

func TestRefreshRotatesPair(t *testing.T) {
	directory := newTestDirectory(t, "anna@example.com", "hunter2secret")
	svc := newTestService(t, directory, time.Hour)

	first, err := svc.Login(context.Background(), "anna@example.com", "hunter2secret")
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first refresh token is superseded and must stop working.
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	appErr, ok := apperror.AsError(err)
	require.True(t, ok)
	require.Equal(t, apperror.KindInvalidRefreshToken, appErr.Kind)
}

func TestRefreshWithAccessToken(t *testing.T) {
	directory := newTestDirectory(t, "anna@example.com", "hunter2secret")
	svc := newTestService(t, directory, time.Hour)

	pair, err := svc.Login(context.Background(), "anna@example.com", "hunter2secret")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	appErr, ok := apperror.AsError(err)
	require.True(t, ok)
	require.Equal(t, apperror.KindInvalidTokenType, appErr.Kind)
}

func TestRefreshExpiredToken(t *testing.T) {
	directory := newTestDirectory(t, "anna@example.com", "hunter2secret")
	svc := newTestService(t, directory, time.Nanosecond)

	pair, err := svc.Login(context.Background(), "anna@example.com", "hunter2secret")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	appErr, ok := apperror.AsError(err)
	require.True(t, ok)
	require.Equal(t, apperror.KindInvalidRefreshToken, appErr.Kind)
}

func TestRefreshAfterLogout(t *testing.T) {
	directory := newTestDirectory(t, "anna@example.com", "hunter2secret")
	svc := newTestService(t, directory, time.Hour)

	pair, err := svc.Login(context.Background(), "anna@example.com", "hunter2secret")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), "anna@example.com"))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	appErr, ok := apperror.AsError(err)
	require.True(t, ok)
	require.Equal(t, apperror.KindRefreshTokenNotFound, appErr.Kind)
}

func TestRefreshGarbage(t *testing.T) {
	directory := newTestDirectory(t, "anna@example.com", "hunter2secret")
	svc := newTestService(t, directory, time.Hour)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	appErr, ok := apperror.AsError(err)
	require.True(t, ok)
	require.Equal(t, apperror.KindInvalidRefreshToken, appErr.Kind)
}
