package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostaks/kwr-dashboard-server/internal/errors"
)

func newAuthService() *AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService("admin@example.com", "s3cret", logger)
}

func TestSignIn_IssuesVerifiableToken(t *testing.T) {
	svc := newAuthService()

	session, err := svc.SignIn(t.Context(), "admin@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "admin@example.com", session.Email)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	email, err := svc.VerifySession(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)
}

func TestSignIn_RejectsBadCredentials(t *testing.T) {
	svc := newAuthService()

	_, err := svc.SignIn(t.Context(), "admin@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	_, err = svc.SignIn(t.Context(), "intruder@example.com", "s3cret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestSignIn_NotConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAuthService("", "", logger)

	_, err := svc.SignIn(t.Context(), "admin@example.com", "s3cret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestVerifySession_RejectsExpiredToken(t *testing.T) {
	svc := newAuthService()
	issuedAt := date(2024, time.June, 5)
	svc.now = func() time.Time { return issuedAt }

	session, err := svc.SignIn(t.Context(), "admin@example.com", "s3cret")
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(13 * time.Hour) }
	_, err = svc.VerifySession(session.Token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestVerifySession_RejectsForeignToken(t *testing.T) {
	svc := newAuthService()

	// A token encrypted under a different process key must not verify.
	other := newAuthService()
	session, err := other.SignIn(t.Context(), "admin@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.VerifySession(session.Token)
	require.Error(t, err)

	_, err = svc.VerifySession("not-a-token")
	require.Error(t, err)
}
