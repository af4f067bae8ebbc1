package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/mostaks/kwr-dashboard-server/internal/errors"
)

const (
	tokenIssuer     = "kwr-dashboard-server"
	sessionDuration = 12 * time.Hour
)

// AuthService handles the admin sign-in used by the dashboard management UI.
// There is exactly one operator account, configured at deploy time. Session
// tokens are PASETO v4.local, encrypted with a key minted at startup, so
// every outstanding session dies with the process.
type AuthService struct {
	email    string
	password string
	key      paseto.V4SymmetricKey
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service with the configured admin
// credentials. Empty credentials disable sign-in entirely.
func NewAuthService(email, password string, logger *slog.Logger) *AuthService {
	return &AuthService{
		email:    email,
		password: password,
		key:      paseto.NewV4SymmetricKey(),
		logger:   logger,
		now:      time.Now,
	}
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SignIn checks the supplied credentials against the configured admin
// account and mints an encrypted session token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.email == "" || s.password == "" {
		return nil, errors.Unauthorized("sign-in is not configured")
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !emailOK || !passwordOK {
		s.logger.Warn("sign-in rejected", "email", email)
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	now := s.now()
	expires := now.Add(sessionDuration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(email)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	s.logger.Info("admin signed in", "email", email)
	return &Session{Token: token.V4Encrypt(s.key, nil), Email: email, ExpiresAt: expires}, nil
}

// VerifySession decrypts and validates a session token, returning the
// operator email it was minted for.
func (s *AuthService) VerifySession(tokenString string) (string, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return "", errors.InvalidCredentials("invalid session token")
	}
	email, err := token.GetSubject()
	if err != nil {
		return "", errors.InvalidCredentials("invalid session token")
	}
	return email, nil
}
