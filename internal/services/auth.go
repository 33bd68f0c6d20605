package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"menumakers/internal/metrics"
	"menumakers/internal/session"
	"menumakers/internal/store"
	"menumakers/internal/util"
	apperrors "menumakers/pkg/errors"

	"github.com/google/uuid"
)

const generatedPasswordBytes = 18

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash is compared against when the account does not exist so
// that unknown usernames cost the same as wrong passwords.
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = util.HashPassword(uuid.NewString())
	})
	return dummyHash
}

// LoginResult carries the signed session token.
type LoginResult struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// AuthService implements the admin session gate
type AuthService struct {
	store    store.Store
	sessions session.Store
	tokens   *util.TokenIssuer
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(st store.Store, sessions session.Store, tokens *util.TokenIssuer, ttl time.Duration) *AuthService {
	return &AuthService{
		store:    st,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login checks credentials and opens a server-side session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	log.Printf("[AUTH] Login attempt for user: %s", username)

	if username == "" || password == "" {
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.Validation("Username and password are required.")
	}

	user, err := s.store.FindActiveAdmin(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		util.CheckPasswordHash(password, dummyPasswordHash())
		log.Printf("[AUTH] Login failed: user '%s' not found or inactive", username)
		metrics.RecordAuthAttempt(false)
		return nil, unauthorized(msgInvalidLogin)
	}
	if err != nil {
		log.Printf("[AUTH] Login failed: database error for user '%s': %v", username, err)
		metrics.RecordAuthAttempt(false)
		return nil, storeError(msgInvalidLogin, err)
	}

	if !util.CheckPasswordHash(password, user.PasswordHash) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", username)
		metrics.RecordAuthAttempt(false)
		return nil, unauthorized(msgInvalidLogin)
	}

	now := s.now().UTC()
	sess := &session.Session{
		ID:        uuid.NewString(),
		AccountID: user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		log.Printf("[AUTH] Login failed: session store error for user '%s': %v", username, err)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "Login failed. Please try again.", err)
	}

	token, expiresAt, err := s.tokens.Issue(user.Username, user.ID, sess.ID)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", username, err)
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "Login failed. Please try again.", err)
	}

	if err := s.store.TouchAdminLogin(ctx, user.ID, now); err != nil {
		log.Printf("[AUTH] Warning: failed to record last login for '%s': %v", username, err)
	}

	log.Printf("[AUTH] Login successful for user '%s' (id=%d)", username, user.ID)
	metrics.RecordAuthAttempt(true)

	return &LoginResult{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout revokes the session behind token. Unknown or invalid tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		log.Printf("[AUTH] Logout failed for user '%s': %v", claims.Username(), err)
		return apperrors.Wrap(apperrors.ErrCodeInternalError, "Logout failed. Please try again.", err)
	}
	log.Printf("[AUTH] Logout for user: %s", claims.Username())
	return nil
}

// Check resolves token to a live session.
func (s *AuthService) Check(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, unauthorized(msgAuthRequired)
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, unauthorized(msgAuthRequired)
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID())
	if errors.Is(err, session.ErrNotFound) {
		return nil, unauthorized(msgAuthRequired)
	}
	if err != nil {
		log.Printf("[AUTH] Session lookup failed: %v", err)
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "Session lookup failed.", err)
	}
	if sess.Username != claims.Username() || sess.AccountID != claims.AccountID {
		return nil, unauthorized(msgAuthRequired)
	}
	return sess, nil
}

// EnsureDefaultAdmin creates the bootstrap account when it does not exist.
// An empty password is replaced with a random one, which is returned so the
// caller can show it once.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) (created bool, generated string, err error) {
	if password == "" {
		generated, err = util.GenerateRandomPassword(generatedPasswordBytes)
		if err != nil {
			return false, "", err
		}
		password = generated
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return false, "", err
	}
	created, err = s.store.EnsureDefaultAdmin(ctx, username, hash)
	if err != nil || !created {
		return created, "", err
	}
	return true, generated, nil
}
