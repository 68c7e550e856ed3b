// Package auth implements the account and session provider: credential
// storage, password verification, session tokens, and password resets. Like
// everything else it persists through the document store at environment-scoped
// paths, so local, preview, and production accounts never mix.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mlaurel/hearthledger/internal/apperrors"
	"github.com/mlaurel/hearthledger/internal/docstore"
	"github.com/mlaurel/hearthledger/internal/email"
	"github.com/mlaurel/hearthledger/internal/environment"
	"github.com/mlaurel/hearthledger/internal/id"
	"github.com/mlaurel/hearthledger/internal/model"
)

const (
	accountsCollection      = "accounts"
	accountEmailsCollection = "account_emails"
	usersCollection         = "users"
	sessionsCollection      = "sessions"
	resetsCollection        = "password_resets"

	sessionTTL = 90 * 24 * time.Hour
	resetTTL   = time.Hour

	minPasswordLen = 8
)

// Service provides account registration, login, sessions, and password
// resets.
type Service struct {
	store    docstore.Store
	resolver *environment.Resolver
	mail     *email.Client
	baseURL  string
	newID    id.Generator
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(gen id.Generator) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

func NewService(store docstore.Store, resolver *environment.Resolver, mail *email.Client, baseURL string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		mail:     mail,
		baseURL:  strings.TrimRight(baseURL, "/"),
		newID:    id.New,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Register creates an account and its user profile. The email must not
// already be registered.
func (s *Service) Register(ctx context.Context, emailAddr, password, displayName string) (string, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		return "", apperrors.New(apperrors.CodeInvalidArgument, "a valid email address is required")
	}
	if len(password) < minPasswordLen {
		return "", apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = emailAddr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	accountID := s.newID()
	now := s.now().UTC()

	err = s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		// The email index doc doubles as a uniqueness guard.
		indexPath := s.resolver.DocumentPath(accountEmailsCollection, emailAddr)
		existing, err := tx.Get(ctx, indexPath)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.New(apperrors.CodeAuthAccountExists, "an account with this email already exists")
		}

		account := model.Account{
			ID:           accountID,
			Email:        emailAddr,
			PasswordHash: string(hash),
			CreatedAt:    now,
		}
		accountFields, err := docstore.Encode(account)
		if err != nil {
			return err
		}
		if err := tx.Set(ctx, s.resolver.DocumentPath(accountsCollection, accountID), accountFields); err != nil {
			return err
		}
		if err := tx.Set(ctx, indexPath, docstore.Fields{"account_id": accountID}); err != nil {
			return err
		}

		user := model.User{
			ID:          accountID,
			Email:       emailAddr,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		userFields, err := docstore.Encode(user)
		if err != nil {
			return err
		}
		return tx.Set(ctx, s.resolver.DocumentPath(usersCollection, accountID), userFields)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("account registered", "account_id", accountID)
	return accountID, nil
}

// Login verifies credentials and opens a session. Unknown accounts and wrong
// passwords get the same message so login cannot be used to probe for
// registered emails.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*model.Session, error) {
	account, err := s.accountByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.New(apperrors.CodeAuthInvalidCredentials, "incorrect email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.New(apperrors.CodeAuthInvalidCredentials, "incorrect email or password")
	}

	sess, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login", "account_id", account.ID)
	return sess, nil
}

func (s *Service) accountByEmail(ctx context.Context, emailAddr string) (*model.Account, error) {
	index, err := s.store.Get(ctx, s.resolver.DocumentPath(accountEmailsCollection, emailAddr))
	if err != nil || index == nil {
		return nil, err
	}
	accountID, _ := index.Fields["account_id"].(string)
	if accountID == "" {
		return nil, nil
	}

	doc, err := s.store.Get(ctx, s.resolver.DocumentPath(accountsCollection, accountID))
	if err != nil || doc == nil {
		return nil, err
	}
	var account model.Account
	if err := docstore.Decode(doc, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *Service) createSession(ctx context.Context, accountID string) (*model.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess := model.Session{
		Token:     token,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	fields, err := docstore.Encode(sess)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, s.resolver.DocumentPath(sessionsCollection, token), fields); err != nil {
		return nil, err
	}
	return &sess, nil
}

// AccountByToken resolves a session token to its account id, or "" when the
// token is unknown or expired.
func (s *Service) AccountByToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	doc, err := s.store.Get(ctx, s.resolver.DocumentPath(sessionsCollection, token))
	if err != nil || doc == nil {
		return "", err
	}
	var sess model.Session
	if err := docstore.Decode(doc, &sess); err != nil {
		return "", err
	}
	if s.now().UTC().After(sess.ExpiresAt) {
		return "", nil
	}
	return sess.AccountID, nil
}

// Logout revokes a session. The store contract has no delete, so revocation
// writes the expiry into the past.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	path := s.resolver.DocumentPath(sessionsCollection, token)
	doc, err := s.store.Get(ctx, path)
	if err != nil || doc == nil {
		return err
	}
	return s.store.Update(ctx, path, docstore.Fields{
		"expires_at": s.now().UTC().Add(-time.Second),
	})
}

// SendPasswordReset creates a one-hour reset token and emails its link.
// Unknown emails succeed silently so the endpoint cannot be used to probe
// for registered accounts.
func (s *Service) SendPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)

	account, err := s.accountByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if account == nil {
		return nil
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.store.Set(ctx, s.resolver.DocumentPath(resetsCollection, token), docstore.Fields{
		"account_id": account.ID,
		"created_at": now,
		"expires_at": now.Add(resetTTL),
		"used":       false,
	}); err != nil {
		return err
	}

	link := s.baseURL + "/reset-password?token=" + token
	if err := s.mail.SendPasswordReset(account.Email, link); err != nil {
		s.logger.Error("send password reset", "error", err)
		return err
	}
	return nil
}

// ResetPassword completes a password reset. The token is single-use and
// expires an hour after it was issued.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		resetPath := s.resolver.DocumentPath(resetsCollection, token)
		doc, err := tx.Get(ctx, resetPath)
		if err != nil {
			return err
		}
		if doc == nil {
			return apperrors.New(apperrors.CodeAuthInvalidCredentials, "this reset link is invalid or has expired")
		}

		used, _ := doc.Fields["used"].(bool)
		expiresAt, parseErr := time.Parse(time.RFC3339Nano, fmt.Sprint(doc.Fields["expires_at"]))
		if used || parseErr != nil || s.now().UTC().After(expiresAt) {
			return apperrors.New(apperrors.CodeAuthInvalidCredentials, "this reset link is invalid or has expired")
		}

		accountID, _ := doc.Fields["account_id"].(string)
		if err := tx.Update(ctx, s.resolver.DocumentPath(accountsCollection, accountID), docstore.Fields{
			"password_hash": string(hash),
		}); err != nil {
			return err
		}
		return tx.Update(ctx, resetPath, docstore.Fields{"used": true})
	})
}
