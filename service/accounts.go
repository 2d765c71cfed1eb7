// Package service holds the account and journal use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"vociary/auth"
	"vociary/db"
	"vociary/errs"
	"vociary/models"
)

const minPasswordLen = 8

// Accounts handles signup, login and token authentication.
type Accounts struct {
	store  *db.Store
	tokens *auth.Tokens
	log    *zap.Logger
}

func NewAccounts(store *db.Store, tokens *auth.Tokens, log *zap.Logger) *Accounts {
	return &Accounts{store: store, tokens: tokens, log: log}
}

// Signup creates an active user. Duplicate email or username yields errs.ErrAlreadyExists.
func (a *Accounts) Signup(ctx context.Context, email, username, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email", errs.ErrValidation)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", errs.ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, minPasswordLen)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := a.store.CreateUser(ctx, email, username, hash)
	if err != nil {
		return nil, err
	}
	a.log.Info("user signed up", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login checks credentials and issues an access token. Unknown user, wrong
// password and inactive account all yield errs.ErrUnauthorized.
func (a *Accounts) Login(ctx context.Context, login, password string) (string, time.Time, error) {
	u, err := a.store.GetUserByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, errs.ErrNotFound) {
		auth.BurnPasswordCheck(password)
		return "", time.Time{}, errs.ErrUnauthorized
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) || !u.IsActive {
		return "", time.Time{}, errs.ErrUnauthorized
	}
	return a.tokens.Issue(u.ID)
}

// Authenticate resolves a bearer token to an active user.
func (a *Accounts) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := a.store.GetUserByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}
