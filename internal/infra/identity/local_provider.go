// Package identity provides concrete implementations of the IdentityProvider
// domain service.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"purse/config"
	"purse/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessTTL = 15 * time.Minute

	refreshTokenBytes = 32
)

// account is a credential record held by the local provider.
type account struct {
	passwordHash []byte
	confirmed    bool
}

// localProvider is an in-process identity provider. It keeps credentials in
// memory, hashes passwords with bcrypt and signs access tokens as HS256 JWTs.
// It backs development and single-node deployments; a hosted identity service
// slots in behind the same interface.
type localProvider struct {
	mu            sync.RWMutex
	accounts      map[string]*account
	refreshTokens map[string]string // refresh token -> email

	accessSecret     []byte
	accessTTL        time.Duration
	bcryptCost       int
	requireConfirmed bool
	logger           *slog.Logger
}

// LocalProviderParams holds dependencies for localProvider, injected by Fx.
type LocalProviderParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewLocalProvider is the constructor for localProvider.
func NewLocalProvider(params LocalProviderParams) (service.IdentityProvider, error) {
	if params.Config.SecretKey.Access == "" {
		return nil, errors.New("access token secret must be provided")
	}

	accessTTL := defaultAccessTTL
	cost := bcrypt.DefaultCost
	requireConfirmed := false
	if params.Config.Auth != nil {
		if params.Config.Auth.AccessTokenTTL > 0 {
			accessTTL = params.Config.Auth.AccessTokenTTL
		}
		if params.Config.Auth.BcryptCost >= bcrypt.MinCost && params.Config.Auth.BcryptCost <= bcrypt.MaxCost {
			cost = params.Config.Auth.BcryptCost
		}
		requireConfirmed = params.Config.Auth.RequireEmailConfirmation
	}

	return &localProvider{
		accounts:         make(map[string]*account),
		refreshTokens:    make(map[string]string),
		accessSecret:     []byte(params.Config.SecretKey.Access),
		accessTTL:        accessTTL,
		bcryptCost:       cost,
		requireConfirmed: requireConfirmed,
		logger:           params.Logger,
	}, nil
}

// CreateAccount registers a new credential record.
func (p *localProvider) CreateAccount(_ context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[email]; ok {
		return service.NewProviderError(service.ProviderCodeUserAlreadyExists, "email already registered")
	}
	p.accounts[email] = &account{passwordHash: hash}

	return nil
}

// SignIn verifies the password and issues a fresh token pair.
func (p *localProvider) SignIn(_ context.Context, email, password string) (*service.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok {
		return nil, service.NewProviderError(service.ProviderCodeInvalidCredentials, "unknown email")
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return nil, service.NewProviderError(service.ProviderCodeInvalidCredentials, "password mismatch")
	}
	if p.requireConfirmed && !acct.confirmed {
		return nil, service.NewProviderError(service.ProviderCodeEmailNotConfirmed, "email address not confirmed")
	}

	accessToken, err := p.signAccessToken(email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	p.refreshTokens[refreshToken] = email

	return &service.Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    p.accessTTL,
	}, nil
}

// RefreshCredentials exchanges a refresh token for a new access token. The
// refresh token stays valid until the account is deleted.
func (p *localProvider) RefreshCredentials(_ context.Context, refreshToken string) (*service.Credentials, error) {
	p.mu.RLock()
	email, ok := p.refreshTokens[refreshToken]
	p.mu.RUnlock()

	if !ok {
		return nil, service.NewProviderError(service.ProviderCodeInvalidToken, "unknown refresh token")
	}

	accessToken, err := p.signAccessToken(email)
	if err != nil {
		return nil, err
	}

	return &service.Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    p.accessTTL,
	}, nil
}

// ConfirmEmail marks the account as confirmed.
func (p *localProvider) ConfirmEmail(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok {
		return service.NewProviderError(service.ProviderCodeUserNotAllowed, "unknown account")
	}
	acct.confirmed = true

	return nil
}

// ResetPassword starts a password reset. This provider has no mail channel,
// so the request is only audited; unknown emails get the same answer as known
// ones to keep registered addresses unguessable.
func (p *localProvider) ResetPassword(_ context.Context, email string) error {
	p.mu.RLock()
	_, known := p.accounts[email]
	p.mu.RUnlock()

	if known {
		p.logger.Info("Password reset requested", slog.String("email", email))
	}

	return nil
}

// UpdatePassword replaces the stored password hash and revokes every refresh
// token of the account, so credentials issued under the old password cannot
// be exchanged for new access tokens.
func (p *localProvider) UpdatePassword(_ context.Context, email, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok {
		return service.NewProviderError(service.ProviderCodeUserNotAllowed, "unknown account")
	}
	acct.passwordHash = hash

	for token, owner := range p.refreshTokens {
		if owner == email {
			delete(p.refreshTokens, token)
		}
	}

	return nil
}

// DeleteAccount removes the credential record and revokes its refresh tokens.
// Deleting an unknown account is a no-op.
func (p *localProvider) DeleteAccount(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.accounts, email)
	for token, owner := range p.refreshTokens {
		if owner == email {
			delete(p.refreshTokens, token)
		}
	}

	return nil
}

// signAccessToken creates an HS256 JWT carrying the account email as subject.
// The jti claim keeps tokens unique even when two sign-ins for the same
// account land within the same second; session storage indexes access tokens
// uniquely and concurrent multi-device logins must never collide.
func (p *localProvider) signAccessToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  email,
		"jti":  uuid.New().String(),
		"iat":  now.Unix(),
		"exp":  now.Add(p.accessTTL).Unix(),
		"type": "access",
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.accessSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return token, nil
}

// newRefreshToken draws an opaque random token.
func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate refresh token")
	}

	return hex.EncodeToString(buf), nil
}
