package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/utils"
)

// SessionService issues and validates the access/refresh token pair.
// Access tokens are signed JWTs verified without a store lookup and
// therefore cannot be revoked early; refresh tokens are store-backed
// rows that can. That split is deliberate: cheap verification on
// every request, precise revocation where it matters.
type SessionService struct {
	accounts   AccountStore
	tokens     TokenStore
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken    string    `json:"access_token"`
	AccessExpires  time.Time `json:"access_expires"`
	RefreshToken   string    `json:"refresh_token"`
	RefreshExpires time.Time `json:"refresh_expires"`
}

// NewSessionService wires a session manager. The access TTL is
// clamped to the refresh TTL so an access token can never outlive
// the refresh token that produced it.
func NewSessionService(accounts AccountStore, tokens TokenStore, jwtSecret string, accessTTL, refreshTTL time.Duration) *SessionService {
	if accessTTL > refreshTTL {
		accessTTL = refreshTTL
	}
	return &SessionService{
		accounts:   accounts,
		tokens:     tokens,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Login verifies credentials and account state, persists a refresh
// token and mints a derived access token. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials; PENDING and DISABLED
// accounts yield ErrAccountNotActive.
func (s *SessionService) Login(ctx context.Context, email, password string) (model.Account, TokenPair, error) {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, TokenPair{}, err
	}
	if !utils.VerifyPassword(acct.PasswordHash, password) {
		return model.Account{}, TokenPair{}, ErrInvalidCredentials
	}
	if acct.Status != model.StatusActive {
		return model.Account{}, TokenPair{}, ErrAccountNotActive
	}
	pair, err := s.issuePair(ctx, acct)
	if err != nil {
		return model.Account{}, TokenPair{}, err
	}
	return acct, pair, nil
}

// Refresh rotates a refresh token: the presented one is revoked and
// a new pair is issued, limiting the replay window of a leaked
// token. Every failure mode collapses to ErrTokenInvalid.
func (s *SessionService) Refresh(ctx context.Context, rawRefresh string) (model.Account, TokenPair, error) {
	t, err := s.tokens.Lookup(ctx, rawRefresh)
	if err != nil {
		return model.Account{}, TokenPair{}, ErrTokenInvalid
	}
	if t.Kind != model.KindRefresh {
		return model.Account{}, TokenPair{}, ErrTokenInvalid
	}
	if err := s.tokens.Revoke(ctx, t.ID); err != nil {
		return model.Account{}, TokenPair{}, err
	}
	acct, err := s.accounts.GetByID(ctx, t.UserID)
	if err != nil {
		return model.Account{}, TokenPair{}, err
	}
	if acct.Status != model.StatusActive {
		return model.Account{}, TokenPair{}, ErrAccountNotActive
	}
	pair, err := s.issuePair(ctx, acct)
	if err != nil {
		return model.Account{}, TokenPair{}, err
	}
	return acct, pair, nil
}

// Logout revokes the presented refresh token. Access tokens already
// in the wild stay valid until their own short expiry; callers must
// tolerate that bounded window since stateless tokens cannot be
// recalled.
func (s *SessionService) Logout(ctx context.Context, rawRefresh string) error {
	t, err := s.tokens.Lookup(ctx, rawRefresh)
	if err != nil {
		return ErrTokenInvalid
	}
	if t.Kind != model.KindRefresh {
		return ErrTokenInvalid
	}
	return s.tokens.Revoke(ctx, t.ID)
}

// Authorize verifies an access token's signature and expiry
// (ErrUnauthorized on either failure) and then checks the carried
// role against the required minimum (ErrForbidden when too low).
// The hierarchy is ADMIN over MODERATOR over USER; no store lookup
// happens here.
func (s *SessionService) Authorize(accessToken string, required model.Role) (utils.AccessClaims, error) {
	claims, err := utils.ParseAccessToken(s.jwtSecret, accessToken)
	if err != nil {
		return utils.AccessClaims{}, ErrUnauthorized
	}
	if !claims.Role.AtLeast(required) {
		return utils.AccessClaims{}, ErrForbidden
	}
	return claims, nil
}

func (s *SessionService) issuePair(ctx context.Context, acct model.Account) (TokenPair, error) {
	refresh, rawRefresh, err := s.tokens.Issue(ctx, acct.ID, model.KindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := utils.NewAccessToken(s.jwtSecret, acct.ID, acct.Role, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshToken:   rawRefresh,
		RefreshExpires: refresh.ExpiresAt,
	}, nil
}
