package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/queue"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/utils"
)

// IdentityService orchestrates the account activation lifecycle:
// registration, activation, resend and the password flows. All mail
// side effects go through the Notifier fire-and-forget; a broker
// outage never fails the request.
type IdentityService struct {
	accounts      AccountStore
	tokens        TokenStore
	notifier      Notifier
	bcryptCost    int
	activationTTL time.Duration
	resetTTL      time.Duration
}

func NewIdentityService(accounts AccountStore, tokens TokenStore, notifier Notifier, bcryptCost int, activationTTL, resetTTL time.Duration) *IdentityService {
	return &IdentityService{
		accounts:      accounts,
		tokens:        tokens,
		notifier:      notifier,
		bcryptCost:    bcryptCost,
		activationTTL: activationTTL,
		resetTTL:      resetTTL,
	}
}

// Register creates a PENDING account, issues its activation token and
// queues the activation email. The complexity policy runs before
// hashing; a duplicate email maps to repository.ErrEmailExists.
func (s *IdentityService) Register(ctx context.Context, email, password string) (model.Account, error) {
	if err := utils.ValidatePassword(password); err != nil {
		return model.Account{}, err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.Account{}, err
	}
	id, err := s.accounts.Create(ctx, email, hash, model.RoleUser)
	if err != nil {
		return model.Account{}, err
	}
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	_, raw, err := s.tokens.Issue(ctx, id, model.KindActivation, s.activationTTL)
	if err != nil {
		return model.Account{}, err
	}
	_ = s.notifier.PublishEmail(ctx, queue.EmailEvent{
		Kind:  queue.EmailActivation,
		Email: acct.Email,
		Token: raw,
	})
	return acct, nil
}

// Activate spends an activation token and flips its account to
// ACTIVE. The token is marked consumed exactly once; presenting it
// again yields repository.ErrTokenConsumed, an expired one
// repository.ErrTokenExpired, and an unknown or wrong-kind secret
// repository.ErrTokenNotFound.
func (s *IdentityService) Activate(ctx context.Context, rawToken string) error {
	t, err := s.tokens.Lookup(ctx, rawToken)
	if err != nil {
		return err
	}
	if t.Kind != model.KindActivation {
		return repository.ErrTokenNotFound
	}
	acct, err := s.accounts.GetByID(ctx, t.UserID)
	if err != nil {
		return err
	}
	// Activation moves PENDING to ACTIVE and nothing else: a
	// soft-deleted account must not restore itself with a leftover
	// token.
	switch acct.Status {
	case model.StatusActive:
		return ErrAccountAlreadyActive
	case model.StatusDisabled:
		return ErrAccountDisabled
	}
	if err := s.tokens.Consume(ctx, t.ID); err != nil {
		return err
	}
	return s.accounts.Activate(ctx, t.UserID)
}

// ResendActivation revokes any outstanding activation token and
// issues a fresh one, resetting the TTL clock. It fails with
// repository.ErrNotFound for unknown emails and
// ErrAccountAlreadyActive when there is nothing to activate.
func (s *IdentityService) ResendActivation(ctx context.Context, email string) error {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	switch acct.Status {
	case model.StatusActive:
		return ErrAccountAlreadyActive
	case model.StatusDisabled:
		return ErrAccountDisabled
	}
	// Issue revokes the prior activation token in the same
	// transaction, so at most one stays live.
	_, raw, err := s.tokens.Issue(ctx, acct.ID, model.KindActivation, s.activationTTL)
	if err != nil {
		return err
	}
	_ = s.notifier.PublishEmail(ctx, queue.EmailEvent{
		Kind:  queue.EmailActivation,
		Email: acct.Email,
		Token: raw,
	})
	return nil
}

// RequestPasswordReset issues a reset token and queues the reset
// email — but only when the account exists and is active. Unknown or
// inactive emails return success silently so the endpoint cannot be
// used to enumerate accounts.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if acct.Status != model.StatusActive {
		return nil
	}
	_, raw, err := s.tokens.Issue(ctx, acct.ID, model.KindPasswordReset, s.resetTTL)
	if err != nil {
		return err
	}
	_ = s.notifier.PublishEmail(ctx, queue.EmailEvent{
		Kind:  queue.EmailPasswordReset,
		Email: acct.Email,
		Token: raw,
	})
	return nil
}

// ResetPassword spends a reset token, re-hashes the password and
// revokes every outstanding refresh token for the account, forcing
// re-login everywhere as a containment measure.
func (s *IdentityService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}
	t, err := s.tokens.Lookup(ctx, rawToken)
	if err != nil {
		return err
	}
	if t.Kind != model.KindPasswordReset {
		return repository.ErrTokenNotFound
	}
	if err := s.tokens.Consume(ctx, t.ID); err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, t.UserID, hash); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, t.UserID, model.KindRefresh)
}

// DisableAccount soft-deletes an account: the row stays DISABLED so
// purchases keep a valid owner, and every refresh token dies so the
// account cannot keep an existing session alive.
func (s *IdentityService) DisableAccount(ctx context.Context, userID uint64) error {
	if _, err := s.accounts.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.accounts.Disable(ctx, userID); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, userID, model.KindRefresh)
}

// ChangePassword lets a logged-in account rotate its password. The
// current password must verify, the new one must differ and satisfy
// the policy. Like ResetPassword it revokes all refresh tokens, and
// it queues a notice email so the owner learns about the change.
func (s *IdentityService) ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error {
	acct, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(acct.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if utils.VerifyPassword(acct.PasswordHash, newPassword) {
		return ErrSamePassword
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID, model.KindRefresh); err != nil {
		return err
	}
	_ = s.notifier.PublishEmail(ctx, queue.EmailEvent{
		Kind:  queue.EmailPasswordChanged,
		Email: acct.Email,
	})
	return nil
}
