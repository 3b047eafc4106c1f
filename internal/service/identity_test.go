package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/queue"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/utils"
)

const (
	testPassword    = "Sup3rSecret!"
	testNewPassword = "An0therSecret!"
)

type identityFixture struct {
	accounts *fakeAccounts
	tokens   *fakeTokens
	notifier *fakeNotifier
	svc      *IdentityService
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()
	accounts := newFakeAccounts()
	tokens := newFakeTokens(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}
	svc := NewIdentityService(accounts, tokens, notifier, bcrypt.MinCost, 24*time.Hour, 30*time.Minute)
	return &identityFixture{accounts: accounts, tokens: tokens, notifier: notifier, svc: svc}
}

func TestRegisterCreatesPendingAccountAndEmailsToken(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	acct, err := f.svc.Register(ctx, "Alice@Example.com", testPassword)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", acct.Email)
	assert.Equal(t, model.StatusPending, acct.Status)
	assert.Equal(t, model.RoleUser, acct.Role)
	assert.NotEqual(t, testPassword, acct.PasswordHash)

	mails := f.notifier.byKind(queue.EmailActivation)
	require.Len(t, mails, 1)
	assert.Equal(t, "alice@example.com", mails[0].Email)
	assert.NotEmpty(t, mails[0].Token)

	// The emailed secret resolves to a live activation token.
	tok, err := f.tokens.Lookup(ctx, mails[0].Token)
	require.NoError(t, err)
	assert.Equal(t, model.KindActivation, tok.Kind)
	assert.Equal(t, acct.ID, tok.UserID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, "ALICE@example.com", testPassword)
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	for _, pw := range []string{"short1!", "nouppercase1!", "NOLOWERCASE1!", "NoDigits!!", "NoSpecial12", "Password1!"} {
		_, err := f.svc.Register(ctx, "alice@example.com", pw)
		var perr *utils.PolicyError
		assert.ErrorAs(t, err, &perr, "password %q should fail the policy", pw)
	}
	// Nothing was created or emailed along the way.
	_, err := f.accounts.GetByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, f.notifier.byKind(queue.EmailActivation))
}

func TestActivateFlipsAccountAndSpendsToken(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	acct, err := f.svc.Register(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	mail, ok := f.notifier.last()
	require.True(t, ok)

	require.NoError(t, f.svc.Activate(ctx, mail.Token))

	got, err := f.accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)

	// Spending the same token again reports it as consumed.
	err = f.svc.Activate(ctx, mail.Token)
	assert.ErrorIs(t, err, repository.ErrTokenConsumed)
}

func TestActivateRejectsExpiredAndUnknownTokens(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	acct, err := f.svc.Register(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	mail, _ := f.notifier.last()

	f.tokens.advance(25 * time.Hour)
	assert.ErrorIs(t, f.svc.Activate(ctx, mail.Token), repository.ErrTokenExpired)
	assert.ErrorIs(t, f.svc.Activate(ctx, "deadbeef"), repository.ErrTokenNotFound)

	got, err := f.accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestActivateRejectsTokenOfWrongKind(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	acct := f.accounts.seed(model.Account{Email: "alice@example.com", Status: model.StatusActive})
	_, raw, err := f.tokens.Issue(ctx, acct.ID, model.KindPasswordReset, time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Activate(ctx, raw), repository.ErrTokenNotFound)
}

func TestResendActivationReplacesTheOutstandingToken(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	acct, err := f.svc.Register(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	first, _ := f.notifier.last()

	require.NoError(t, f.svc.ResendActivation(ctx, "alice@example.com"))
	second, _ := f.notifier.last()
	require.NotEqual(t, first.Token, second.Token)

	// The old token is dead, the new one works, and exactly one
	// activation token stays live at any moment.
	assert.Equal(t, 1, f.tokens.liveCount(acct.ID, model.KindActivation))
	assert.ErrorIs(t, f.svc.Activate(ctx, first.Token), repository.ErrTokenRevoked)
	assert.NoError(t, f.svc.Activate(ctx, second.Token))
}

func TestResendActivationOnActiveAccount(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	f.accounts.seed(model.Account{Email: "alice@example.com", Status: model.StatusActive})
	assert.ErrorIs(t, f.svc.ResendActivation(ctx, "alice@example.com"), ErrAccountAlreadyActive)
	assert.ErrorIs(t, f.svc.ResendActivation(ctx, "nobody@example.com"), repository.ErrNotFound)
}

func TestDisabledAccountCannotReactivateItself(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	// A pending account holds an activation token when an admin
	// disables it.
	acct, err := f.svc.Register(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	mail, ok := f.notifier.last()
	require.True(t, ok)
	require.NoError(t, f.accounts.Disable(ctx, acct.ID))

	// Neither the leftover token nor a resend request brings it back.
	assert.ErrorIs(t, f.svc.Activate(ctx, mail.Token), ErrAccountDisabled)
	assert.ErrorIs(t, f.svc.ResendActivation(ctx, "alice@example.com"), ErrAccountDisabled)

	got, err := f.accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDisabled, got.Status)
	// No fresh activation email went out for the disabled account.
	assert.Len(t, f.notifier.byKind(queue.EmailActivation), 1)
}

func TestRequestPasswordResetIsSilentForUnknownOrInactiveEmails(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	f.accounts.seed(model.Account{Email: "pending@example.com", Status: model.StatusPending})
	f.accounts.seed(model.Account{Email: "gone@example.com", Status: model.StatusDisabled})

	assert.NoError(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.NoError(t, f.svc.RequestPasswordReset(ctx, "pending@example.com"))
	assert.NoError(t, f.svc.RequestPasswordReset(ctx, "gone@example.com"))
	assert.Empty(t, f.notifier.byKind(queue.EmailPasswordReset))
}

func TestResetPasswordUpdatesHashAndRevokesRefreshTokens(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	hash, err := utils.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	acct := f.accounts.seed(model.Account{Email: "alice@example.com", PasswordHash: hash, Status: model.StatusActive})

	// Two live sessions that must die with the reset.
	_, _, err = f.tokens.Issue(ctx, acct.ID, model.KindRefresh, time.Hour)
	require.NoError(t, err)
	_, _, err = f.tokens.Issue(ctx, acct.ID, model.KindRefresh, time.Hour)
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	mail, ok := f.notifier.last()
	require.True(t, ok)

	require.NoError(t, f.svc.ResetPassword(ctx, mail.Token, testNewPassword))

	got, err := f.accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(got.PasswordHash, testNewPassword))
	assert.Equal(t, 0, f.tokens.liveCount(acct.ID, model.KindRefresh))

	// The reset token is single-use.
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, mail.Token, "YetAn0ther!"), repository.ErrTokenConsumed)
}

func TestResetPasswordTokenExpiresOnSchedule(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	hash, _ := utils.HashPassword(testPassword, bcrypt.MinCost)
	f.accounts.seed(model.Account{Email: "alice@example.com", PasswordHash: hash, Status: model.StatusActive})

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	mail, _ := f.notifier.last()

	f.tokens.advance(31 * time.Minute)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, mail.Token, testNewPassword), repository.ErrTokenExpired)
}

func TestChangePassword(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	hash, err := utils.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	acct := f.accounts.seed(model.Account{Email: "alice@example.com", PasswordHash: hash, Status: model.StatusActive})
	_, _, err = f.tokens.Issue(ctx, acct.ID, model.KindRefresh, time.Hour)
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := f.svc.ChangePassword(ctx, acct.ID, "WrongPass1!", testNewPassword)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("new equals current", func(t *testing.T) {
		err := f.svc.ChangePassword(ctx, acct.ID, testPassword, testPassword)
		assert.ErrorIs(t, err, ErrSamePassword)
	})

	t.Run("policy applies to the new password", func(t *testing.T) {
		var perr *utils.PolicyError
		err := f.svc.ChangePassword(ctx, acct.ID, testPassword, "weak")
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("success revokes sessions and sends the notice", func(t *testing.T) {
		require.NoError(t, f.svc.ChangePassword(ctx, acct.ID, testPassword, testNewPassword))

		got, err := f.accounts.GetByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.True(t, utils.VerifyPassword(got.PasswordHash, testNewPassword))
		assert.Equal(t, 0, f.tokens.liveCount(acct.ID, model.KindRefresh))

		notices := f.notifier.byKind(queue.EmailPasswordChanged)
		require.Len(t, notices, 1)
		assert.Equal(t, "alice@example.com", notices[0].Email)
	})
}
