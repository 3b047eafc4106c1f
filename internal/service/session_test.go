package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/utils"
)

const testJWTSecret = "unit-test-secret"

type sessionFixture struct {
	accounts *fakeAccounts
	tokens   *fakeTokens
	svc      *SessionService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	accounts := newFakeAccounts()
	// Access tokens are signed with the real wall clock, so the store
	// clock must share that timebase for expiry comparisons to hold.
	tokens := newFakeTokens(time.Now().UTC())
	svc := NewSessionService(accounts, tokens, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	return &sessionFixture{accounts: accounts, tokens: tokens, svc: svc}
}

func (f *sessionFixture) seedActive(t *testing.T, email string, role model.Role) model.Account {
	t.Helper()
	hash, err := utils.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	return f.accounts.seed(model.Account{
		Email: email, PasswordHash: hash, Role: role, Status: model.StatusActive,
	})
}

func TestLoginIssuesAWorkingPair(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	seeded := f.seedActive(t, "alice@example.com", model.RoleUser)

	acct, pair, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, acct.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExpires.After(pair.AccessExpires),
		"refresh token must outlive the access token")

	// The access token verifies offline and carries the identity.
	claims, err := f.svc.Authorize(pair.AccessToken, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	// The refresh token resolves against the store.
	tok, err := f.tokens.Lookup(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, model.KindRefresh, tok.Kind)
}

func TestLoginFailures(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.seedActive(t, "alice@example.com", model.RoleUser)

	hash, _ := utils.HashPassword(testPassword, bcrypt.MinCost)
	f.accounts.seed(model.Account{Email: "pending@example.com", PasswordHash: hash, Status: model.StatusPending})
	f.accounts.seed(model.Account{Email: "gone@example.com", PasswordHash: hash, Status: model.StatusDisabled})

	_, _, err := f.svc.Login(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email must look like a bad password")
	_, _, err = f.svc.Login(ctx, "alice@example.com", "WrongPass1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, "pending@example.com", testPassword)
	assert.ErrorIs(t, err, ErrAccountNotActive)
	_, _, err = f.svc.Login(ctx, "gone@example.com", testPassword)
	assert.ErrorIs(t, err, ErrAccountNotActive)
}

func TestConcurrentSessionsStayIndependent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	acct := f.seedActive(t, "alice@example.com", model.RoleUser)

	_, phone, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	_, laptop, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	// Two refresh tokens coexist; logging out one leaves the other.
	assert.Equal(t, 2, f.tokens.liveCount(acct.ID, model.KindRefresh))
	require.NoError(t, f.svc.Logout(ctx, phone.RefreshToken))
	assert.Equal(t, 1, f.tokens.liveCount(acct.ID, model.KindRefresh))

	_, _, err = f.svc.Refresh(ctx, laptop.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRotatesTheToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	acct := f.seedActive(t, "alice@example.com", model.RoleUser)

	_, pair, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	// Rotate through a chain of arbitrary length: after every hop the
	// spent token is gone for good and only the newest handle works.
	current := pair
	for hop := 0; hop < 10; hop++ {
		_, next, err := f.svc.Refresh(ctx, current.RefreshToken)
		require.NoError(t, err, "hop %d", hop)
		require.NotEqual(t, current.RefreshToken, next.RefreshToken, "hop %d", hop)

		_, _, err = f.svc.Refresh(ctx, current.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenInvalid, "replaying the spent token at hop %d", hop)
		assert.Equal(t, 1, f.tokens.liveCount(acct.ID, model.KindRefresh), "hop %d", hop)
		current = next
	}

	// The end of the chain is still a working session.
	_, _, err = f.svc.Refresh(ctx, current.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsExpiredAndForeignTokens(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	acct := f.seedActive(t, "alice@example.com", model.RoleUser)

	_, pair, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	// An activation token presented as a refresh token is refused.
	_, activation, err := f.tokens.Issue(ctx, acct.ID, model.KindActivation, time.Hour)
	require.NoError(t, err)
	_, _, err = f.svc.Refresh(ctx, activation)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = f.svc.Refresh(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	f.tokens.advance(8 * 24 * time.Hour)
	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshStopsForDeactivatedAccounts(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	acct := f.seedActive(t, "alice@example.com", model.RoleUser)

	_, pair, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, f.accounts.setStatus(acct.ID, model.StatusDisabled))
	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountNotActive)
}

func TestLogoutIsSingleShot(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.seedActive(t, "alice@example.com", model.RoleUser)

	_, pair, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.RefreshToken))
	assert.ErrorIs(t, f.svc.Logout(ctx, pair.RefreshToken), ErrTokenInvalid)
	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthorizeRoleHierarchy(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	cases := []struct {
		role model.Role
		// highest minimum this role still satisfies
		passes []model.Role
		fails  []model.Role
	}{
		{model.RoleUser, []model.Role{model.RoleUser}, []model.Role{model.RoleModerator, model.RoleAdmin}},
		{model.RoleModerator, []model.Role{model.RoleUser, model.RoleModerator}, []model.Role{model.RoleAdmin}},
		{model.RoleAdmin, []model.Role{model.RoleUser, model.RoleModerator, model.RoleAdmin}, nil},
	}
	for i, tc := range cases {
		email := string(tc.role) + "@example.com"
		f.seedActive(t, email, tc.role)
		_, pair, err := f.svc.Login(ctx, email, testPassword)
		require.NoError(t, err, "case %d", i)

		for _, min := range tc.passes {
			claims, err := f.svc.Authorize(pair.AccessToken, min)
			assert.NoError(t, err, "%s should satisfy minimum %s", tc.role, min)
			assert.Equal(t, tc.role, claims.Role)
		}
		for _, min := range tc.fails {
			_, err := f.svc.Authorize(pair.AccessToken, min)
			assert.ErrorIs(t, err, ErrForbidden, "%s must not satisfy minimum %s", tc.role, min)
		}
	}
}

func TestAuthorizeRejectsTamperedTokens(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.seedActive(t, "alice@example.com", model.RoleUser)

	_, pair, err := f.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	// Signed with a different secret.
	other, err := utils.NewAccessToken("another-secret", 1, model.RoleAdmin, time.Minute)
	require.NoError(t, err)
	_, err = f.svc.Authorize(other.Token, model.RoleUser)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Garbage and truncated tokens.
	_, err = f.svc.Authorize("not.a.jwt", model.RoleUser)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Authorize(pair.AccessToken[:len(pair.AccessToken)-2], model.RoleUser)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccessTTLIsClampedToRefreshTTL(t *testing.T) {
	accounts := newFakeAccounts()
	// The store clock sits a minute ahead of the JWT signer's real
	// clock so the comparison below cannot flake on scheduling.
	tokens := newFakeTokens(time.Now().UTC().Add(time.Minute))
	svc := NewSessionService(accounts, tokens, testJWTSecret, 48*time.Hour, time.Hour)

	hash, _ := utils.HashPassword(testPassword, bcrypt.MinCost)
	accounts.seed(model.Account{Email: "alice@example.com", PasswordHash: hash, Status: model.StatusActive})

	_, pair, err := svc.Login(context.Background(), "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.False(t, pair.AccessExpires.After(pair.RefreshExpires),
		"access token must not outlive its refresh token")
}
