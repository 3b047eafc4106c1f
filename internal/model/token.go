package model

import "time"

// TokenKind distinguishes the three token flavours kept in the
// `tokens` table.  Activation and password-reset tokens are
// single-use: issuing a new one revokes any live predecessor of the
// same kind for the same account.  Refresh tokens may coexist (one
// per device) and are rotated on every refresh.
type TokenKind string

const (
    KindActivation    TokenKind = "ACTIVATION"
    KindPasswordReset TokenKind = "PASSWORD_RESET"
    KindRefresh       TokenKind = "REFRESH"
)

// Token models an entry in the `tokens` table.  The plain secret is
// handed to the client exactly once; only its SHA-256 hash is stored
// so a leaked table cannot be replayed.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the token.
//  Kind       – ACTIVATION, PASSWORD_RESET or REFRESH.
//  TokenHash  – SHA-256 hex digest of the token value.
//  IssuedAt   – timestamp of creation.
//  ExpiresAt  – expiration timestamp.
//  RevokedAt  – when the token was revoked (null if still active).
//  ConsumedAt – when a single-use token was spent (null if unused).
type Token struct {
    ID         uint64     // tokens.id
    UserID     uint64     // tokens.user_id
    Kind       TokenKind  // tokens.kind
    TokenHash  string     // tokens.token_hash
    IssuedAt   time.Time  // tokens.issued_at
    ExpiresAt  time.Time  // tokens.expires_at
    RevokedAt  *time.Time // tokens.revoked_at (nullable)
    ConsumedAt *time.Time // tokens.consumed_at (nullable)
}

// Expired reports whether the token's lifetime has elapsed at the
// given instant.  Lookups re-check this at point of use, so a token
// is unusable the moment its TTL passes even if the background
// sweeper has not removed the row yet.
func (t Token) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }

// Live reports whether the token can still be used: not revoked, not
// consumed and not expired.
func (t Token) Live(now time.Time) bool {
    return t.RevokedAt == nil && t.ConsumedAt == nil && !t.Expired(now)
}
