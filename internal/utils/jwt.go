package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for opaque tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"        // sentinel error values for token validation
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

    "github.com/iliyamo/online-cinema/internal/model"
)

// ErrBadAccessToken is returned by ParseAccessToken when the token
// cannot be verified: bad signature, wrong algorithm, malformed
// claims or elapsed expiry.  Callers treat all of these the same
// way, so one sentinel covers them.
var ErrBadAccessToken = errors.New("invalid access token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short-lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// AccessClaims is the verified content of an access token.  Because
// the token is signed, these values are trusted without a store
// lookup; the trade-off is that an access token cannot be revoked
// before its own short expiry.
type AccessClaims struct {
    UserID    uint64     // subject claim, the account id
    Role      model.Role // role claim, drives authorization
    ExpiresAt time.Time  // expiry claim
}

// OpaqueToken is a random secret handed to the client for flows that
// are validated against the store: activation, password reset and
// refresh.  Only a SHA-256 hash of Raw is persisted.
type OpaqueToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for an account.  It takes
// the signing secret, the account ID, the account's role, and a TTL.
// The JWT includes standard claims: subject (sub), role, expiration
// (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, role model.Role, ttl time.Duration) (AccessToken, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": string(role),
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of an access
// token and returns its claims.  Tokens signed with a different
// algorithm or secret, expired tokens and malformed claims all yield
// ErrBadAccessToken.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens that were not signed with HMAC; accepting the
        // attacker-chosen algorithm would bypass signature checks.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrBadAccessToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return AccessClaims{}, ErrBadAccessToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrBadAccessToken
    }
    sub, ok := claims["sub"].(float64)
    if !ok || sub <= 0 {
        return AccessClaims{}, ErrBadAccessToken
    }
    roleStr, _ := claims["role"].(string)
    role := model.Role(roleStr)
    if !role.Valid() {
        return AccessClaims{}, ErrBadAccessToken
    }
    out := AccessClaims{UserID: uint64(sub), Role: role}
    if expVal, ok := claims["exp"].(float64); ok {
        out.ExpiresAt = time.Unix(int64(expVal), 0).UTC()
    }
    return out, nil
}

// NewOpaqueToken returns a cryptographically secure random token (raw)
// and its expiration time.  It backs activation, password-reset and
// refresh tokens; the ttl parameter controls how long it stays valid.
func NewOpaqueToken(ttl time.Duration) (OpaqueToken, error) {
    // Generate a random 48-byte string and encode it as hex (96 characters).
    raw, err := randomHex(48)
    if err != nil {
        return OpaqueToken{}, err
    }
    return OpaqueToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(ttl),
    }, nil
}

// HashTokenRaw returns the SHA-256 hash of a raw opaque token as a hex
// string.  Storing only the hash in the database prevents attackers
// from using stolen database entries to impersonate sessions or spend
// activation and reset tokens.
func HashTokenRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
