package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/utils"
)

// TokenRepo is the durable token store. All three token kinds share
// the `tokens` table, keyed by the SHA-256 hash of the raw secret.
// Rows are indexed by (user_id, kind) for the uniqueness invariant
// and by expires_at for the sweeper.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Issue creates a token row with expires_at = now+ttl and returns it
// together with the raw secret (handed to the client exactly once).
// For single-use kinds (activation, password reset) it revokes any
// prior live token of the same kind for the same account inside the
// same transaction; the UPDATE's row locks serialize concurrent
// issues on the (user, kind) pair, so two simultaneously valid
// activation tokens can never exist.
func (r *TokenRepo) Issue(ctx context.Context, userID uint64, kind model.TokenKind, ttl time.Duration) (model.Token, string, error) {
	opaque, err := utils.NewOpaqueToken(ttl)
	if err != nil {
		return model.Token{}, "", err
	}
	hash := utils.HashTokenRaw(opaque.Raw)
	now := time.Now().UTC()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Token{}, "", err
	}
	defer func() { _ = tx.Rollback() }()

	if kind != model.KindRefresh {
		if _, err := tx.ExecContext(ctx,
			"UPDATE tokens SET revoked_at=? WHERE user_id=? AND kind=? AND revoked_at IS NULL AND consumed_at IS NULL",
			now, userID, kind); err != nil {
			return model.Token{}, "", err
		}
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tokens (user_id, kind, token_hash, issued_at, expires_at) VALUES (?,?,?,?,?)",
		userID, kind, hash, now, opaque.Exp)
	if err != nil {
		return model.Token{}, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Token{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return model.Token{}, "", err
	}
	return model.Token{
		ID:        uint64(id),
		UserID:    userID,
		Kind:      kind,
		TokenHash: hash,
		IssuedAt:  now,
		ExpiresAt: opaque.Exp,
	}, opaque.Raw, nil
}

// Lookup resolves a raw secret to its row and re-checks usability at
// point of use: a consumed token yields ErrTokenConsumed, a revoked
// one ErrTokenRevoked, and an expired one ErrTokenExpired even if
// the sweeper has not removed the row yet. The row is returned
// alongside the state errors so callers can still inspect it.
func (r *TokenRepo) Lookup(ctx context.Context, raw string) (model.Token, error) {
	var (
		t        model.Token
		kind     string
		revoked  sql.NullTime
		consumed sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, kind, token_hash, issued_at, expires_at, revoked_at, consumed_at FROM tokens WHERE token_hash=? LIMIT 1",
		utils.HashTokenRaw(raw)).
		Scan(&t.ID, &t.UserID, &kind, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &revoked, &consumed)
	if err == sql.ErrNoRows {
		return model.Token{}, ErrTokenNotFound
	}
	if err != nil {
		return model.Token{}, err
	}
	t.Kind = model.TokenKind(kind)
	if revoked.Valid {
		rv := revoked.Time
		t.RevokedAt = &rv
	}
	if consumed.Valid {
		cv := consumed.Time
		t.ConsumedAt = &cv
	}
	// Consumed wins over revoked: activation marks a spent token both
	// consumed and revoked, and a second activate must report the
	// token as already used rather than merely revoked.
	if t.ConsumedAt != nil {
		return t, ErrTokenConsumed
	}
	if t.RevokedAt != nil {
		return t, ErrTokenRevoked
	}
	if t.Expired(time.Now().UTC()) {
		return t, ErrTokenExpired
	}
	return t, nil
}

// Consume marks a single-use token as spent. It also revokes the row
// so every later code path agrees the token is dead. A second call
// returns ErrTokenConsumed.
func (r *TokenRepo) Consume(ctx context.Context, id uint64) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET consumed_at=?, revoked_at=COALESCE(revoked_at, ?) WHERE id=? AND consumed_at IS NULL",
		now, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenConsumed
	}
	return nil
}

// Revoke idempotently marks a token as revoked.
func (r *TokenRepo) Revoke(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET revoked_at=? WHERE id=? AND revoked_at IS NULL",
		time.Now().UTC(), id)
	return err
}

// RevokeAllForUser revokes every live token of the given kind for an
// account. Password reset uses this to force re-login on all devices.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64, kind model.TokenKind) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET revoked_at=? WHERE user_id=? AND kind=? AND revoked_at IS NULL",
		time.Now().UTC(), userID, kind)
	return err
}

// PurgeExpired deletes all token rows whose lifetime elapsed before
// the given instant and reports how many were removed. It is safe to
// run concurrently with request traffic: lookups re-check expiry
// themselves, so the sweep is cleanup, not the source of truth.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE expires_at < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
