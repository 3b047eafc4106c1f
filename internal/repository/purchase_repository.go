package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/online-cinema/internal/model"
)

// PurchaseRepo is the purchase ledger: immutable (user, movie) rows
// recording completed purchases. Its rows are what the purchase
// guard consults before cart adds and movie deletions.
type PurchaseRepo struct{ DB *sql.DB }

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{DB: db} }

// Exists reports whether the account has purchased the movie.
func (r *PurchaseRepo) Exists(ctx context.Context, userID, movieID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM purchases WHERE user_id=? AND movie_id=? LIMIT 1",
		userID, movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExistsAny reports whether any account has purchased the movie.
func (r *PurchaseRepo) ExistsAny(ctx context.Context, movieID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM purchases WHERE movie_id=? LIMIT 1", movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Complete records a purchase and removes the matching cart item in
// a single transaction. Either both effects happen or neither does:
// a purchase row alongside a lingering cart item would violate the
// cart/purchase mutual-exclusion invariant. A duplicate purchase
// maps to ErrAlreadyPurchased; a missing cart item is tolerated so
// direct buys (no cart step) also work.
func (r *PurchaseRepo) Complete(ctx context.Context, userID, movieID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO purchases (user_id, movie_id, purchased_at) VALUES (?,?,?)",
		userID, movieID, time.Now().UTC()); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrAlreadyPurchased
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id=? AND movie_id=?",
		userID, movieID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByUser returns the account's purchases, newest first.
func (r *PurchaseRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Purchase, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, movie_id, purchased_at FROM purchases WHERE user_id=? ORDER BY purchased_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.MovieID, &p.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
