package repository

import (
	"context"
	"database/sql"
	"strings"
)

// CartRepo manages pending-purchase markers in the `cart_items`
// table. Each (user, movie) pair appears at most once; the unique
// index backs the duplicate check.
type CartRepo struct{ DB *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{DB: db} }

// CartLine is a cart item joined with the movie it refers to, for
// display in cart listings.
type CartLine struct {
	MovieID    uint64 `json:"movie_id"`
	Title      string `json:"title"`
	Year       uint16 `json:"year"`
	PriceCents uint32 `json:"price_cents"`
}

// AddItem inserts a cart item for (user, movie). A duplicate pair
// maps to ErrAlreadyInCart.
func (r *CartRepo) AddItem(ctx context.Context, userID, movieID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO cart_items (user_id, movie_id) VALUES (?,?)", userID, movieID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrAlreadyInCart
	}
	return err
}

// RemoveItem deletes a single cart item; ErrNotFound when the movie
// is not in the cart.
func (r *CartRepo) RemoveItem(ctx context.Context, userID, movieID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id=? AND movie_id=?", userID, movieID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every item from the account's cart and reports how
// many were removed.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id=?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns the account's cart joined with movie data.
func (r *CartRepo) ListByUser(ctx context.Context, userID uint64) ([]CartLine, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT m.id, m.title, m.year, m.price_cents
		 FROM cart_items ci JOIN movies m ON m.id = ci.movie_id
		 WHERE ci.user_id=? ORDER BY ci.added_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.MovieID, &l.Title, &l.Year, &l.PriceCents); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListMovieIDs returns just the movie ids in the account's cart, for
// checkout.
func (r *CartRepo) ListMovieIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT movie_id FROM cart_items WHERE user_id=? ORDER BY added_at", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AnyCartHolds reports whether the movie sits in any account's cart.
// The purchase guard uses it to decide whether to alert moderators
// about a deletion attempt.
func (r *CartRepo) AnyCartHolds(ctx context.Context, movieID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM cart_items WHERE movie_id=? LIMIT 1", movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
