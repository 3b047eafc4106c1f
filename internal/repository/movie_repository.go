package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/online-cinema/internal/model"
)

// MovieRepo holds the minimal movie records the purchase guard needs.
// Catalog search and metadata management live outside this service.
type MovieRepo struct{ DB *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

// Create inserts a movie and returns its ID.
func (r *MovieRepo) Create(ctx context.Context, title string, year uint16, priceCents uint32) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO movies (title, year, price_cents) VALUES (?,?,?)",
		title, year, priceCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a movie by id.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, title, year, price_cents, created_at FROM movies WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.Title, &m.Year, &m.PriceCents, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Movie{}, ErrNotFound
	}
	return m, err
}

// List returns all movies, newest first.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, title, year, price_cents, created_at FROM movies ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Year, &m.PriceCents, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a movie. Callers must consult the purchase guard
// first; the repository itself only reports ErrNotFound for unknown
// ids.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
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
