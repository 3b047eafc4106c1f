package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/online-cinema/internal/model"
)

const accountColumns = "id, email, password_hash, role, status, created_at, updated_at"

// AccountRepo persists accounts in the `users` table. Accounts are
// never deleted; DISABLED status is the soft delete so purchases and
// comments keep a valid owner.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create inserts a PENDING account and returns its ID. The email is
// normalized to lowercase; duplicates map to ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, email, passwordHash string, role model.Role) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)",
		email, passwordHash, string(role), string(model.StatusPending))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Activate flips a PENDING account to ACTIVE.
func (r *AccountRepo) Activate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=? WHERE id=?", string(model.StatusActive), id)
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

// UpdatePassword replaces the stored bcrypt digest.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
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

// Disable soft-deletes an account. The row stays so referential
// integrity with purchases and comments survives.
func (r *AccountRepo) Disable(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=? WHERE id=?", string(model.StatusDisabled), id)
	return err
}

// ListEmailsByRole returns the emails of all active accounts holding
// the given role. The purchase guard uses it to alert moderators.
func (r *AccountRepo) ListEmailsByRole(ctx context.Context, role model.Role) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT email FROM users WHERE role=? AND status=?",
		string(role), string(model.StatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (r *AccountRepo) scanOne(row *sql.Row) (model.Account, error) {
	var (
		a      model.Account
		role   string
		status string
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &status, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	a.Status = model.AccountStatus(status)
	return a, nil
}
