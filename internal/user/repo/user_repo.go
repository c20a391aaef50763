package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/entity"
)

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id varchar(32) PRIMARY KEY,
  username TEXT UNIQUE NOT NULL,
  email CITEXT UNIQUE NOT NULL,
  full_name TEXT NOT NULL DEFAULT '',
  avatar_url TEXT NOT NULL DEFAULT '',
  cover_image_url TEXT NOT NULL DEFAULT '',
  password_hash TEXT,
  current_refresh_token TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// userRow mirrors the table columns for sqlx struct scanning.
type userRow struct {
	ID                  string    `db:"id"`
	Username            string    `db:"username"`
	Email               string    `db:"email"`
	FullName            string    `db:"full_name"`
	AvatarURL           string    `db:"avatar_url"`
	CoverImageURL       string    `db:"cover_image_url"`
	PasswordHash        *string   `db:"password_hash"`
	CurrentRefreshToken *string   `db:"current_refresh_token"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func (row *userRow) toEntity() *entity.User {
	return &entity.User{
		ID:                  row.ID,
		Username:            row.Username,
		Email:               row.Email,
		FullName:            row.FullName,
		AvatarURL:           row.AvatarURL,
		CoverImageURL:       row.CoverImageURL,
		PasswordHash:        row.PasswordHash,
		CurrentRefreshToken: row.CurrentRefreshToken,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url,
	password_hash, current_refresh_token, created_at, updated_at`

// Create inserts a new user row. The caller supplies the ID.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Username, u.Email, u.FullName, u.AvatarURL, u.CoverImageURL, u.PasswordHash)
	return err
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// GetByUsername fetches by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE username=$1`, username); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// GetByEmail returns a user matched by email (case-insensitive via citext) or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// ExistsByUsernameOrEmail reports whether any row already claims the
// username or the email.
func (r *UserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM users WHERE username=$1 OR email=$2 LIMIT 1`, username, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1 RETURNING 1`
	var one int
	return r.db.GetContext(ctx, &one, q, id, hash)
}

// UpdateAccount sets fullname and email, returning the updated row.
func (r *UserRepo) UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error) {
	const q = `UPDATE users SET full_name=$2, email=$3, updated_at=NOW() WHERE id=$1
		RETURNING ` + userColumns
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, id, fullName, email); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// UpdateAvatarURL persists a new avatar location.
func (r *UserRepo) UpdateAvatarURL(ctx context.Context, id, url string) (*entity.User, error) {
	const q = `UPDATE users SET avatar_url=$2, updated_at=NOW() WHERE id=$1 RETURNING ` + userColumns
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, id, url); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// UpdateCoverImageURL persists a new cover image location.
func (r *UserRepo) UpdateCoverImageURL(ctx context.Context, id, url string) (*entity.User, error) {
	const q = `UPDATE users SET cover_image_url=$2, updated_at=NOW() WHERE id=$1 RETURNING ` + userColumns
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, id, url); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// SetRefreshToken overwrites the stored refresh token unconditionally
// (last writer wins). Returns sql.ErrNoRows when the user does not exist.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	const q = `UPDATE users SET current_refresh_token=$2, updated_at=NOW() WHERE id=$1 RETURNING 1`
	var one int
	return r.db.GetContext(ctx, &one, q, id, token)
}

// SwapRefreshToken replaces the stored refresh token only when it still
// equals previous. The conditional UPDATE is the serialization point for
// concurrent rotations: exactly one of two racing swaps observes a row.
func (r *UserRepo) SwapRefreshToken(ctx context.Context, id, previous, next string) (bool, error) {
	const q = `UPDATE users SET current_refresh_token=$3, updated_at=NOW()
		WHERE id=$1 AND current_refresh_token=$2 RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id, previous, next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetRefreshToken returns the stored refresh token; nil means no active session.
func (r *UserRepo) GetRefreshToken(ctx context.Context, id string) (*string, error) {
	var token *string
	if err := r.db.GetContext(ctx, &token, `SELECT current_refresh_token FROM users WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return token, nil
}

// ClearRefreshToken sets the stored refresh token to NULL. Clearing an
// already-absent token is not an error; an unknown user is sql.ErrNoRows.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, id string) error {
	const q = `UPDATE users SET current_refresh_token=NULL, updated_at=NOW() WHERE id=$1 RETURNING 1`
	var one int
	return r.db.GetContext(ctx, &one, q, id)
}
