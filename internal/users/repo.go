package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("username already taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create inserts a new user with a pre-hashed password.
func (r *Repo) Create(ctx context.Context, username, passwordHash string) error {
	if username == "" {
		return fmt.Errorf("username required")
	}

	const q = `
insert into users (username, password_hash, created_at, updated_at)
values ($1, $2, now(), now());
`
	if _, err := r.db.Exec(ctx, q, username, passwordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetPasswordHash fetches the stored bcrypt hash for a username.
func (r *Repo) GetPasswordHash(ctx context.Context, username string) (string, error) {
	const q = `select password_hash from users where username = $1;`

	var hash string
	if err := r.db.QueryRow(ctx, q, username).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("select user: %w", err)
	}
	return hash, nil
}
