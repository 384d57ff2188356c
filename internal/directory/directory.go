package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"textlens/internal/models"
)

// ErrNotFound reports a lookup for a user that does not exist.
var ErrNotFound = errors.New("user not found")

// Directory resolves local user records keyed by email.
type Directory struct {
	db *sql.DB
}

// New builds a directory backed by the given database.
func New(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// ResolveOrCreate returns the user registered under email, creating the
// record on first sight. An existing record is returned unchanged even when
// name differs; the profile is immutable after creation.
func (d *Directory) ResolveOrCreate(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}

	if user, err := d.getByEmail(ctx, email); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`,
		email, name, now,
	)
	if err != nil {
		// Two first-time logins for the same address can race to insert.
		// The unique index rejects the loser, which then reads the winner.
		if user, lookupErr := d.getByEmail(ctx, email); lookupErr == nil {
			return user, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &models.User{ID: id, Email: email, Name: name, CreatedAt: now}, nil
}

// GetByID fetches a user by its assigned identifier.
func (d *Directory) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, errors.New("invalid user id")
	}
	row := d.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// Count reports the number of registered users.
func (d *Directory) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (d *Directory) getByEmail(ctx context.Context, email string) (*models.User, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE email = ?`, email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
