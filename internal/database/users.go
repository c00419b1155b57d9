package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wealthdesk/ledger/internal/models"
)

// CreateUser inserts a new user
func (db *DB) CreateUser(u *models.User) error {
	query := `
		INSERT INTO users (username, full_name, email, is_demo, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()

	err := db.conn.QueryRow(query,
		u.Username, u.FullName, u.Email, u.IsDemo, now,
	).Scan(&u.ID)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.CreatedAt = now
	return nil
}

// GetUser retrieves a user by id
func (db *DB) GetUser(id int) (*models.User, error) {
	query := `
		SELECT id, username, full_name, email, is_demo, created_at
		FROM users
		WHERE id = $1
	`
	var u models.User
	var fullName, email sql.NullString

	err := db.conn.QueryRow(query, id).Scan(
		&u.ID, &u.Username, &fullName, &email, &u.IsDemo, &u.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if fullName.Valid {
		u.FullName = fullName.String
	}
	if email.Valid {
		u.Email = email.String
	}

	return &u, nil
}
