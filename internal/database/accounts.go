package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wealthdesk/ledger/internal/models"
)

// ErrAccountNotFound is returned when an account id does not resolve
var ErrAccountNotFound = fmt.Errorf("account not found")

// CreateAccount inserts a new account
func (db *DB) CreateAccount(a *models.Account) error {
	query := `
		INSERT INTO accounts (user_id, account_type, balance, is_demo, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()

	err := db.conn.QueryRow(query,
		a.UserID, a.AccountType, a.Balance, a.IsDemo, now,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	a.CreatedAt = now
	return nil
}

// GetAccount retrieves an account by id
func (db *DB) GetAccount(id int) (*models.Account, error) {
	return getAccount(db.conn, id, false)
}

// GetAccountForUpdate retrieves an account inside a transaction with a
// row lock (SELECT ... FOR UPDATE), serializing concurrent engine
// operations on the same account.
func GetAccountForUpdate(q Querier, id int) (*models.Account, error) {
	return getAccount(q, id, true)
}

func getAccount(q Querier, id int, forUpdate bool) (*models.Account, error) {
	query := `
		SELECT id, user_id, account_type, balance, is_demo, created_at
		FROM accounts
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var a models.Account
	err := q.QueryRow(query, id).Scan(
		&a.ID, &a.UserID, &a.AccountType, &a.Balance, &a.IsDemo, &a.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// GetAccountsByUser retrieves all accounts owned by a user
func (db *DB) GetAccountsByUser(userID int) ([]*models.Account, error) {
	query := `
		SELECT id, user_id, account_type, balance, is_demo, created_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY id ASC
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(&a.ID, &a.UserID, &a.AccountType, &a.Balance, &a.IsDemo, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &a)
	}

	return accounts, rows.Err()
}

// UpdateAccountBalance sets an account's balance. Only the ledger
// engine calls this, always inside a transaction it owns.
func UpdateAccountBalance(q Querier, id int, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $2 WHERE id = $1`
	result, err := q.Exec(query, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
