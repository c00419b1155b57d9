package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wealthdesk/ledger/internal/models"
)

// ErrInvestmentNotFound is returned when no position exists for an
// (account, symbol) pair
var ErrInvestmentNotFound = fmt.Errorf("investment not found")

// GetInvestmentForUpdate retrieves a position inside a transaction with
// a row lock. Returns ErrInvestmentNotFound when the account holds no
// position in the symbol.
func GetInvestmentForUpdate(q Querier, accountID int, symbol string) (*models.Investment, error) {
	query := `
		SELECT id, account_id, symbol, shares, purchase_price, current_price, created_at, updated_at
		FROM investments
		WHERE account_id = $1 AND symbol = $2
		FOR UPDATE
	`
	var inv models.Investment
	err := q.QueryRow(query, accountID, symbol).Scan(
		&inv.ID, &inv.AccountID, &inv.Symbol, &inv.Shares,
		&inv.PurchasePrice, &inv.CurrentPrice, &inv.CreatedAt, &inv.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return &inv, nil
}

// InsertInvestment creates a new position row
func InsertInvestment(q Querier, inv *models.Investment) error {
	query := `
		INSERT INTO investments (account_id, symbol, shares, purchase_price, current_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`
	now := time.Now()

	err := q.QueryRow(query,
		inv.AccountID, inv.Symbol, inv.Shares, inv.PurchasePrice, inv.CurrentPrice, now,
	).Scan(&inv.ID)

	if err != nil {
		return fmt.Errorf("failed to insert investment: %w", err)
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return nil
}

// UpdateInvestment persists new share count, cost basis and last
// observed price for an existing position
func UpdateInvestment(q Querier, inv *models.Investment) error {
	query := `
		UPDATE investments
		SET shares = $2, purchase_price = $3, current_price = $4, updated_at = $5
		WHERE id = $1
	`
	now := time.Now()

	result, err := q.Exec(query, inv.ID, inv.Shares, inv.PurchasePrice, inv.CurrentPrice, now)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrInvestmentNotFound
	}
	inv.UpdatedAt = now
	return nil
}

// DeleteInvestment removes a position row (used when a sell closes the
// position down to dust)
func DeleteInvestment(q Querier, id int) error {
	result, err := q.Exec(`DELETE FROM investments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrInvestmentNotFound
	}
	return nil
}

// GetInvestmentsByAccount retrieves all positions held by an account
func (db *DB) GetInvestmentsByAccount(accountID int) ([]*models.Investment, error) {
	query := `
		SELECT id, account_id, symbol, shares, purchase_price, current_price, created_at, updated_at
		FROM investments
		WHERE account_id = $1
		ORDER BY symbol ASC
	`
	rows, err := db.conn.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	var investments []*models.Investment
	for rows.Next() {
		var inv models.Investment
		err := rows.Scan(
			&inv.ID, &inv.AccountID, &inv.Symbol, &inv.Shares,
			&inv.PurchasePrice, &inv.CurrentPrice, &inv.CreatedAt, &inv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, &inv)
	}

	return investments, rows.Err()
}
