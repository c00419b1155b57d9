package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wealthdesk/ledger/internal/models"
)

// InsertTransaction appends an entry to the transaction log
func InsertTransaction(q Querier, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (
			from_account_id, to_account_id, amount, type, status, description, is_demo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	now := time.Now()

	err := q.QueryRow(query,
		t.FromAccountID, t.ToAccountID, t.Amount, t.Type, t.Status, t.Description, t.IsDemo, now,
	).Scan(&t.ID)

	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	t.CreatedAt = now
	return nil
}

// GetTransaction retrieves a transaction by id
func (db *DB) GetTransaction(id int) (*models.Transaction, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, type, status, description, is_demo, created_at
		FROM transactions
		WHERE id = $1
	`
	t, err := scanTransaction(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction not found: %d", id)
	}
	return t, err
}

func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	var fromID, toID sql.NullInt64
	var description sql.NullString

	err := row.Scan(
		&t.ID, &fromID, &toID, &t.Amount, &t.Type, &t.Status, &description, &t.IsDemo, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fromID.Valid {
		id := int(fromID.Int64)
		t.FromAccountID = &id
	}
	if toID.Valid {
		id := int(toID.Int64)
		t.ToAccountID = &id
	}
	if description.Valid {
		t.Description = description.String
	}

	return &t, nil
}

// GetTransactionsByAccount retrieves the log entries touching an
// account, newest first
func (db *DB) GetTransactionsByAccount(accountID, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, type, status, description, is_demo, created_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		var fromID, toID sql.NullInt64
		var description sql.NullString

		err := rows.Scan(
			&t.ID, &fromID, &toID, &t.Amount, &t.Type, &t.Status, &description, &t.IsDemo, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if fromID.Valid {
			id := int(fromID.Int64)
			t.FromAccountID = &id
		}
		if toID.Valid {
			id := int(toID.Int64)
			t.ToAccountID = &id
		}
		if description.Valid {
			t.Description = description.String
		}

		transactions = append(transactions, &t)
	}

	return transactions, rows.Err()
}

// CompleteMaturedTransfers settles pending transfers older than the
// cutoff: each one is credited to its destination account (when the
// account exists in this system) and flipped to completed, atomically.
// The status transition is one-way; completed rows are never revisited.
// Returns the ids of the transfers settled in this sweep.
func (db *DB) CompleteMaturedTransfers(ctx context.Context, cutoff time.Time) ([]int, error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id, to_account_id, amount
		FROM transactions
		WHERE status = $1 AND type = $2 AND created_at <= $3
		ORDER BY id ASC
		FOR UPDATE SKIP LOCKED
	`, models.StatusPending, models.TransactionTypeTransfer, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transfers: %w", err)
	}

	type matured struct {
		id     int
		toID   sql.NullInt64
		amount string
	}
	var batch []matured
	for rows.Next() {
		var m matured
		if err := rows.Scan(&m.id, &m.toID, &m.amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan pending transfer: %w", err)
		}
		batch = append(batch, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending transfers: %w", err)
	}

	var settled []int
	for _, m := range batch {
		if m.toID.Valid {
			// Destination may be externally routed; 0 rows affected is fine.
			_, err := tx.Exec(`UPDATE accounts SET balance = balance + $2 WHERE id = $1`, m.toID.Int64, m.amount)
			if err != nil {
				return nil, fmt.Errorf("failed to credit destination account %d: %w", m.toID.Int64, err)
			}
		}
		_, err := tx.Exec(`UPDATE transactions SET status = $2 WHERE id = $1`, m.id, models.StatusCompleted)
		if err != nil {
			return nil, fmt.Errorf("failed to complete transfer %d: %w", m.id, err)
		}
		settled = append(settled, m.id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement sweep: %w", err)
	}
	return settled, nil
}
