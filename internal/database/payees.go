package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wealthdesk/ledger/internal/models"
)

// CreatePayee inserts a new payee for a user
func (db *DB) CreatePayee(p *models.Payee) error {
	query := `
		INSERT INTO payees (user_id, name, bank_name, account_number, routing_number, payee_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()

	err := db.conn.QueryRow(query,
		p.UserID, p.Name, p.BankName, p.AccountNumber, p.RoutingNumber, p.PayeeType, now,
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to create payee: %w", err)
	}
	p.CreatedAt = now
	return nil
}

// GetPayee retrieves a payee by id, scoped to its owning user
func (db *DB) GetPayee(id, userID int) (*models.Payee, error) {
	query := `
		SELECT id, user_id, name, bank_name, account_number, routing_number, payee_type, created_at
		FROM payees
		WHERE id = $1 AND user_id = $2
	`
	p, err := scanPayee(db.conn.QueryRow(query, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payee not found: %d", id)
	}
	return p, err
}

func scanPayee(row *sql.Row) (*models.Payee, error) {
	var p models.Payee
	var bankName, accountNumber, routingNumber, payeeType sql.NullString

	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &bankName, &accountNumber, &routingNumber, &payeeType, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bankName.Valid {
		p.BankName = bankName.String
	}
	if accountNumber.Valid {
		p.AccountNumber = accountNumber.String
	}
	if routingNumber.Valid {
		p.RoutingNumber = routingNumber.String
	}
	if payeeType.Valid {
		p.PayeeType = payeeType.String
	}

	return &p, nil
}

// GetPayeesByUser retrieves all payees owned by a user
func (db *DB) GetPayeesByUser(userID int) ([]*models.Payee, error) {
	query := `
		SELECT id, user_id, name, bank_name, account_number, routing_number, payee_type, created_at
		FROM payees
		WHERE user_id = $1
		ORDER BY name ASC
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payees: %w", err)
	}
	defer rows.Close()

	var payees []*models.Payee
	for rows.Next() {
		var p models.Payee
		var bankName, accountNumber, routingNumber, payeeType sql.NullString

		err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &bankName, &accountNumber, &routingNumber, &payeeType, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payee: %w", err)
		}

		if bankName.Valid {
			p.BankName = bankName.String
		}
		if accountNumber.Valid {
			p.AccountNumber = accountNumber.String
		}
		if routingNumber.Valid {
			p.RoutingNumber = routingNumber.String
		}
		if payeeType.Valid {
			p.PayeeType = payeeType.String
		}

		payees = append(payees, &p)
	}

	return payees, rows.Err()
}

// UpdatePayee updates a payee's reference data, scoped to its owner
func (db *DB) UpdatePayee(p *models.Payee) error {
	query := `
		UPDATE payees
		SET name = $3, bank_name = $4, account_number = $5, routing_number = $6, payee_type = $7
		WHERE id = $1 AND user_id = $2
	`
	result, err := db.conn.Exec(query,
		p.ID, p.UserID, p.Name, p.BankName, p.AccountNumber, p.RoutingNumber, p.PayeeType,
	)
	if err != nil {
		return fmt.Errorf("failed to update payee: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("payee not found: %d", p.ID)
	}
	return nil
}

// DeletePayee removes a payee, scoped to its owner
func (db *DB) DeletePayee(id, userID int) error {
	result, err := db.conn.Exec(`DELETE FROM payees WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete payee: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("payee not found: %d", id)
	}
	return nil
}
