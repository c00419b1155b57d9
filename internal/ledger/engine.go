package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wealthdesk/ledger/internal/database"
	"github.com/wealthdesk/ledger/internal/models"
)

// dustThreshold is the share remainder below which a position is
// considered closed and its row deleted.
var dustThreshold = decimal.RequireFromString("0.0001")

// Notifier delivers best-effort transfer alerts. Errors are logged and
// never propagated to the caller.
type Notifier interface {
	NotifyTransfer(ctx context.Context, n models.TransferNotification) error
}

// Engine executes the money-moving operations. Each operation runs as a
// single database transaction: all preconditions are checked against
// row-locked state, and any failure rolls back every write.
type Engine struct {
	db       *database.DB
	notifier Notifier
}

// NewEngine creates a ledger engine. notifier may be nil, in which case
// cross-owner transfer alerts are skipped.
func NewEngine(db *database.DB, notifier Notifier) *Engine {
	return &Engine{db: db, notifier: notifier}
}

// TransferFunds moves amount from one account to another.
//
// Same-owner transfers credit the destination immediately and commit as
// completed. Transfers to another owner's account (or to an externally
// routed id with no local row) commit as pending with only the debit
// applied; the settlement scheduler credits and completes them later.
// fromAccountID == models.ExternalAccountID records an external deposit:
// no debit, immediate credit, completed. toAccountID ==
// models.ExternalAccountID records a withdrawal: debit only, completed.
//
// actorUserID > 0 enables ownership re-validation of the debited
// account; pass 0 for trusted internal callers.
func (e *Engine) TransferFunds(ctx context.Context, actorUserID, fromAccountID, toAccountID int, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	if fromAccountID == models.ExternalAccountID {
		return e.externalDeposit(ctx, toAccountID, amount)
	}

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	from, to, err := lockTransferAccounts(tx, fromAccountID, toAccountID)
	if err != nil {
		return nil, err
	}

	if actorUserID > 0 && from.UserID != actorUserID {
		return nil, ErrUnauthorizedAccount
	}
	if from.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	if err := database.UpdateAccountBalance(tx, from.ID, from.Balance.Sub(amount)); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		FromAccountID: &fromAccountID,
		Amount:        amount,
		Type:          models.TransactionTypeTransfer,
		IsDemo:        from.IsDemo,
	}

	switch {
	case toAccountID == models.ExternalAccountID:
		txn.Type = models.TransactionTypeWithdrawal
		txn.Status = models.StatusCompleted
		txn.Description = fmt.Sprintf("Withdrawal from account %d", fromAccountID)
	case to != nil && to.UserID == from.UserID:
		destBalance := to.Balance
		if to.ID == from.ID {
			// Self-transfer: the debit above already moved the balance.
			destBalance = from.Balance.Sub(amount)
		}
		if err := database.UpdateAccountBalance(tx, to.ID, destBalance.Add(amount)); err != nil {
			return nil, err
		}
		txn.ToAccountID = &toAccountID
		txn.Status = models.StatusCompleted
		txn.Description = fmt.Sprintf("Transfer to account %d", toAccountID)
	default:
		// Cross-owner or externally routed: debit now, credit at
		// settlement. The funds are in flight until the sweep runs.
		txn.ToAccountID = &toAccountID
		txn.Status = models.StatusPending
		txn.Description = fmt.Sprintf("Transfer to account %d", toAccountID)
	}

	if err := database.InsertTransaction(tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	if txn.Status == models.StatusPending {
		e.notifyTransfer(txn, from)
	}

	return txn, nil
}

// externalDeposit credits funds arriving from outside the system. The
// sentinel source has no row, so there is nothing to debit or check.
func (e *Engine) externalDeposit(ctx context.Context, toAccountID int, amount decimal.Decimal) (*models.Transaction, error) {
	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	to, err := database.GetAccountForUpdate(tx, toAccountID)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if err := database.UpdateAccountBalance(tx, to.ID, to.Balance.Add(amount)); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ToAccountID: &toAccountID,
		Amount:      amount,
		Type:        models.TransactionTypeTransfer,
		Status:      models.StatusCompleted,
		Description: fmt.Sprintf("External deposit to account %d", toAccountID),
		IsDemo:      to.IsDemo,
	}
	if err := database.InsertTransaction(tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deposit: %w", err)
	}
	return txn, nil
}

// lockTransferAccounts locks the source and (when it exists) the
// destination row. Locks are taken in ascending id order so two
// opposite transfers between the same pair cannot deadlock.
func lockTransferAccounts(tx *sql.Tx, fromID, toID int) (from, to *models.Account, err error) {
	lock := func(id int) (*models.Account, error) {
		a, err := database.GetAccountForUpdate(tx, id)
		if err != nil && !errors.Is(err, database.ErrAccountNotFound) {
			return nil, err
		}
		return a, nil
	}

	if toID != models.ExternalAccountID && toID < fromID {
		if to, err = lock(toID); err != nil {
			return nil, nil, err
		}
	}
	from, err = database.GetAccountForUpdate(tx, fromID)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}
	if toID == fromID {
		return from, from, nil
	}
	if toID != models.ExternalAccountID && toID > fromID {
		if to, err = lock(toID); err != nil {
			return nil, nil, err
		}
	}
	return from, to, nil
}

// BuyAsset debits amount from the account and adds the purchased shares
// to its position in symbol, merging repeated buys via weighted-average
// cost basis. Shares are rounded to 4 decimal places before persistence
// so repeated buys do not accumulate drift.
func (e *Engine) BuyAsset(ctx context.Context, actorUserID, accountID int, symbol string, amount decimal.Decimal, price decimal.Decimal) (*models.Investment, error) {
	if !amount.IsPositive() || !price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	account, err := database.GetAccountForUpdate(tx, accountID)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if actorUserID > 0 && account.UserID != actorUserID {
		return nil, ErrUnauthorizedAccount
	}
	if account.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	if err := database.UpdateAccountBalance(tx, account.ID, account.Balance.Sub(amount)); err != nil {
		return nil, err
	}

	shares := amount.DivRound(price, 4)

	inv, err := database.GetInvestmentForUpdate(tx, accountID, symbol)
	switch {
	case err == nil:
		// Share-weighted average of old and new cost.
		newShares := inv.Shares.Add(shares)
		oldCost := inv.Shares.Mul(inv.PurchasePrice)
		newCost := shares.Mul(price)
		inv.PurchasePrice = oldCost.Add(newCost).DivRound(newShares, 4)
		inv.Shares = newShares
		inv.CurrentPrice = price
		if err := database.UpdateInvestment(tx, inv); err != nil {
			return nil, err
		}
	case errors.Is(err, database.ErrInvestmentNotFound):
		inv = &models.Investment{
			AccountID:     accountID,
			Symbol:        symbol,
			Shares:        shares,
			PurchasePrice: price,
			CurrentPrice:  price,
		}
		if err := database.InsertInvestment(tx, inv); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	txn := &models.Transaction{
		FromAccountID: &accountID,
		Amount:        amount,
		Type:          models.TransactionTypeBuy,
		Status:        models.StatusCompleted,
		Description:   fmt.Sprintf("Bought %s shares of %s", shares.StringFixed(4), symbol),
		IsDemo:        account.IsDemo,
	}
	if err := database.InsertTransaction(tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit buy: %w", err)
	}
	return inv, nil
}

// SellAsset reduces the account's position in symbol and credits the
// proceeds. When the remaining shares fall to the dust threshold or
// below, the position row is deleted and a zero-share snapshot of the
// closed position is returned.
func (e *Engine) SellAsset(ctx context.Context, actorUserID, accountID int, symbol string, shares decimal.Decimal, price decimal.Decimal) (*models.Investment, error) {
	if !shares.IsPositive() || !price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	shares = shares.Round(4)

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	account, err := database.GetAccountForUpdate(tx, accountID)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if actorUserID > 0 && account.UserID != actorUserID {
		return nil, ErrUnauthorizedAccount
	}

	inv, err := database.GetInvestmentForUpdate(tx, accountID, symbol)
	if err != nil {
		if errors.Is(err, database.ErrInvestmentNotFound) {
			return nil, ErrInsufficientShares
		}
		return nil, err
	}
	if inv.Shares.LessThan(shares) {
		return nil, ErrInsufficientShares
	}

	amount := shares.Mul(price).Round(2)
	if err := database.UpdateAccountBalance(tx, account.ID, account.Balance.Add(amount)); err != nil {
		return nil, err
	}

	remaining := inv.Shares.Sub(shares)
	if remaining.LessThanOrEqual(dustThreshold) {
		if err := database.DeleteInvestment(tx, inv.ID); err != nil {
			return nil, err
		}
		inv.Shares = decimal.Zero
		inv.CurrentPrice = price
	} else {
		// Cost basis is unchanged by a sale.
		inv.Shares = remaining
		inv.CurrentPrice = price
		if err := database.UpdateInvestment(tx, inv); err != nil {
			return nil, err
		}
	}

	txn := &models.Transaction{
		ToAccountID: &accountID,
		Amount:      amount,
		Type:        models.TransactionTypeSell,
		Status:      models.StatusCompleted,
		Description: fmt.Sprintf("Sold %s shares of %s", shares.StringFixed(4), symbol),
		IsDemo:      account.IsDemo,
	}
	if err := database.InsertTransaction(tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sell: %w", err)
	}
	return inv, nil
}

// MakePayment debits an account toward one of the user's saved payees.
// Funds leave the system, so only the from side is recorded and the
// transaction commits as completed.
func (e *Engine) MakePayment(ctx context.Context, actorUserID, accountID int, payee *models.Payee, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	account, err := database.GetAccountForUpdate(tx, accountID)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if actorUserID > 0 && account.UserID != actorUserID {
		return nil, ErrUnauthorizedAccount
	}
	if account.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	if err := database.UpdateAccountBalance(tx, account.ID, account.Balance.Sub(amount)); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		FromAccountID: &accountID,
		Amount:        amount,
		Type:          models.TransactionTypePayment,
		Status:        models.StatusCompleted,
		Description:   fmt.Sprintf("Payment to %s", payee.Name),
		IsDemo:        account.IsDemo,
	}
	if err := database.InsertTransaction(tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return txn, nil
}

// notifyTransfer publishes a best-effort alert for a cross-owner
// transfer. Runs outside the committed transaction; failures are logged
// and never affect the transfer.
func (e *Engine) notifyTransfer(txn *models.Transaction, from *models.Account) {
	if e.notifier == nil {
		return
	}

	n := models.TransferNotification{
		EventID:       uuid.NewString(),
		EventType:     models.EventTypeTransferPending,
		TransactionID: txn.ID,
		Actor:         fmt.Sprintf("user %d", from.UserID),
		Amount:        txn.Amount,
		FromAccount:   fmt.Sprintf("account %d", from.ID),
		Timestamp:     time.Now(),
	}
	if txn.ToAccountID != nil {
		n.ToAccount = fmt.Sprintf("account %d", *txn.ToAccountID)
	}
	if user, err := e.db.GetUser(from.UserID); err == nil && user.FullName != "" {
		n.Actor = user.FullName
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.notifier.NotifyTransfer(ctx, n); err != nil {
			log.Printf("Failed to deliver transfer notification for transaction %d: %v", txn.ID, err)
		}
	}()
}

// Accounts returns all accounts owned by a user
func (e *Engine) Accounts(userID int) ([]*models.Account, error) {
	return e.db.GetAccountsByUser(userID)
}

// Account returns a single account by id
func (e *Engine) Account(id int) (*models.Account, error) {
	a, err := e.db.GetAccount(id)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// Investments returns all positions held by an account
func (e *Engine) Investments(accountID int) ([]*models.Investment, error) {
	return e.db.GetInvestmentsByAccount(accountID)
}
