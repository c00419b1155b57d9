package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealthdesk/ledger/internal/models"
)

func TestTransactionsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("InsertTransaction appends log entry", func(t *testing.T) {
		testDB.TruncateAll(t)
		user := testDB.createTestUser(t, "alice")
		from := testDB.createTestAccount(t, user.ID, "1000.00")
		to := testDB.createTestAccount(t, user.ID, "0.00")

		txn := &models.Transaction{
			FromAccountID: &from.ID,
			ToAccountID:   &to.ID,
			Amount:        decimal.RequireFromString("300.00"),
			Type:          models.TransactionTypeTransfer,
			Status:        models.StatusCompleted,
			Description:   "test transfer",
		}
		err := InsertTransaction(testDB.Conn(), txn)
		require.NoError(t, err)
		assert.NotZero(t, txn.ID)
		assert.False(t, txn.CreatedAt.IsZero())

		retrieved, err := testDB.GetTransaction(txn.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.FromAccountID)
		require.NotNil(t, retrieved.ToAccountID)
		assert.Equal(t, from.ID, *retrieved.FromAccountID)
		assert.Equal(t, to.ID, *retrieved.ToAccountID)
		assert.True(t, decimal.RequireFromString("300.00").Equal(retrieved.Amount))
	})

	t.Run("InsertTransaction requires at least one endpoint", func(t *testing.T) {
		testDB.TruncateAll(t)

		txn := &models.Transaction{
			Amount: decimal.RequireFromString("10.00"),
			Type:   models.TransactionTypeTransfer,
			Status: models.StatusCompleted,
		}
		err := InsertTransaction(testDB.Conn(), txn)
		require.Error(t, err)
	})

	t.Run("GetTransactionsByAccount sees both directions", func(t *testing.T) {
		testDB.TruncateAll(t)
		user := testDB.createTestUser(t, "alice")
		a := testDB.createTestAccount(t, user.ID, "1000.00")
		b := testDB.createTestAccount(t, user.ID, "1000.00")

		out := &models.Transaction{
			FromAccountID: &a.ID,
			ToAccountID:   &b.ID,
			Amount:        decimal.RequireFromString("10.00"),
			Type:          models.TransactionTypeTransfer,
			Status:        models.StatusCompleted,
		}
		require.NoError(t, InsertTransaction(testDB.Conn(), out))

		in := &models.Transaction{
			ToAccountID: &a.ID,
			Amount:      decimal.RequireFromString("25.00"),
			Type:        models.TransactionTypeSell,
			Status:      models.StatusCompleted,
		}
		require.NoError(t, InsertTransaction(testDB.Conn(), in))

		transactions, err := testDB.GetTransactionsByAccount(a.ID, 50)
		require.NoError(t, err)
		assert.Len(t, transactions, 2)
	})

	t.Run("CompleteMaturedTransfers settles old pending transfers and credits destination", func(t *testing.T) {
		testDB.TruncateAll(t)
		alice := testDB.createTestUser(t, "alice")
		bob := testDB.createTestUser(t, "bob")
		from := testDB.createTestAccount(t, alice.ID, "700.00")
		to := testDB.createTestAccount(t, bob.ID, "0.00")

		txn := &models.Transaction{
			FromAccountID: &from.ID,
			ToAccountID:   &to.ID,
			Amount:        decimal.RequireFromString("300.00"),
			Type:          models.TransactionTypeTransfer,
			Status:        models.StatusPending,
		}
		require.NoError(t, InsertTransaction(testDB.Conn(), txn))

		// Backdate the transfer past the maturation delay.
		_, err := testDB.GetRawConn().Exec(
			`UPDATE transactions SET created_at = NOW() - INTERVAL '20 minutes' WHERE id = $1`, txn.ID)
		require.NoError(t, err)

		settled, err := testDB.CompleteMaturedTransfers(context.Background(), time.Now().Add(-15*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, []int{txn.ID}, settled)

		completed, err := testDB.GetTransaction(txn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, completed.Status)

		dest, err := testDB.GetAccount(to.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("300.00").Equal(dest.Balance))
	})

	t.Run("CompleteMaturedTransfers skips transfers younger than cutoff", func(t *testing.T) {
		testDB.TruncateAll(t)
		alice := testDB.createTestUser(t, "alice")
		bob := testDB.createTestUser(t, "bob")
		from := testDB.createTestAccount(t, alice.ID, "700.00")
		to := testDB.createTestAccount(t, bob.ID, "0.00")

		txn := &models.Transaction{
			FromAccountID: &from.ID,
			ToAccountID:   &to.ID,
			Amount:        decimal.RequireFromString("50.00"),
			Type:          models.TransactionTypeTransfer,
			Status:        models.StatusPending,
		}
		require.NoError(t, InsertTransaction(testDB.Conn(), txn))

		settled, err := testDB.CompleteMaturedTransfers(context.Background(), time.Now().Add(-15*time.Minute))
		require.NoError(t, err)
		assert.Empty(t, settled)

		pending, err := testDB.GetTransaction(txn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, pending.Status)
	})

	t.Run("CompleteMaturedTransfers is idempotent", func(t *testing.T) {
		testDB.TruncateAll(t)
		alice := testDB.createTestUser(t, "alice")
		bob := testDB.createTestUser(t, "bob")
		from := testDB.createTestAccount(t, alice.ID, "700.00")
		to := testDB.createTestAccount(t, bob.ID, "0.00")

		txn := &models.Transaction{
			FromAccountID: &from.ID,
			ToAccountID:   &to.ID,
			Amount:        decimal.RequireFromString("300.00"),
			Type:          models.TransactionTypeTransfer,
			Status:        models.StatusPending,
		}
		require.NoError(t, InsertTransaction(testDB.Conn(), txn))
		_, err := testDB.GetRawConn().Exec(
			`UPDATE transactions SET created_at = NOW() - INTERVAL '20 minutes' WHERE id = $1`, txn.ID)
		require.NoError(t, err)

		cutoff := time.Now().Add(-15 * time.Minute)
		first, err := testDB.CompleteMaturedTransfers(context.Background(), cutoff)
		require.NoError(t, err)
		assert.Len(t, first, 1)

		second, err := testDB.CompleteMaturedTransfers(context.Background(), cutoff)
		require.NoError(t, err)
		assert.Empty(t, second)

		// Destination credited exactly once.
		dest, err := testDB.GetAccount(to.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("300.00").Equal(dest.Balance))
	})

	t.Run("CompleteMaturedTransfers tolerates externally routed destination", func(t *testing.T) {
		testDB.TruncateAll(t)
		alice := testDB.createTestUser(t, "alice")
		from := testDB.createTestAccount(t, alice.ID, "700.00")
		external := 424242

		txn := &models.Transaction{
			FromAccountID: &from.ID,
			ToAccountID:   &external,
			Amount:        decimal.RequireFromString("100.00"),
			Type:          models.TransactionTypeTransfer,
			Status:        models.StatusPending,
		}
		require.NoError(t, InsertTransaction(testDB.Conn(), txn))
		_, err := testDB.GetRawConn().Exec(
			`UPDATE transactions SET created_at = NOW() - INTERVAL '20 minutes' WHERE id = $1`, txn.ID)
		require.NoError(t, err)

		settled, err := testDB.CompleteMaturedTransfers(context.Background(), time.Now().Add(-15*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, []int{txn.ID}, settled)

		completed, err := testDB.GetTransaction(txn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, completed.Status)
	})
}
