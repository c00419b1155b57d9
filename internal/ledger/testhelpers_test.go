package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wealthdesk/ledger/internal/database"
	"github.com/wealthdesk/ledger/internal/models"
)

// setupTestDB starts a postgres container, connects and migrates.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := database.New(connStr)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()
	for _, table := range []string{"payees", "investments", "transactions", "accounts", "users"} {
		if _, err := db.Conn().Exec("TRUNCATE TABLE " + table + " CASCADE"); err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}

func createUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, FullName: username + " Test"}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func createAccount(t *testing.T, db *database.DB, userID int, balance string) *models.Account {
	t.Helper()
	a := &models.Account{
		UserID:      userID,
		AccountType: models.AccountTypeCash,
		Balance:     decimal.RequireFromString(balance),
	}
	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return a
}

// captureNotifier records notifications for assertions
type captureNotifier struct {
	ch chan models.TransferNotification
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{ch: make(chan models.TransferNotification, 8)}
}

func (n *captureNotifier) NotifyTransfer(ctx context.Context, notification models.TransferNotification) error {
	n.ch <- notification
	return nil
}

func (n *captureNotifier) wait(t *testing.T) models.TransferNotification {
	t.Helper()
	select {
	case notification := <-n.ch:
		return notification
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transfer notification")
		return models.TransferNotification{}
	}
}
