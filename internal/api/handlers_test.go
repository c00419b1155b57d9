package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealthdesk/ledger/internal/ledger"
	"github.com/wealthdesk/ledger/internal/pricing"
)

func newTestRouter() http.Handler {
	// No database behind these tests: only request validation and
	// oracle-backed endpoints are exercised.
	handler := NewHandler(ledger.NewEngine(nil, nil), nil, pricing.NewOracle())
	return SetupRoutes(handler)
}

func TestTransferValidation(t *testing.T) {
	router := newTestRouter()

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/transfers", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects non-decimal amount", func(t *testing.T) {
		body := `{"from_account_id":1,"to_account_id":2,"amount":"lots"}`
		req := httptest.NewRequest("POST", "/api/v1/transfers", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTradeValidation(t *testing.T) {
	router := newTestRouter()

	t.Run("buy rejects missing symbol", func(t *testing.T) {
		body := `{"amount":"100.00"}`
		req := httptest.NewRequest("POST", "/api/v1/accounts/1/buy", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("buy rejects bad account id", func(t *testing.T) {
		body := `{"symbol":"AAPL","amount":"100.00"}`
		req := httptest.NewRequest("POST", "/api/v1/accounts/abc/buy", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sell rejects non-decimal shares", func(t *testing.T) {
		body := `{"symbol":"AAPL","shares":"five"}`
		req := httptest.NewRequest("POST", "/api/v1/accounts/1/sell", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEngineErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"account not found", ledger.ErrAccountNotFound, http.StatusNotFound},
		{"insufficient funds", ledger.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"insufficient shares", ledger.ErrInsufficientShares, http.StatusUnprocessableEntity},
		{"unauthorized account", ledger.ErrUnauthorizedAccount, http.StatusForbidden},
		{"invalid amount", ledger.ErrInvalidAmount, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondEngineError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestGetQuote(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/quotes/AAPL", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var quote pricing.Quote
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.True(t, quote.Price.IsPositive())
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
