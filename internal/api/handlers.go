package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/wealthdesk/ledger/internal/database"
	"github.com/wealthdesk/ledger/internal/ledger"
	"github.com/wealthdesk/ledger/internal/models"
	"github.com/wealthdesk/ledger/internal/pricing"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	engine *ledger.Engine
	db     *database.DB
	oracle *pricing.Oracle
}

// NewHandler creates a new Handler
func NewHandler(engine *ledger.Engine, db *database.DB, oracle *pricing.Oracle) *Handler {
	return &Handler{
		engine: engine,
		db:     db,
		oracle: oracle,
	}
}

// actorID resolves the authenticated user from the X-User-ID header set
// by the upstream gateway. 0 means no ownership re-validation.
func actorID(r *http.Request) int {
	id, _ := strconv.Atoi(r.Header.Get("X-User-ID"))
	return id
}

// Transfer handles POST /transfers
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAccountID int    `json:"from_account_id"`
		ToAccountID   int    `json:"to_account_id"`
		Amount        string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	txn, err := h.engine.TransferFunds(r.Context(), actorID(r), req.FromAccountID, req.ToAccountID, amount)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, txn)
}

// Buy handles POST /accounts/{id}/buy. When price is omitted the
// current oracle quote is used.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
		Amount string `json:"amount"`
		Price  string `json:"price,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	price, err := h.resolvePrice(req.Symbol, req.Price)
	if err != nil {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return
	}

	inv, err := h.engine.BuyAsset(r.Context(), actorID(r), accountID, req.Symbol, amount, price)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, inv)
}

// Sell handles POST /accounts/{id}/sell
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
		Shares string `json:"shares"`
		Price  string `json:"price,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	shares, err := decimal.NewFromString(req.Shares)
	if err != nil {
		http.Error(w, "invalid shares", http.StatusBadRequest)
		return
	}

	price, err := h.resolvePrice(req.Symbol, req.Price)
	if err != nil {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return
	}

	inv, err := h.engine.SellAsset(r.Context(), actorID(r), accountID, req.Symbol, shares, price)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inv)
}

func (h *Handler) resolvePrice(symbol, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return h.oracle.Quote(symbol).Price, nil
	}
	return decimal.NewFromString(raw)
}

// MakePayment handles POST /payments
func (h *Handler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID int    `json:"account_id"`
		PayeeID   int    `json:"payee_id"`
		Amount    string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	userID := actorID(r)
	payee, err := h.db.GetPayee(req.PayeeID, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	txn, err := h.engine.MakePayment(r.Context(), userID, req.AccountID, payee, amount)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, txn)
}

// GetAccounts handles GET /users/{id}/accounts
func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	accounts, err := h.engine.Accounts(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET /accounts/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	account, err := h.engine.Account(id)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// GetInvestments handles GET /accounts/{id}/investments
func (h *Handler) GetInvestments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	investments, err := h.engine.Investments(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, investments)
}

// GetTransactions handles GET /accounts/{id}/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	transactions, err := h.db.GetTransactionsByAccount(id, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, transactions)
}

// GetPayees handles GET /payees
func (h *Handler) GetPayees(w http.ResponseWriter, r *http.Request) {
	payees, err := h.db.GetPayeesByUser(actorID(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, payees)
}

// CreatePayee handles POST /payees
func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	var payee models.Payee
	if err := json.NewDecoder(r.Body).Decode(&payee); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if payee.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	payee.UserID = actorID(r)
	if err := h.db.CreatePayee(&payee); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, payee)
}

// UpdatePayee handles PUT /payees/{id}
func (h *Handler) UpdatePayee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid payee id", http.StatusBadRequest)
		return
	}

	var payee models.Payee
	if err := json.NewDecoder(r.Body).Decode(&payee); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	payee.ID = id
	payee.UserID = actorID(r)
	if err := h.db.UpdatePayee(&payee); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, payee)
}

// DeletePayee handles DELETE /payees/{id}
func (h *Handler) DeletePayee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid payee id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeletePayee(id, actorID(r)); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetQuote handles GET /quotes/{symbol}
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	respondJSON(w, http.StatusOK, h.oracle.Quote(vars["symbol"]))
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func pathID(r *http.Request, key string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[key])
}

func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrInsufficientShares):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrUnauthorizedAccount):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ledger.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
