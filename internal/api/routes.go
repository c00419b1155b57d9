package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Ledger operations
	api.HandleFunc("/transfers", handler.Transfer).Methods("POST")
	api.HandleFunc("/payments", handler.MakePayment).Methods("POST")
	api.HandleFunc("/accounts/{id}/buy", handler.Buy).Methods("POST")
	api.HandleFunc("/accounts/{id}/sell", handler.Sell).Methods("POST")

	// Ledger reads
	api.HandleFunc("/users/{id}/accounts", handler.GetAccounts).Methods("GET")
	api.HandleFunc("/accounts/{id}", handler.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{id}/investments", handler.GetInvestments).Methods("GET")
	api.HandleFunc("/accounts/{id}/transactions", handler.GetTransactions).Methods("GET")

	// Payees
	api.HandleFunc("/payees", handler.GetPayees).Methods("GET")
	api.HandleFunc("/payees", handler.CreatePayee).Methods("POST")
	api.HandleFunc("/payees/{id}", handler.UpdatePayee).Methods("PUT")
	api.HandleFunc("/payees/{id}", handler.DeletePayee).Methods("DELETE")

	// Quotes
	api.HandleFunc("/quotes/{symbol}", handler.GetQuote).Methods("GET")

	return r
}
