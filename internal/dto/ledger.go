package dto

import (
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// AdjustBalanceRequest is a parent-only manual correction. Amount may be
// negative but must not drive the balance below zero.
type AdjustBalanceRequest struct {
	Amount         int64  `json:"amount" binding:"required"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// AdjustBalanceResponse returns the applied transaction and resulting balance.
type AdjustBalanceResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	NewBalance  int64               `json:"newBalance"`
}

// ToggleFreezeRequest flips the per-account spend freeze.
// Frozen is a pointer so "false" is distinguishable from "absent".
type ToggleFreezeRequest struct {
	Frozen *bool `json:"frozen" binding:"required"`
}

// TransactionResponse mirrors domain.Transaction.
type TransactionResponse struct {
	TransactionID string    `json:"transactionID"`
	AccountID     string    `json:"accountID"`
	ActorID       string    `json:"actorID"`
	Kind          string    `json:"kind"`
	Amount        int64     `json:"amount"`
	Notes         string    `json:"notes,omitempty"`
	ReferenceID   string    `json:"referenceID,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		AccountID:     txn.AccountID,
		ActorID:       txn.ActorID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount,
		Notes:         txn.Notes,
		ReferenceID:   txn.ReferenceID,
		CreatedAt:     txn.CreatedAt,
	}
}

// ListTransactionsResponse wraps the transaction log page.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// ToListTransactionsResponse converts a page of transactions.
func ToListTransactionsResponse(txns []domain.Transaction) ListTransactionsResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return ListTransactionsResponse{Transactions: res}
}

// AuditEntryResponse mirrors domain.AuditEntry for forensic review.
type AuditEntryResponse struct {
	AuditID   string         `json:"auditID"`
	ActorID   string         `json:"actorID"`
	AccountID string         `json:"accountID"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ToListAuditResponse converts audit entries.
func ToListAuditResponse(entries []domain.AuditEntry) []AuditEntryResponse {
	res := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = AuditEntryResponse{
			AuditID:   e.AuditID,
			ActorID:   e.ActorID,
			AccountID: e.AccountID,
			Action:    string(e.Action),
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		}
	}
	return res
}

// ListParams defines shared limit/offset query parameters.
type ListParams struct {
	Limit  int `form:"limit,default=20" binding:"max=100"`
	Offset int `form:"offset,default=0"`
}
