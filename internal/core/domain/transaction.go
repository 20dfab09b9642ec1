package domain

import "time"

// TransactionKind classifies a ledger transaction.
type TransactionKind string

const (
	KindEarned   TransactionKind = "EARNED"
	KindSpent    TransactionKind = "SPENT"
	KindAdjusted TransactionKind = "ADJUSTED"
)

// Transaction is an immutable ledger record. Amount is signed: negative for
// SPENT, positive for EARNED, either sign for ADJUSTED. The sum of all
// transactions for an account always equals its current balance.
type Transaction struct {
	TransactionID  string          `json:"transactionID"`
	AccountID      string          `json:"accountID"`
	ActorID        string          `json:"actorID"`
	Kind           TransactionKind `json:"kind"`
	Amount         int64           `json:"amount"`
	Notes          string          `json:"notes"`
	ReferenceID    string          `json:"referenceID,omitempty"` // session or completion id
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}
