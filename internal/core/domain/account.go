package domain

// ChildAccount represents a child's Time Bucks account within the ledger.
// The balance is an integer number of Time Bucks and must never go negative.
// Accounts are never deleted, only deactivated.
type ChildAccount struct {
	AccountID string `json:"accountID"`
	OwnerID   string `json:"ownerID"` // parent actor, immutable after creation
	Name      string `json:"name"`
	TimeBucks int64  `json:"timeBucks"`
	Frozen    bool   `json:"frozen"` // blocks all spend operations, not earns
	IsActive  bool   `json:"isActive"`
	AuditFields
}
