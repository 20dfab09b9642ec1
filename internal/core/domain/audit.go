package domain

import "time"

// AuditAction names a privileged mutation recorded in the audit log.
type AuditAction string

const (
	ActionAdjustBalance    AuditAction = "adjust_balance"
	ActionFreezeSpending   AuditAction = "freeze_spending"
	ActionUnfreezeSpending AuditAction = "unfreeze_spending"
	ActionApproveTask      AuditAction = "approve_task"
	ActionOpenSession      AuditAction = "open_session"
)

// AuditEntry is an immutable forensic record written alongside every
// privileged ledger/session mutation, in the same database transaction.
// Business logic never reads these back.
type AuditEntry struct {
	AuditID   string         `json:"auditID"`
	ActorID   string         `json:"actorID"`
	AccountID string         `json:"accountID"`
	Action    AuditAction    `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
