package domain

import "time"

// TaskStatus indicates whether a task is offered to the child.
type TaskStatus string

const (
	TaskActive   TaskStatus = "ACTIVE"
	TaskArchived TaskStatus = "ARCHIVED"
)

// TaskFrequency describes how often a task may be completed.
type TaskFrequency string

const (
	FrequencyDaily  TaskFrequency = "DAILY"
	FrequencyWeekly TaskFrequency = "WEEKLY"
	FrequencyOnce   TaskFrequency = "ONCE"
)

// Task is a chore definition created by a parent. Tasks are archived rather
// than deleted so historical completions keep a valid reference.
type Task struct {
	TaskID       string        `json:"taskID"`
	OwnerID      string        `json:"ownerID"`
	AccountID    string        `json:"accountID"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	RewardAmount int64         `json:"rewardAmount"`
	Frequency    TaskFrequency `json:"frequency"`
	Status       TaskStatus    `json:"status"`
	AuditFields
}

// CompletionStatus tracks the approval state machine of a submission.
// Transitions: PENDING -> APPROVED (credits the ledger) or
// PENDING -> REJECTED. Both end states are terminal.
type CompletionStatus string

const (
	CompletionPending  CompletionStatus = "PENDING"
	CompletionApproved CompletionStatus = "APPROVED"
	CompletionRejected CompletionStatus = "REJECTED"
)

// TaskCompletion is one submission of a task by the child.
type TaskCompletion struct {
	CompletionID string           `json:"completionID"`
	TaskID       string           `json:"taskID"`
	AccountID    string           `json:"accountID"`
	Status       CompletionStatus `json:"status"`
	SubmittedAt  time.Time        `json:"submittedAt"`
	ReviewedAt   *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy   string           `json:"reviewedBy,omitempty"`
}
