package repositories

import (
	"context"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// TaskReader defines read operations for tasks and completions.
type TaskReader interface {
	FindTaskByID(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasksByAccount(ctx context.Context, accountID string, includeArchived bool) ([]domain.Task, error)
	FindCompletionByID(ctx context.Context, completionID string) (*domain.TaskCompletion, error)

	// FindPendingCompletionByTask returns the pending completion for a task
	// if one exists, or apperrors.ErrNotFound.
	FindPendingCompletionByTask(ctx context.Context, taskID string) (*domain.TaskCompletion, error)

	// ListPendingCompletionsByOwner returns the approval queue for a parent,
	// oldest submission first.
	ListPendingCompletionsByOwner(ctx context.Context, ownerID string) ([]domain.TaskCompletion, error)
}

// TaskWriter defines write operations for tasks and completions.
type TaskWriter interface {
	SaveTask(ctx context.Context, task domain.Task) error
	ArchiveTask(ctx context.Context, taskID string, actorID string, now time.Time) error
	SaveCompletion(ctx context.Context, completion domain.TaskCompletion) error

	// ApproveCompletionAndCredit flips the completion to APPROVED, applies
	// the earn transaction and writes the audit entry, all in one database
	// transaction. If any write fails the status flip is rolled back.
	// Fails with ErrInvalidState if the completion is no longer pending.
	ApproveCompletionAndCredit(ctx context.Context, completionID string, reviewerID string, txn domain.Transaction, audit domain.AuditEntry, now time.Time) (int64, error)

	// RejectCompletion flips the completion to REJECTED. Fails with
	// ErrInvalidState if the completion is no longer pending.
	RejectCompletion(ctx context.Context, completionID string, reviewerID string, now time.Time) error
}

// TaskRepository combines all task repository operations.
type TaskRepository interface {
	TaskReader
	TaskWriter
}
