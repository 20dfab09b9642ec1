package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portsrepo "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTaskRepository struct {
	BaseRepository
}

func newPgxTaskRepository(db *pgxpool.Pool) portsrepo.TaskRepository {
	return &PgxTaskRepository{BaseRepository{Pool: db}}
}

// Ensure PgxTaskRepository implements portsrepo.TaskRepository
var _ portsrepo.TaskRepository = (*PgxTaskRepository)(nil)

const taskColumns = `task_id, owner_id, account_id, title, description, reward_amount, frequency, status, created_at, created_by, last_updated_at, last_updated_by`

const completionColumns = `completion_id, task_id, account_id, status, submitted_at, reviewed_at, COALESCE(reviewed_by, '')`

func (r *PgxTaskRepository) SaveTask(ctx context.Context, task domain.Task) error {
	query := `
        INSERT INTO tasks (` + taskColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
    `
	_, err := r.Pool.Exec(ctx, query,
		task.TaskID,
		task.OwnerID,
		task.AccountID,
		task.Title,
		task.Description,
		task.RewardAmount,
		task.Frequency,
		task.Status,
		task.CreatedAt,
		task.CreatedBy,
		task.LastUpdatedAt,
		task.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (r *PgxTaskRepository) FindTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE task_id = $1;
	`
	var task domain.Task
	err := r.Pool.QueryRow(ctx, query, taskID).Scan(
		&task.TaskID,
		&task.OwnerID,
		&task.AccountID,
		&task.Title,
		&task.Description,
		&task.RewardAmount,
		&task.Frequency,
		&task.Status,
		&task.CreatedAt,
		&task.CreatedBy,
		&task.LastUpdatedAt,
		&task.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task %s: %w", taskID, err)
	}
	return &task, nil
}

func (r *PgxTaskRepository) ListTasksByAccount(ctx context.Context, accountID string, includeArchived bool) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE account_id = $1 AND ($2 OR status = $3)
		ORDER BY created_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, includeArchived, domain.TaskActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks for account %s: %w", accountID, err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var task domain.Task
		err := rows.Scan(
			&task.TaskID,
			&task.OwnerID,
			&task.AccountID,
			&task.Title,
			&task.Description,
			&task.RewardAmount,
			&task.Frequency,
			&task.Status,
			&task.CreatedAt,
			&task.CreatedBy,
			&task.LastUpdatedAt,
			&task.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

func (r *PgxTaskRepository) ArchiveTask(ctx context.Context, taskID string, actorID string, now time.Time) error {
	query := `
		UPDATE tasks
		SET status = $1,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE task_id = $4;
	`
	tag, err := r.Pool.Exec(ctx, query, domain.TaskArchived, now, actorID, taskID)
	if err != nil {
		return fmt.Errorf("failed to archive task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxTaskRepository) SaveCompletion(ctx context.Context, completion domain.TaskCompletion) error {
	query := `
        INSERT INTO task_completions (completion_id, task_id, account_id, status, submitted_at, reviewed_at, reviewed_by)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''));
    `
	_, err := r.Pool.Exec(ctx, query,
		completion.CompletionID,
		completion.TaskID,
		completion.AccountID,
		completion.Status,
		completion.SubmittedAt,
		completion.ReviewedAt,
		completion.ReviewedBy,
	)
	if err != nil {
		// The partial unique index on (task_id) WHERE status = 'PENDING'
		// guards against two concurrent submissions of the same task.
		if isUniqueViolation(err, "") {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save completion: %w", err)
	}
	return nil
}

func (r *PgxTaskRepository) FindCompletionByID(ctx context.Context, completionID string) (*domain.TaskCompletion, error) {
	query := `
		SELECT ` + completionColumns + `
		FROM task_completions
		WHERE completion_id = $1;
	`
	return r.scanCompletion(r.Pool.QueryRow(ctx, query, completionID))
}

func (r *PgxTaskRepository) FindPendingCompletionByTask(ctx context.Context, taskID string) (*domain.TaskCompletion, error) {
	query := `
		SELECT ` + completionColumns + `
		FROM task_completions
		WHERE task_id = $1 AND status = $2;
	`
	return r.scanCompletion(r.Pool.QueryRow(ctx, query, taskID, domain.CompletionPending))
}

func (r *PgxTaskRepository) ListPendingCompletionsByOwner(ctx context.Context, ownerID string) ([]domain.TaskCompletion, error) {
	query := `
		SELECT c.completion_id, c.task_id, c.account_id, c.status, c.submitted_at, c.reviewed_at, COALESCE(c.reviewed_by, '')
		FROM task_completions c
		JOIN tasks t ON t.task_id = c.task_id
		WHERE t.owner_id = $1 AND c.status = $2
		ORDER BY c.submitted_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, ownerID, domain.CompletionPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending completions for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	completions := []domain.TaskCompletion{}
	for rows.Next() {
		var completion domain.TaskCompletion
		err := rows.Scan(
			&completion.CompletionID,
			&completion.TaskID,
			&completion.AccountID,
			&completion.Status,
			&completion.SubmittedAt,
			&completion.ReviewedAt,
			&completion.ReviewedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion row: %w", err)
		}
		completions = append(completions, completion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completion rows: %w", err)
	}
	return completions, nil
}

func (r *PgxTaskRepository) ApproveCompletionAndCredit(ctx context.Context, completionID string, reviewerID string, txn domain.Transaction, audit domain.AuditEntry, now time.Time) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	if err := r.reviewCompletionTx(ctx, tx, completionID, domain.CompletionApproved, reviewerID, now); err != nil {
		return 0, err
	}

	newBalance, err := applyTransactionTx(ctx, tx, txn)
	if err != nil {
		return 0, err
	}
	if err := insertAuditTx(ctx, tx, audit); err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (r *PgxTaskRepository) RejectCompletion(ctx context.Context, completionID string, reviewerID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.reviewCompletionTx(ctx, tx, completionID, domain.CompletionRejected, reviewerID, now); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// reviewCompletionTx flips a pending completion to a terminal status. The
// status guard in the WHERE clause makes concurrent double-reviews lose
// cleanly with ErrInvalidState.
func (r *PgxTaskRepository) reviewCompletionTx(ctx context.Context, tx pgx.Tx, completionID string, status domain.CompletionStatus, reviewerID string, now time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE task_completions
		SET status = $1,
		    reviewed_at = $2,
		    reviewed_by = $3
		WHERE completion_id = $4 AND status = $5;
	`, status, now, reviewerID, completionID, domain.CompletionPending)
	if err != nil {
		return fmt.Errorf("failed to review completion %s: %w", completionID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM task_completions WHERE completion_id = $1);`, completionID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check completion %s: %w", completionID, err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return apperrors.ErrInvalidState
	}
	return nil
}

func (r *PgxTaskRepository) scanCompletion(row pgx.Row) (*domain.TaskCompletion, error) {
	var completion domain.TaskCompletion
	err := row.Scan(
		&completion.CompletionID,
		&completion.TaskID,
		&completion.AccountID,
		&completion.Status,
		&completion.SubmittedAt,
		&completion.ReviewedAt,
		&completion.ReviewedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan completion: %w", err)
	}
	return &completion, nil
}
