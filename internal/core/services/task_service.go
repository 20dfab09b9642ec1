package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portsrepo "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/repositories"
	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/middleware"
)

// taskService implements the task and approval workflow. The approval credit
// is delegated to the repository so the status flip and the ledger earn are
// one database transaction.
type taskService struct {
	taskRepo    portsrepo.TaskRepository
	accountRepo portsrepo.ChildAccountRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo portsrepo.TaskRepository, accountRepo portsrepo.ChildAccountRepository) portssvc.TaskSvcFacade {
	return &taskService{taskRepo: taskRepo, accountRepo: accountRepo}
}

var _ portssvc.TaskSvcFacade = (*taskService)(nil)

// CreateTask defines a new chore for one of the actor's children.
func (s *taskService) CreateTask(ctx context.Context, actor domain.Actor, req dto.CreateTaskRequest) (*domain.Task, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := authorizeAccountOwner(ctx, s.accountRepo, actor, req.AccountID); err != nil {
		return nil, err
	}

	frequency := domain.TaskFrequency(req.Frequency)
	if frequency == "" {
		frequency = domain.FrequencyDaily
	}

	now := time.Now().UTC()
	task := domain.Task{
		TaskID:       uuid.NewString(),
		OwnerID:      actor.ID,
		AccountID:    req.AccountID,
		Title:        req.Title,
		Description:  req.Description,
		RewardAmount: req.RewardAmount,
		Frequency:    frequency,
		Status:       domain.TaskActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
		},
	}

	if err := s.taskRepo.SaveTask(ctx, task); err != nil {
		logger.Error("Failed to save task", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Task created", slog.String("task_id", task.TaskID), slog.Int64("reward", task.RewardAmount))
	return &task, nil
}

// ArchiveTask retires a task. Existing completions keep their reference.
func (s *taskService) ArchiveTask(ctx context.Context, actor domain.Actor, taskID string) error {
	task, err := s.taskRepo.FindTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	if !actor.IsParent() || task.OwnerID != actor.ID {
		return fmt.Errorf("%w: you do not own this task", apperrors.ErrForbidden)
	}
	return s.taskRepo.ArchiveTask(ctx, taskID, actor.ID, time.Now().UTC())
}

// ListTasks lists active tasks for an account readable by the actor.
func (s *taskService) ListTasks(ctx context.Context, actor domain.Actor, accountID string) ([]domain.Task, error) {
	if _, err := authorizeAccountRead(ctx, s.accountRepo, actor, accountID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListTasksByAccount(ctx, accountID, actor.IsParent())
}

// Submit creates a pending completion. A task can be resubmitted only after
// its latest completion leaves the pending state.
func (s *taskService) Submit(ctx context.Context, actor domain.Actor, taskID string) (*domain.TaskCompletion, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	task, err := s.taskRepo.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.TaskActive {
		// Archived tasks are invisible to the child.
		return nil, fmt.Errorf("%w: task is not active", apperrors.ErrNotFound)
	}
	if actor.ID != task.AccountID {
		return nil, fmt.Errorf("%w: task belongs to another child", apperrors.ErrForbidden)
	}

	if _, err := s.taskRepo.FindPendingCompletionByTask(ctx, taskID); err == nil {
		return nil, fmt.Errorf("%w: a submission is already awaiting review", apperrors.ErrInvalidState)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	completion := domain.TaskCompletion{
		CompletionID: uuid.NewString(),
		TaskID:       taskID,
		AccountID:    task.AccountID,
		Status:       domain.CompletionPending,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.taskRepo.SaveCompletion(ctx, completion); err != nil {
		// A concurrent submit can win the race past the check above; the
		// partial unique index reports it as a duplicate.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: a submission is already awaiting review", apperrors.ErrInvalidState)
		}
		logger.Error("Failed to save completion", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Task completion submitted", slog.String("completion_id", completion.CompletionID))
	return &completion, nil
}

// Approve transitions pending -> approved and credits the reward. The flip
// and the credit are one atomic unit: if the credit fails the approval is
// rolled back.
func (s *taskService) Approve(ctx context.Context, actor domain.Actor, completionID string) (*domain.TaskCompletion, int64, int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	completion, task, err := s.loadForReview(ctx, actor, completionID)
	if err != nil {
		return nil, 0, 0, err
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     completion.AccountID,
		ActorID:       actor.ID,
		Kind:          domain.KindEarned,
		Amount:        task.RewardAmount,
		Notes:         fmt.Sprintf("Task approved: %s", task.Title),
		ReferenceID:   completionID,
		CreatedAt:     now,
	}
	audit := domain.AuditEntry{
		AuditID:   uuid.NewString(),
		ActorID:   actor.ID,
		AccountID: completion.AccountID,
		Action:    domain.ActionApproveTask,
		Metadata: map[string]any{
			"task_completion_id": completionID,
			"task_id":            task.TaskID,
			"reward_amount":      task.RewardAmount,
		},
		CreatedAt: now,
	}

	newBalance, err := s.taskRepo.ApproveCompletionAndCredit(ctx, completionID, actor.ID, txn, audit, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) {
			return nil, 0, 0, fmt.Errorf("%w: completion is not pending", apperrors.ErrInvalidState)
		}
		logger.Error("Failed to approve completion", slog.String("error", err.Error()))
		return nil, 0, 0, err
	}

	completion.Status = domain.CompletionApproved
	completion.ReviewedAt = &now
	completion.ReviewedBy = actor.ID

	logger.Info("Task completion approved",
		slog.String("completion_id", completionID),
		slog.Int64("reward", task.RewardAmount),
		slog.Int64("new_balance", newBalance),
	)
	return completion, task.RewardAmount, newBalance, nil
}

// Reject transitions pending -> rejected. No ledger effect.
func (s *taskService) Reject(ctx context.Context, actor domain.Actor, completionID string) (*domain.TaskCompletion, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	completion, _, err := s.loadForReview(ctx, actor, completionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.taskRepo.RejectCompletion(ctx, completionID, actor.ID, now); err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) {
			return nil, fmt.Errorf("%w: completion is not pending", apperrors.ErrInvalidState)
		}
		logger.Error("Failed to reject completion", slog.String("error", err.Error()))
		return nil, err
	}

	completion.Status = domain.CompletionRejected
	completion.ReviewedAt = &now
	completion.ReviewedBy = actor.ID

	logger.Info("Task completion rejected", slog.String("completion_id", completionID))
	return completion, nil
}

// ListPendingApprovals returns the approval queue across all of the parent's
// children, oldest submission first.
func (s *taskService) ListPendingApprovals(ctx context.Context, actor domain.Actor) ([]domain.TaskCompletion, error) {
	if !actor.IsParent() {
		return nil, apperrors.ErrForbidden
	}
	return s.taskRepo.ListPendingCompletionsByOwner(ctx, actor.ID)
}

// loadForReview fetches the completion and its task, verifying the actor is
// the owning parent and the completion is still pending.
func (s *taskService) loadForReview(ctx context.Context, actor domain.Actor, completionID string) (*domain.TaskCompletion, *domain.Task, error) {
	completion, err := s.taskRepo.FindCompletionByID(ctx, completionID)
	if err != nil {
		return nil, nil, err
	}
	task, err := s.taskRepo.FindTaskByID(ctx, completion.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsParent() || task.OwnerID != actor.ID {
		return nil, nil, fmt.Errorf("%w: you do not own this child", apperrors.ErrForbidden)
	}
	if completion.Status != domain.CompletionPending {
		return nil, nil, fmt.Errorf("%w: completion is not pending", apperrors.ErrInvalidState)
	}
	return completion, task, nil
}
