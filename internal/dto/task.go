package dto

import (
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// CreateTaskRequest defines a new chore for a child.
type CreateTaskRequest struct {
	AccountID    string `json:"accountID" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	RewardAmount int64  `json:"rewardAmount" binding:"required,gt=0"`
	Frequency    string `json:"frequency" binding:"omitempty,oneof=DAILY WEEKLY ONCE"`
}

// TaskResponse mirrors domain.Task.
type TaskResponse struct {
	TaskID       string    `json:"taskID"`
	AccountID    string    `json:"accountID"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	RewardAmount int64     `json:"rewardAmount"`
	Frequency    string    `json:"frequency"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ToTaskResponse converts a domain.Task to its DTO.
func ToTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		TaskID:       t.TaskID,
		AccountID:    t.AccountID,
		Title:        t.Title,
		Description:  t.Description,
		RewardAmount: t.RewardAmount,
		Frequency:    string(t.Frequency),
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
	}
}

// ToListTaskResponse converts a slice of tasks.
func ToListTaskResponse(tasks []domain.Task) []TaskResponse {
	res := make([]TaskResponse, len(tasks))
	for i := range tasks {
		res[i] = ToTaskResponse(&tasks[i])
	}
	return res
}

// CompletionResponse mirrors domain.TaskCompletion.
type CompletionResponse struct {
	CompletionID string     `json:"completionID"`
	TaskID       string     `json:"taskID"`
	AccountID    string     `json:"accountID"`
	Status       string     `json:"status"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
}

// ToCompletionResponse converts a domain.TaskCompletion to its DTO.
func ToCompletionResponse(c *domain.TaskCompletion) CompletionResponse {
	return CompletionResponse{
		CompletionID: c.CompletionID,
		TaskID:       c.TaskID,
		AccountID:    c.AccountID,
		Status:       string(c.Status),
		SubmittedAt:  c.SubmittedAt,
		ReviewedAt:   c.ReviewedAt,
	}
}

// ToListCompletionResponse converts a slice of completions.
func ToListCompletionResponse(completions []domain.TaskCompletion) []CompletionResponse {
	res := make([]CompletionResponse, len(completions))
	for i := range completions {
		res[i] = ToCompletionResponse(&completions[i])
	}
	return res
}

// ApproveTaskResponse returns the credit outcome alongside the completion.
type ApproveTaskResponse struct {
	Completion CompletionResponse `json:"completion"`
	Earned     int64              `json:"earned"`
	NewBalance int64              `json:"newBalance"`
}
