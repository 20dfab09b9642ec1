package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/dto"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/middleware"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// taskHandler handles chores and the submit/approve workflow.
type taskHandler struct {
	taskService portssvc.TaskSvcFacade
}

func newTaskHandler(ts portssvc.TaskSvcFacade) *taskHandler {
	return &taskHandler{taskService: ts}
}

// registerTaskRoutes registers task and approval routes.
func registerTaskRoutes(rg *gin.RouterGroup, svc *portssvc.ServiceContainer) {
	h := newTaskHandler(svc.Task)

	tasks := rg.Group("/tasks")
	{
		tasks.POST("", middleware.RequireParent(), h.createTask)
		tasks.GET("", h.listTasks)
		tasks.DELETE("/:taskID", middleware.RequireParent(), h.archiveTask)
		tasks.POST("/:taskID/submit", h.submitTask)
	}

	approvals := rg.Group("/approvals", middleware.RequireParent())
	{
		approvals.GET("", h.listPendingApprovals)
		approvals.POST("/:completionID/approve", h.approveCompletion)
		approvals.POST("/:completionID/reject", h.rejectCompletion)
	}
}

// createTask godoc
// @Summary Create a task
// @Description Defines a chore for a child with a Time Bucks reward.
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body dto.CreateTaskRequest true "Task details"
// @Success 201 {object} dto.TaskResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /tasks [post]
func (h *taskHandler) createTask(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Task created", slog.String("task_id", task.TaskID), slog.String("account_id", task.AccountID))
	c.JSON(http.StatusCreated, dto.ToTaskResponse(task))
}

// listTasks godoc
// @Summary List tasks for an account
// @Tags tasks
// @Produce json
// @Param accountID query string true "Account ID"
// @Success 200 {array} dto.TaskResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *taskHandler) listTasks(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	accountID := c.Query("accountID")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountID query parameter is required"})
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), actor, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListTaskResponse(tasks))
}

// archiveTask godoc
// @Summary Archive a task
// @Description Removes the task from the child's list. Completions keep their reference.
// @Tags tasks
// @Produce json
// @Param taskID path string true "Task ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /tasks/{taskID} [delete]
func (h *taskHandler) archiveTask(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	taskID := c.Param("taskID")
	if err := h.taskService.ArchiveTask(c.Request.Context(), actor, taskID); err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Task archived", slog.String("task_id", taskID))
	c.Status(http.StatusNoContent)
}

// submitTask godoc
// @Summary Submit a task for approval
// @Description Marks the chore done. The reward is only credited once a parent approves.
// @Tags tasks
// @Produce json
// @Param taskID path string true "Task ID"
// @Success 201 {object} dto.CompletionResponse
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Already pending"
// @Security BearerAuth
// @Router /tasks/{taskID}/submit [post]
func (h *taskHandler) submitTask(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	completion, err := h.taskService.Submit(c.Request.Context(), actor, c.Param("taskID"))
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Task submitted", slog.String("completion_id", completion.CompletionID))
	c.JSON(http.StatusCreated, dto.ToCompletionResponse(completion))
}

// listPendingApprovals godoc
// @Summary List pending approvals
// @Description The parent's approval queue across all their children, oldest first.
// @Tags approvals
// @Produce json
// @Success 200 {array} dto.CompletionResponse
// @Security BearerAuth
// @Router /approvals [get]
func (h *taskHandler) listPendingApprovals(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	completions, err := h.taskService.ListPendingApprovals(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListCompletionResponse(completions))
}

// approveCompletion godoc
// @Summary Approve a submission
// @Description Credits the task reward to the child atomically with the status flip.
// @Tags approvals
// @Produce json
// @Param completionID path string true "Completion ID"
// @Success 200 {object} dto.ApproveTaskResponse
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Already reviewed"
// @Security BearerAuth
// @Router /approvals/{completionID}/approve [post]
func (h *taskHandler) approveCompletion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	completion, earned, newBalance, err := h.taskService.Approve(c.Request.Context(), actor, c.Param("completionID"))
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.TasksApproved.Inc()
	logger.Info("Completion approved",
		slog.String("completion_id", completion.CompletionID),
		slog.Int64("earned", earned),
		slog.Int64("new_balance", newBalance),
	)
	c.JSON(http.StatusOK, dto.ApproveTaskResponse{
		Completion: dto.ToCompletionResponse(completion),
		Earned:     earned,
		NewBalance: newBalance,
	})
}

// rejectCompletion godoc
// @Summary Reject a submission
// @Description Marks the submission rejected. No ledger mutation happens.
// @Tags approvals
// @Produce json
// @Param completionID path string true "Completion ID"
// @Success 200 {object} dto.CompletionResponse
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Already reviewed"
// @Security BearerAuth
// @Router /approvals/{completionID}/reject [post]
func (h *taskHandler) rejectCompletion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := mustActor(c)
	if !ok {
		return
	}

	completion, err := h.taskService.Reject(c.Request.Context(), actor, c.Param("completionID"))
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Completion rejected", slog.String("completion_id", completion.CompletionID))
	c.JSON(http.StatusOK, dto.ToCompletionResponse(completion))
}
