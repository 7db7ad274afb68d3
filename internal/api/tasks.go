package api

import (
	"errors"
	"net/http"

	"referral-campaign/internal/middleware"
	"referral-campaign/internal/model"
	"referral-campaign/internal/service"
	"referral-campaign/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type taskRoutes struct {
	ts service.TaskServiceI
}

func NewTaskRoutes(handler *gin.RouterGroup, ts service.TaskServiceI, securityHash, devSecret string) {
	r := &taskRoutes{ts: ts}
	h := handler.Group("/tasks")
	{
		public := h.Group("/")
		public.Use(middleware.RequireSecurityHash(securityHash))
		{
			public.GET("", r.GetTasks)
		}

		admin := h.Group("/")
		admin.Use(middleware.RequireDevSecret(devSecret))
		{
			admin.POST("", r.CreateTask)
			admin.PUT("", r.UpdateTask)
			admin.DELETE("", r.DeleteTask)
		}
	}
}

func taskJSON(t *model.Task) gin.H {
	return gin.H{
		"id":               t.ID,
		"description":      t.Description,
		"points":           t.Points,
		"link":             t.Link,
		"task_button_text": t.TaskButtonText,
		"time_created":     t.TimeCreated,
	}
}

func (r *taskRoutes) GetTasks(c *gin.Context) {
	log := logger.Logger()

	tasks, err := r.ts.ListTasks(c.Request.Context())
	if err != nil {
		log.Error("failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve tasks"})
		return
	}

	out := make([]gin.H, len(tasks))
	for i, t := range tasks {
		out[i] = taskJSON(t)
	}

	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

type CreateTaskRequest struct {
	Description    string  `json:"description" binding:"required"`
	Points         int     `json:"points" binding:"required"`
	Link           *string `json:"link"`
	TaskButtonText *string `json:"task_button_text"`
}

func (r *taskRoutes) CreateTask(c *gin.Context) {
	log := logger.Logger()

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	taskID, err := r.ts.CreateTask(c.Request.Context(), &model.Task{
		Description:    req.Description,
		Points:         req.Points,
		Link:           req.Link,
		TaskButtonText: req.TaskButtonText,
	})
	if err != nil {
		log.Error("failed to create task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": taskID})
}

type UpdateTaskRequest struct {
	TaskID         int64   `json:"task_id" binding:"required"`
	Description    *string `json:"description"`
	Points         *int    `json:"points"`
	Link           *string `json:"link"`
	TaskButtonText *string `json:"task_button_text"`
}

func (r *taskRoutes) UpdateTask(c *gin.Context) {
	log := logger.Logger()

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.ts.UpdateTask(c.Request.Context(), req.TaskID, &model.TaskPatch{
		Description:    req.Description,
		Points:         req.Points,
		Link:           req.Link,
		TaskButtonText: req.TaskButtonText,
	})
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Error("failed to update task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}

	c.Status(http.StatusOK)
}

type DeleteTaskRequest struct {
	TaskID int64 `json:"task_id" binding:"required"`
}

func (r *taskRoutes) DeleteTask(c *gin.Context) {
	log := logger.Logger()

	var req DeleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.ts.DeleteTask(c.Request.Context(), req.TaskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Error("failed to delete task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}

	c.Status(http.StatusOK)
}
