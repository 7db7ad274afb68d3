package service

import (
	"context"
	"errors"
	"fmt"

	"referral-campaign/internal/model"
	"referral-campaign/internal/repository"
)

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, task *model.Task) (int64, error) {
	if task.Description == "" {
		return 0, fmt.Errorf("task description is required")
	}

	taskID, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}

	return taskID, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID int64) error {
	err := s.repo.DeleteTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID int64, patch *model.TaskPatch) error {
	err := s.repo.UpdateTask(ctx, taskID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.repo.GetTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}
