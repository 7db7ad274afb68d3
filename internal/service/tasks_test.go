package service

import (
	"context"
	"testing"

	"referral-campaign/internal/model"
	"referral-campaign/internal/repository"
	"referral-campaign/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTaskService_CreateTask(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := &mocks.MockTaskRepository{}
		mockRepo.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
			return task.Description == "follow us" && task.Points == 100
		})).Return(int64(1), nil)

		svc := NewTaskService(mockRepo)
		taskID, err := svc.CreateTask(context.Background(), &model.Task{
			Description: "follow us",
			Points:      100,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(1), taskID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Missing description", func(t *testing.T) {
		mockRepo := &mocks.MockTaskRepository{}

		svc := NewTaskService(mockRepo)
		_, err := svc.CreateTask(context.Background(), &model.Task{Points: 100})

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "CreateTask")
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	t.Run("Not found", func(t *testing.T) {
		mockRepo := &mocks.MockTaskRepository{}
		mockRepo.On("DeleteTask", mock.Anything, int64(42)).Return(repository.ErrTaskNotFound)

		svc := NewTaskService(mockRepo)
		err := svc.DeleteTask(context.Background(), 42)

		assert.ErrorIs(t, err, ErrTaskNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success", func(t *testing.T) {
		mockRepo := &mocks.MockTaskRepository{}
		mockRepo.On("DeleteTask", mock.Anything, int64(42)).Return(nil)

		svc := NewTaskService(mockRepo)
		err := svc.DeleteTask(context.Background(), 42)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	desc := "updated"

	t.Run("Patch passthrough", func(t *testing.T) {
		mockRepo := &mocks.MockTaskRepository{}
		mockRepo.On("UpdateTask", mock.Anything, int64(3), mock.MatchedBy(func(patch *model.TaskPatch) bool {
			return patch.Description != nil && *patch.Description == desc && patch.Points == nil
		})).Return(nil)

		svc := NewTaskService(mockRepo)
		err := svc.UpdateTask(context.Background(), 3, &model.TaskPatch{Description: &desc})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		mockRepo := &mocks.MockTaskRepository{}
		mockRepo.On("UpdateTask", mock.Anything, int64(3), mock.Anything).
			Return(repository.ErrTaskNotFound)

		svc := NewTaskService(mockRepo)
		err := svc.UpdateTask(context.Background(), 3, &model.TaskPatch{Description: &desc})

		assert.ErrorIs(t, err, ErrTaskNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestTaskService_ListTasks(t *testing.T) {
	mockRepo := &mocks.MockTaskRepository{}
	mockRepo.On("GetTasks", mock.Anything).Return([]*model.Task{
		{ID: 1, Description: "follow us", Points: 100},
		{ID: 2, Description: "retweet", Points: 50},
	}, nil)

	svc := NewTaskService(mockRepo)
	tasks, err := svc.ListTasks(context.Background())

	assert.NoError(t, err)
	assert.Len(t, tasks, 2)
	mockRepo.AssertExpectations(t)
}
