package mocks

import (
	"context"

	"referral-campaign/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *model.User, referralCode *string) (*model.User, error) {
	args := m.Called(ctx, u, referralCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByTwitterID(ctx context.Context, twitterID string) (*model.User, error) {
	args := m.Called(ctx, twitterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByReferralCode(ctx context.Context, referralCode string) (*model.User, error) {
	args := m.Called(ctx, referralCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUsers(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) BindWalletAddress(ctx context.Context, twitterID, walletAddress string) error {
	args := m.Called(ctx, twitterID, walletAddress)
	return args.Error(0)
}

func (m *MockUserRepository) SetMultiplier(ctx context.Context, twitterID string, multiplier int) error {
	args := m.Called(ctx, twitterID, multiplier)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUserByTwitterID(ctx context.Context, twitterID string) (int64, error) {
	args := m.Called(ctx, twitterID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) FinishTask(ctx context.Context, walletAddress string, taskID int64, bonusPercent int) error {
	args := m.Called(ctx, walletAddress, taskID, bonusPercent)
	return args.Error(0)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, task *model.Task) (int64, error) {
	args := m.Called(ctx, task)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, taskID int64) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, taskID int64, patch *model.TaskPatch) error {
	args := m.Called(ctx, taskID, patch)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTasks(ctx context.Context) ([]*model.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}
