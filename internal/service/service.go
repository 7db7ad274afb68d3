package service

import (
	"context"
	"errors"

	"referral-campaign/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserExists     = errors.New("user already exists")
	ErrTaskNotFound   = errors.New("task not found")
	ErrWrongWallet    = errors.New("wrong wallet connected")
	ErrBadCredentials = errors.New("bad credentials")
)

type Service struct {
	*UserService
	*TaskService
}

func NewService(userService *UserService, taskService *TaskService) *Service {
	return &Service{
		UserService: userService,
		TaskService: taskService,
	}
}

type UserServiceI interface {
	Register(ctx context.Context, in *RegisterInput) (*model.User, error)
	Login(ctx context.Context, in *LoginInput) (*model.User, error)
	BindWallet(ctx context.Context, twitterID, walletAddress string) error
	FinishTask(ctx context.Context, walletAddress string, taskID int64) (*model.User, error)
	GetUserByTwitterID(ctx context.Context, twitterID string) (*model.User, error)
	GetUserByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, referralCode string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	Snapshot(ctx context.Context) ([]*model.UserSnapshot, error)
	SetMultiplier(ctx context.Context, twitterID string, multiplier int) error
	DeleteUser(ctx context.Context, twitterID string) (int64, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User, referralCode *string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByTwitterID(ctx context.Context, twitterID string) (*model.User, error)
	GetUserByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, referralCode string) (*model.User, error)
	GetUsers(ctx context.Context) ([]*model.User, error)
	BindWalletAddress(ctx context.Context, twitterID, walletAddress string) error
	SetMultiplier(ctx context.Context, twitterID string, multiplier int) error
	DeleteUserByTwitterID(ctx context.Context, twitterID string) (int64, error)
	FinishTask(ctx context.Context, walletAddress string, taskID int64, bonusPercent int) error
}

type TaskServiceI interface {
	CreateTask(ctx context.Context, task *model.Task) (int64, error)
	DeleteTask(ctx context.Context, taskID int64) error
	UpdateTask(ctx context.Context, taskID int64, patch *model.TaskPatch) error
	ListTasks(ctx context.Context) ([]*model.Task, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *model.Task) (int64, error)
	DeleteTask(ctx context.Context, taskID int64) error
	UpdateTask(ctx context.Context, taskID int64, patch *model.TaskPatch) error
	GetTasks(ctx context.Context) ([]*model.Task, error)
}

// PasswordHasher is the credential hashing collaborator; the algorithm is
// owned by pkg/password.
type PasswordHasher interface {
	Encrypt(content, salt string) (string, error)
	Verify(content, hash, salt string) bool
}
