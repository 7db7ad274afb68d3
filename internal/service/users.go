package service

import (
	"context"
	"errors"
	"fmt"

	"referral-campaign/internal/model"
	"referral-campaign/internal/repository"
)

type UserService struct {
	repo         UserRepository
	hasher       PasswordHasher
	salt         string
	bonusPercent int
}

func NewUserService(repo UserRepository, hasher PasswordHasher, salt string, bonusPercent int) *UserService {
	return &UserService{
		repo:         repo,
		hasher:       hasher,
		salt:         salt,
		bonusPercent: bonusPercent,
	}
}

type RegisterInput struct {
	TwitterID     string
	WalletAddress *string
	Password      string
	ReferralCode  *string
}

type LoginInput struct {
	TwitterID     string
	WalletAddress string
	Password      string
}

func (s *UserService) Register(ctx context.Context, in *RegisterInput) (*model.User, error) {
	encrypted, err := s.hasher.Encrypt(in.Password, s.salt)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	u := &model.User{
		TwitterID:         in.TwitterID,
		WalletAddress:     in.WalletAddress,
		EncryptedPassword: encrypted,
	}

	created, err := s.repo.CreateUser(ctx, u, in.ReferralCode)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

func (s *UserService) Login(ctx context.Context, in *LoginInput) (*model.User, error) {
	u, err := s.repo.GetUserByTwitterID(ctx, in.TwitterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if u.WalletAddress == nil || *u.WalletAddress != in.WalletAddress {
		return nil, ErrWrongWallet
	}

	if !s.hasher.Verify(in.Password, u.EncryptedPassword, s.salt) {
		return nil, ErrBadCredentials
	}

	return u, nil
}

func (s *UserService) BindWallet(ctx context.Context, twitterID, walletAddress string) error {
	err := s.repo.BindWalletAddress(ctx, twitterID, walletAddress)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to bind wallet: %w", err)
	}
	return nil
}

// FinishTask credits the task and returns the reloaded user aggregate so the
// caller can reissue a session token with fresh totals.
func (s *UserService) FinishTask(ctx context.Context, walletAddress string, taskID int64) (*model.User, error) {
	err := s.repo.FinishTask(ctx, walletAddress, taskID, s.bonusPercent)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrTaskNotFound):
			return nil, ErrTaskNotFound
		default:
			return nil, fmt.Errorf("failed to finish task: %w", err)
		}
	}

	u, err := s.repo.GetUserByWalletAddress(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByTwitterID(ctx context.Context, twitterID string) (*model.User, error) {
	u, err := s.repo.GetUserByTwitterID(ctx, twitterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by twitter id: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error) {
	u, err := s.repo.GetUserByWalletAddress(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by wallet: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByReferralCode(ctx context.Context, referralCode string) (*model.User, error) {
	u, err := s.repo.GetUserByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Snapshot(ctx context.Context) ([]*model.UserSnapshot, error) {
	users, err := s.repo.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	snapshots := make([]*model.UserSnapshot, len(users))
	for i, u := range users {
		snapshots[i] = u.Snapshot()
	}

	return snapshots, nil
}

func (s *UserService) SetMultiplier(ctx context.Context, twitterID string, multiplier int) error {
	err := s.repo.SetMultiplier(ctx, twitterID, multiplier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set multiplier: %w", err)
	}
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, twitterID string) (int64, error) {
	rows, err := s.repo.DeleteUserByTwitterID(ctx, twitterID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return rows, nil
}
