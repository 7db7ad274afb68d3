package repository

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"referral-campaign/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/sha3"
)

// Two concurrent registrations can read the same creation-log tail and
// derive the same code; the unique index rejects the loser and the whole
// transaction is retried against the moved-on log.
const createUserMaxAttempts = 3

const userColumns = "id, twitter_id, wallet_address, referral_code, total_points, referral_points, finished_tasks, referred_by, referrer_id, multiplier, encrypted_password"

type user struct {
	ID                int64         `db:"id"`
	TwitterID         string        `db:"twitter_id"`
	WalletAddress     *string       `db:"wallet_address"`
	ReferralCode      string        `db:"referral_code"`
	TotalPoints       int           `db:"total_points"`
	ReferralPoints    int           `db:"referral_points"`
	FinishedTasks     pq.Int64Array `db:"finished_tasks"`
	ReferredBy        pq.Int64Array `db:"referred_by"`
	ReferrerID        *int64        `db:"referrer_id"`
	Multiplier        int           `db:"multiplier"`
	EncryptedPassword string        `db:"encrypted_password"`
}

func (u *user) toModel() *model.User {
	return &model.User{
		ID:                u.ID,
		TwitterID:         u.TwitterID,
		WalletAddress:     u.WalletAddress,
		ReferralCode:      u.ReferralCode,
		TotalPoints:       u.TotalPoints,
		ReferralPoints:    u.ReferralPoints,
		FinishedTasks:     u.FinishedTasks,
		ReferredBy:        u.ReferredBy,
		ReferrerID:        u.ReferrerID,
		Multiplier:        u.Multiplier,
		EncryptedPassword: u.EncryptedPassword,
	}
}

// deriveReferralCode hashes the decimal form of the most recently created
// user id into a fixed-width hex string.
func deriveReferralCode(lastCreatedID int64) string {
	sum := sha3.Sum256([]byte(strconv.FormatInt(lastCreatedID, 10)))
	return hex.EncodeToString(sum[:])
}

func (r *Repository) CreateUser(ctx context.Context, u *model.User, referralCode *string) (*model.User, error) {
	var created *model.User
	var lastErr error

	for attempt := 0; attempt < createUserMaxAttempts; attempt++ {
		err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
			var txErr error
			created, txErr = r.createUserTx(ctx, tx, u, referralCode)
			return txErr
		})
		if err == nil {
			return created, nil
		}
		if isUniqueViolation(err, "users_referral_code_key") {
			lastErr = err
			continue
		}
		if isUniqueViolation(err, "users_twitter_id_key") {
			return nil, ErrConflict
		}
		return nil, err
	}

	return nil, fmt.Errorf("referral code retries exhausted after %d attempts: %w", createUserMaxAttempts, lastErr)
}

func (r *Repository) createUserTx(ctx context.Context, tx *sqlx.Tx, u *model.User, referralCode *string) (*model.User, error) {
	lastCreatedID, err := r.getLastCreatedUserIDTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"twitter_id":         u.TwitterID,
			"wallet_address":     u.WalletAddress,
			"referral_code":      deriveReferralCode(lastCreatedID),
			"encrypted_password": u.EncryptedPassword,
		}).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user insert query: %w", err)
	}

	var userID int64
	err = tx.GetContext(ctx, &userID, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	logQuery, logArgs, err := squirrel.
		Insert("last_created_user").
		Columns("user_id").
		Values(userID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build creation log insert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, logQuery, logArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to append creation log: %w", err)
	}

	if referralCode != nil {
		err = r.linkReferrerTx(ctx, tx, userID, *referralCode)
		if err != nil {
			return nil, err
		}
	}

	return r.getUser(ctx, tx, squirrel.Eq{"id": userID})
}

// linkReferrerTx establishes the bidirectional referral linkage. An unknown
// code is tolerated: registration succeeds without a referrer.
func (r *Repository) linkReferrerTx(ctx context.Context, tx *sqlx.Tx, userID int64, referralCode string) error {
	referrer, err := r.getUser(ctx, tx, squirrel.Eq{"referral_code": referralCode})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	// The new row is already visible inside this transaction, so a registrant
	// presenting their own code would resolve to themselves. No self-loops.
	if referrer.ID == userID {
		return nil
	}

	referredByQuery, referredByArgs, err := squirrel.
		Update("users").
		Set("referred_by", squirrel.Expr("array_append(referred_by, ?)", userID)).
		Where(squirrel.Eq{"id": referrer.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referred_by update query: %w", err)
	}

	_, err = tx.ExecContext(ctx, referredByQuery, referredByArgs...)
	if err != nil {
		return fmt.Errorf("failed to update referrer: %w", err)
	}

	referrerIDQuery, referrerIDArgs, err := squirrel.
		Update("users").
		Set("referrer_id", referrer.ID).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referrer_id update query: %w", err)
	}

	_, err = tx.ExecContext(ctx, referrerIDQuery, referrerIDArgs...)
	if err != nil {
		return fmt.Errorf("failed to set referrer_id: %w", err)
	}

	return nil
}

// getLastCreatedUserIDTx reads the tail of the append-only creation log.
// Before the first registration ever, it reports zero.
func (r *Repository) getLastCreatedUserIDTx(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	query, args, err := squirrel.
		Select("user_id").
		From("last_created_user").
		OrderBy("id DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var lastCreatedID int64
	err = tx.GetContext(ctx, &lastCreatedID, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}

	return lastCreatedID, nil
}

func (r *Repository) getUser(ctx context.Context, q sqlx.QueryerContext, pred squirrel.Eq) (*model.User, error) {
	query, args, err := squirrel.
		Select(userColumns).
		From("users").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u user
	err = sqlx.GetContext(ctx, q, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return u.toModel(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, r.db, squirrel.Eq{"id": id})
}

func (r *Repository) GetUserByTwitterID(ctx context.Context, twitterID string) (*model.User, error) {
	return r.getUser(ctx, r.db, squirrel.Eq{"twitter_id": twitterID})
}

func (r *Repository) GetUserByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error) {
	return r.getUser(ctx, r.db, squirrel.Eq{"wallet_address": walletAddress})
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, referralCode string) (*model.User, error) {
	return r.getUser(ctx, r.db, squirrel.Eq{"referral_code": referralCode})
}

func (r *Repository) GetUsers(ctx context.Context) ([]*model.User, error) {
	query, args, err := squirrel.
		Select(userColumns).
		From("users").
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []user
	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	userList := make([]*model.User, len(users))
	for i := range users {
		userList[i] = users[i].toModel()
	}

	return userList, nil
}

// BindWalletAddress is last-write-wins, matching the product rule that a
// wallet is bound at most once meaningfully.
func (r *Repository) BindWalletAddress(ctx context.Context, twitterID, walletAddress string) error {
	query, args, err := squirrel.
		Update("users").
		Set("wallet_address", walletAddress).
		Where(squirrel.Eq{"twitter_id": twitterID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to bind wallet address: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) SetMultiplier(ctx context.Context, twitterID string, multiplier int) error {
	query, args, err := squirrel.
		Update("users").
		Set("multiplier", multiplier).
		Where(squirrel.Eq{"twitter_id": twitterID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set multiplier: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) DeleteUserByTwitterID(ctx context.Context, twitterID string) (int64, error) {
	query, args, err := squirrel.
		Delete("users").
		Where(squirrel.Eq{"twitter_id": twitterID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}

	return result.RowsAffected()
}

// FinishTask credits a completed task to the user and propagates the one-hop
// referral bonus, all inside a single transaction. Completing an already
// finished task is a no-op.
func (r *Repository) FinishTask(ctx context.Context, walletAddress string, taskID int64, bonusPercent int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		u, err := r.getUser(ctx, tx, squirrel.Eq{"wallet_address": walletAddress})
		if err != nil {
			return err
		}

		if u.HasFinishedTask(taskID) {
			return nil
		}

		points, err := r.getTaskPointsTx(ctx, tx, taskID)
		if err != nil {
			return err
		}

		finished := append(u.FinishedTasks, taskID)

		userQuery, userArgs, err := squirrel.
			Update("users").
			Set("finished_tasks", pq.Int64Array(finished)).
			Set("total_points", u.TotalPoints+points).
			Where(squirrel.Eq{"id": u.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, userQuery, userArgs...)
		if err != nil {
			return fmt.Errorf("failed to credit task: %w", err)
		}

		if u.ReferrerID != nil {
			bonus := model.ReferralBonus(points, bonusPercent)

			referrerQuery, referrerArgs, err := squirrel.
				Update("users").
				Set("total_points", squirrel.Expr("total_points + ?", bonus)).
				Set("referral_points", squirrel.Expr("referral_points + ?", bonus)).
				Where(squirrel.Eq{"id": u.ReferrerID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, referrerQuery, referrerArgs...)
			if err != nil {
				return fmt.Errorf("failed to credit referrer: %w", err)
			}
		}

		return nil
	})
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 23505 unique_violation
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
