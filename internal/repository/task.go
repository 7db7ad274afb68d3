package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"referral-campaign/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type task struct {
	ID             int64     `db:"id"`
	Description    string    `db:"description"`
	Points         int       `db:"points"`
	Link           *string   `db:"link"`
	TaskButtonText *string   `db:"task_button_text"`
	TimeCreated    time.Time `db:"time_created"`
}

func (t *task) toModel() *model.Task {
	return &model.Task{
		ID:             t.ID,
		Description:    t.Description,
		Points:         t.Points,
		Link:           t.Link,
		TaskButtonText: t.TaskButtonText,
		TimeCreated:    t.TimeCreated,
	}
}

func (r *Repository) CreateTask(ctx context.Context, t *model.Task) (int64, error) {
	query, args, err := squirrel.
		Insert("tasks").
		SetMap(map[string]interface{}{
			"description":      t.Description,
			"points":           t.Points,
			"link":             t.Link,
			"task_button_text": t.TaskButtonText,
		}).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build task insert query: %w", err)
	}

	var taskID int64
	err = r.db.GetContext(ctx, &taskID, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert task: %w", err)
	}

	return taskID, nil
}

// DeleteTask removes a catalog entry. Already-credited completions keep
// their points; finished_tasks entries are left dangling on purpose.
func (r *Repository) DeleteTask(ctx context.Context, taskID int64) error {
	query, args, err := squirrel.
		Delete("tasks").
		Where(squirrel.Eq{"id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *Repository) GetTasks(ctx context.Context) ([]*model.Task, error) {
	query, args, err := squirrel.
		Select("id", "description", "points", "link", "task_button_text", "time_created").
		From("tasks").
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var tasks []task
	err = r.db.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}

	taskList := make([]*model.Task, len(tasks))
	for i := range tasks {
		taskList[i] = tasks[i].toModel()
	}

	return taskList, nil
}

// UpdateTask merges the patch against the stored row; nil fields keep
// their current value.
func (r *Repository) UpdateTask(ctx context.Context, taskID int64, patch *model.TaskPatch) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		current, err := r.getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}

		description := current.Description
		if patch.Description != nil {
			description = *patch.Description
		}
		points := current.Points
		if patch.Points != nil {
			points = *patch.Points
		}
		link := current.Link
		if patch.Link != nil {
			link = patch.Link
		}
		buttonText := current.TaskButtonText
		if patch.TaskButtonText != nil {
			buttonText = patch.TaskButtonText
		}

		query, args, err := squirrel.
			Update("tasks").
			SetMap(map[string]interface{}{
				"description":      description,
				"points":           points,
				"link":             link,
				"task_button_text": buttonText,
			}).
			Where(squirrel.Eq{"id": taskID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		return nil
	})
}

func (r *Repository) getTaskTx(ctx context.Context, tx *sqlx.Tx, taskID int64) (*model.Task, error) {
	query, args, err := squirrel.
		Select("id", "description", "points", "link", "task_button_text", "time_created").
		From("tasks").
		Where(squirrel.Eq{"id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var t task
	err = tx.GetContext(ctx, &t, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return t.toModel(), nil
}

func (r *Repository) getTaskPointsTx(ctx context.Context, tx *sqlx.Tx, taskID int64) (int, error) {
	query, args, err := squirrel.
		Select("points").
		From("tasks").
		Where(squirrel.Eq{"id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var points int
	err = tx.GetContext(ctx, &points, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTaskNotFound
		}
		return 0, err
	}

	return points, nil
}
