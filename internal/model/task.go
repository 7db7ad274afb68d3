package model

import "time"

type Task struct {
	ID             int64
	Description    string
	Points         int
	Link           *string
	TaskButtonText *string
	TimeCreated    time.Time
}

// TaskPatch carries a partial task update. Nil fields keep the stored value.
type TaskPatch struct {
	Description    *string
	Points         *int
	Link           *string
	TaskButtonText *string
}
