package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinTaskReward is the smallest reward a task may offer.
var MinTaskReward = decimal.New(1, -1) // 0.1

type Task struct {
	ID              int64
	Title           string
	Description     string
	Reward          decimal.Decimal
	DurationSeconds int
	CreatedAt       time.Time
}

func (t Task) Duration() time.Duration {
	return time.Duration(t.DurationSeconds) * time.Second
}

// TaskPatch carries a partial task update. Nil fields keep their current value.
type TaskPatch struct {
	Title           *string
	Description     *string
	Reward          *decimal.Decimal
	DurationSeconds *int
}
