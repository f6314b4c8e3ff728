package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment is a user actively working a task. At most one exists per user.
// Title, Reward and Duration are snapshots taken when the task was started, so
// a later edit or delete of the task definition cannot affect a running
// assignment.
type Assignment struct {
	UserID    int64
	TaskID    int64
	Token     string // unique per start, guards against stale completion timers
	Title     string
	Reward    decimal.Decimal
	Duration  time.Duration
	StartedAt time.Time
}

func (a Assignment) Deadline() time.Time {
	return a.StartedAt.Add(a.Duration)
}

func (a Assignment) Remaining(now time.Time) time.Duration {
	if r := a.Deadline().Sub(now); r > 0 {
		return r
	}
	return 0
}
