package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	TelegramID int64
	FirstName  string
	Username   string
	IsAdmin    bool
	Balance    decimal.Decimal
	CreatedAt  time.Time
}
