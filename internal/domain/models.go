package domain

import (
	"github.com/shopspring/decimal"

	"time"
)

type User struct {
	ID            int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Username      string
	Email         string
	ClerkUserID   string
	WalletBalance decimal.Decimal
}

type Transaction struct {
	ID              int64
	CreatedAt       time.Time
	UserID          int64
	Amount          decimal.Decimal
	Type            TransactionType
	OrderTrackingID string
}
