package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/gateway/pesapal"
	"github.com/lucosms/luco-service/internal/repository/repoargs"
	"github.com/shopspring/decimal"
)

// Gateway контракт платежного шлюза, реализуется pesapal.Client.
type Gateway interface {
	RegisterIPN(ctx context.Context) (string, error)
	SubmitOrder(ctx context.Context, args pesapal.OrderArgs) (*pesapal.OrderResponse, error)
	TransactionStatus(ctx context.Context, trackingID string) (*pesapal.StatusResponse, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByClerkUserID(ctx context.Context, clerkUserID string) (*domain.User, error)
	IncrementWalletBalance(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.User, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Transaction, error)
}
