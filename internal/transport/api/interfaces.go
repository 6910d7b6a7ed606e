package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"io"

	"github.com/lucosms/luco-service/internal/clerkauth"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/service"
	"github.com/lucosms/luco-service/internal/storage"
	"github.com/shopspring/decimal"
)

// PaymentServicer интерфейс исключительно для моков.
type PaymentServicer interface {
	Initiate(ctx context.Context, args service.InitiatePaymentArgs) (*domain.PaymentOrder, error)
	Status(ctx context.Context, trackingID string) domain.PaymentStatusView
	ProcessNotification(ctx context.Context, notif service.Notification) error
}

type WalletServicer interface {
	Topup(ctx context.Context, clerkUserID string, amount decimal.Decimal) (*domain.User, error)
}

type UserServicer interface {
	FindOrProvision(ctx context.Context, args service.ProvisionUserArgs) (*domain.User, error)
	Transactions(ctx context.Context, userID int64) ([]domain.Transaction, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	Download(ctx context.Context, key string) (*storage.DownloadResult, error)
	List(ctx context.Context, prefix string, maxItems int32) ([]storage.Object, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

type IdentityVerifier interface {
	Verify(ctx context.Context, authHeader string) (*clerkauth.Identity, error)
}

type DBPinger interface {
	Ping(ctx context.Context) error
}
