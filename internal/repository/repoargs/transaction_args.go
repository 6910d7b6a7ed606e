package repoargs

import (
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionCreate struct {
	UserID int64
	Amount decimal.Decimal
	Type   domain.TransactionType
	// OrderTrackingID идентификатор заказа шлюза. Пустая строка означает отсутствие
	// (пополнение без платежа); непустые значения уникальны в рамках таблицы.
	OrderTrackingID string
}
