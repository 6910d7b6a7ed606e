package domain

import "strings"

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	// PaymentStatusFailed собирает как отказы, так и нераспознанные статусы шлюза.
	PaymentStatusFailed PaymentStatus = "failed-or-unknown"
)

// ClassifyPaymentStatus приводит строку статуса шлюза к одному из трех канонических
// значений. Функция тотальна: любая нераспознанная строка попадает в PaymentStatusFailed.
func ClassifyPaymentStatus(raw string) PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "COMPLETED":
		return PaymentStatusCompleted
	case "PENDING":
		return PaymentStatusPending
	default:
		return PaymentStatusFailed
	}
}

// PaymentOrder результат создания платежа в шлюзе. Жизненный цикл заказа живет на стороне
// шлюза, локально храним только то, что нужно отдать клиенту.
type PaymentOrder struct {
	TrackingID  string
	RedirectURL string
}

// PaymentStatusView представление статуса платежа для клиента.
type PaymentStatusView struct {
	Status  PaymentStatus
	Title   string
	Message string
}
