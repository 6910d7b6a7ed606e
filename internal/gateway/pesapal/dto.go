package pesapal

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type tokenRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type tokenResponse struct {
	Token      string `json:"token"`
	ExpiryDate string `json:"expiryDate"`
}

type registerIPNRequest struct {
	URL                 string `json:"url"`
	IPNNotificationType string `json:"ipn_notification_type"`
}

type registerIPNResponse struct {
	IPNID string `json:"ipn_id"`
	URL   string `json:"url"`
}

// OrderArgs параметры создания платежа в шлюзе.
type OrderArgs struct {
	Amount      decimal.Decimal
	Description string
	Email       string
	Phone       string
	FirstName   string
	LastName    string
}

type billingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

type submitOrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         json.Number    `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id"`
	BillingAddress billingAddress `json:"billing_address"`
}

// OrderResponse ответ шлюза на создание платежа. RedirectURL и OrderTrackingID
// отдаются клиенту как есть.
type OrderResponse struct {
	RedirectURL     string `json:"redirect_url"`
	OrderTrackingID string `json:"order_tracking_id"`
}

// StatusResponse ответ шлюза на запрос статуса транзакции.
type StatusResponse struct {
	PaymentStatusDescription string      `json:"payment_status_description"`
	PaymentMethod            string      `json:"payment_method"`
	Amount                   json.Number `json:"amount"`
	Currency                 string      `json:"currency"`
}
