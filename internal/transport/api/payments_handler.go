package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/service"
	"github.com/shopspring/decimal"
)

type PaymentsHandler struct {
	paymentSvs PaymentServicer
}

func NewPaymentsHandler(paymentSvs PaymentServicer) *PaymentsHandler {
	return &PaymentsHandler{paymentSvs: paymentSvs}
}

type InitiatePaymentParams struct {
	Amount    decimal.Decimal `binding:"required"       json:"amount"`
	Email     string          `binding:"required,email" json:"email"`
	Phone     string          `binding:"required"       json:"phone"`
	FirstName string          `binding:"required"       json:"firstName"`
	LastName  string          `binding:"required"       json:"lastName"`
}

// Initiate POST LucopayRouteGroup + InitiatePaymentRoute. Создает платеж в шлюзе
// и возвращает redirect URL, на который клиент должен отправить плательщика.
func (h *PaymentsHandler) Initiate(c *gin.Context) {
	var params InitiatePaymentParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs})
			return
		}
		_ = c.AbortWithError(http.StatusUnprocessableEntity, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	order, initErr := h.paymentSvs.Initiate(ctx, service.InitiatePaymentArgs{
		Amount:    params.Amount,
		Email:     params.Email,
		Phone:     params.Phone,
		FirstName: params.FirstName,
		LastName:  params.LastName,
	})
	if initErr != nil {
		if errors.Is(initErr, domain.ErrInvalidAmount) {
			_ = c.AbortWithError(http.StatusUnprocessableEntity, initErr).
				SetType(gin.ErrorTypePublic)
			return
		}
		// клиент должен узнать, что платеж не стартовал, поэтому деталь ошибки
		// шлюза уходит в ответ.
		_ = c.AbortWithError(http.StatusInternalServerError, initErr).
			SetType(gin.ErrorTypePublic)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redirectUrl":     order.RedirectURL,
		"orderTrackingId": order.TrackingID,
	})
}

// Callback GET LucopayRouteGroup + PaymentCallbackRoute. Страница возврата
// плательщика: опрашивает шлюз и отдает человекочитаемый статус. Всегда 200.
func (h *PaymentsHandler) Callback(c *gin.Context) {
	trackingID := c.Query("OrderTrackingId")

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	view := h.paymentSvs.Status(ctx, trackingID)
	c.JSON(http.StatusOK, gin.H{
		"status":  view.Status,
		"title":   view.Title,
		"message": view.Message,
	})
}

type webhookParams struct {
	OrderTrackingID          string           `json:"orderTrackingId"`
	OrderNotificationType    string           `json:"orderNotificationType"`
	PaymentStatusDescription string           `json:"payment_status_description"`
	Amount                   *decimal.Decimal `json:"amount"`
	BillingAddress           struct {
		EmailAddress string `json:"email_address"`
	} `json:"billing_address"`
}

// Webhook POST LucopayRouteGroup + IPNWebhookRoute. Пуш-уведомление шлюза.
// Контракт подтверждения жесткий: 200 с фиксированной формой тела всегда,
// независимо от результата обработки, иначе шлюз начнет передоставку.
func (h *PaymentsHandler) Webhook(c *gin.Context) {
	var params webhookParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		// даже нечитаемое тело подтверждаем, деталь останется в логах
		_ = c.Error(bindErr).SetType(gin.ErrorTypePrivate)
	}

	ctx, cancel := context.WithTimeout(c, DefaultGatewayTimeout)
	defer cancel()

	if procErr := h.paymentSvs.ProcessNotification(ctx, service.Notification{
		TrackingID:        params.OrderTrackingID,
		NotificationType:  params.OrderNotificationType,
		StatusDescription: params.PaymentStatusDescription,
		Amount:            params.Amount,
		Email:             params.BillingAddress.EmailAddress,
	}); procErr != nil {
		_ = c.Error(procErr).SetType(gin.ErrorTypePrivate)
	}

	c.JSON(http.StatusOK, gin.H{
		"orderNotificationType": params.OrderNotificationType,
		"orderTrackingId":       params.OrderTrackingID,
		"status":                "OK",
	})
}
