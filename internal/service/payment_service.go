package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/gateway/pesapal"
	"github.com/lucosms/luco-service/internal/repository/repoargs"
	"github.com/lucosms/luco-service/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const paymentDescription = "Payment for Order"

type PaymentService struct {
	uow     uow.UOW
	gateway Gateway
	l       *logrus.Entry
}

func NewPaymentService(u uow.UOW, gateway Gateway, l *logrus.Logger) *PaymentService {
	return &PaymentService{
		uow:     u,
		gateway: gateway,
		l:       l.WithField("component", "payment_service"),
	}
}

type InitiatePaymentArgs struct {
	Amount    decimal.Decimal
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

// Initiate создает платеж в шлюзе и возвращает URL для редиректа плательщика вместе
// с tracking id. Ошибки шлюза пробрасываются вызывающему: клиент должен узнать, что
// платеж не стартовал.
func (p *PaymentService) Initiate(ctx context.Context, args InitiatePaymentArgs) (*domain.PaymentOrder, error) {
	if !args.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	order, submitErr := p.gateway.SubmitOrder(ctx, pesapal.OrderArgs{
		Amount:      args.Amount,
		Description: paymentDescription,
		Email:       args.Email,
		Phone:       args.Phone,
		FirstName:   args.FirstName,
		LastName:    args.LastName,
	})
	if submitErr != nil {
		return nil, fmt.Errorf("initiating payment: %w", submitErr)
	}

	return &domain.PaymentOrder{
		TrackingID:  order.OrderTrackingID,
		RedirectURL: order.RedirectURL,
	}, nil
}

// Status опрашивает шлюз и классифицирует статус платежа. Ошибок не возвращает:
// это best-effort отображение, любая проблема шлюза превращается в
// PaymentStatusFailed с деталями в сообщении.
func (p *PaymentService) Status(ctx context.Context, trackingID string) domain.PaymentStatusView {
	resp, statusErr := p.gateway.TransactionStatus(ctx, trackingID)
	if statusErr != nil {
		p.l.WithError(statusErr).WithField("trackingID", trackingID).Error("transaction status lookup failed")
		return domain.PaymentStatusView{
			Status:  domain.PaymentStatusFailed,
			Title:   "Error",
			Message: "We could not confirm your payment status. Details: " + statusErr.Error(),
		}
	}

	status := domain.ClassifyPaymentStatus(resp.PaymentStatusDescription)
	switch status {
	case domain.PaymentStatusCompleted:
		return domain.PaymentStatusView{
			Status:  status,
			Title:   "Payment Successful!",
			Message: "Thank you for your payment.",
		}
	case domain.PaymentStatusPending:
		return domain.PaymentStatusView{
			Status:  status,
			Title:   "Payment Pending",
			Message: "Your payment is currently being processed. You will receive a confirmation shortly.",
		}
	default:
		return domain.PaymentStatusView{
			Status:  status,
			Title:   "Payment Failed",
			Message: fmt.Sprintf("Your payment could not be completed. The status is: %s", resp.PaymentStatusDescription),
		}
	}
}

// Notification асинхронное уведомление шлюза о платеже (тело IPN вебхука).
// Amount указателем: отсутствие суммы в payload'е отличается от нулевой суммы.
type Notification struct {
	TrackingID        string
	NotificationType  string
	StatusDescription string
	Amount            *decimal.Decimal
	Email             string
}

// ProcessNotification применяет уведомление шлюза к локальному состоянию.
//
// Алгоритм работы:
//  1. Статусы кроме completed логируются и пропускаются.
//  2. Уведомление без суммы или email логируется и пропускается: шлюз не перешлет
//     недостающие поля, это сигнал оператору.
//  3. Зачисление выполняется атомарно: запись в леджер и инкремент баланса в одной
//     транзакции. Повторная доставка того же tracking id упирается в уникальный
//     индекс и пропускается - кредит применяется не более одного раза.
//  4. Неизвестный email - событие теряется осознанно: деньги нельзя применить к
//     неизвестному аккаунту, требуется ручная сверка.
//
// Возвращаемая ошибка предназначена только для логов: HTTP подтверждение вебхука
// от нее не зависит.
func (p *PaymentService) ProcessNotification(ctx context.Context, notif Notification) error {
	l := p.l.WithField("trackingID", notif.TrackingID)

	if status := domain.ClassifyPaymentStatus(notif.StatusDescription); status != domain.PaymentStatusCompleted {
		l.WithField("status", notif.StatusDescription).Info("notification is not completed, no action taken")
		return nil
	}

	if notif.Amount == nil || notif.Email == "" {
		l.Error("completed notification is missing amount or email, dropping")
		return nil
	}

	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		transactionRepo, transactionRepoErr :=
			uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if transactionRepoErr != nil {
			return transactionRepoErr //nolint:wrapcheck
		}

		user, findErr := userRepo.FindByEmail(c, notif.Email)
		if findErr != nil {
			return findErr //nolint:wrapcheck
		}

		// Сначала леджер: дубликат tracking id прервет транзакцию до изменения баланса.
		if _, createErr := transactionRepo.Create(c, repoargs.TransactionCreate{
			UserID:          user.ID,
			Amount:          *notif.Amount,
			Type:            domain.TransactionCredit,
			OrderTrackingID: notif.TrackingID,
		}); createErr != nil {
			return createErr //nolint:wrapcheck
		}

		if _, incErr := userRepo.IncrementWalletBalance(c, user.ID, *notif.Amount); incErr != nil {
			return incErr //nolint:wrapcheck
		}
		return nil
	})

	if txErr != nil {
		switch {
		case errors.Is(txErr, domain.ErrDuplicateKey):
			l.Info("notification already applied, skipping")
			return nil
		case errors.Is(txErr, domain.ErrRecordNotFound):
			l.WithField("email", notif.Email).
				Error("no local user for completed payment, manual reconciliation required")
			return nil
		}
		return fmt.Errorf("processing payment notification: %w", txErr)
	}

	l.WithField("amount", notif.Amount).Info("wallet credited")
	return nil
}
