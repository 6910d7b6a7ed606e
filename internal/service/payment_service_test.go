package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/gateway/pesapal"
	"github.com/lucosms/luco-service/internal/repository/repoargs"
	"github.com/lucosms/luco-service/internal/service/mocks"
	"github.com/lucosms/luco-service/pkg/uow"
	uowmocks "github.com/lucosms/luco-service/pkg/uow/mocks"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	suite.Suite
	ctrl                *gomock.Controller
	uowMock             *uowmocks.MockUOW
	txMock              *uowmocks.MockTX
	gatewayMock         *mocks.MockGateway
	userRepoMock        *mocks.MockUserRepository
	transactionRepoMock *mocks.MockTransactionRepository
	service             *PaymentService
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.uowMock = uowmocks.NewMockUOW(s.ctrl)
	s.txMock = uowmocks.NewMockTX(s.ctrl)
	s.gatewayMock = mocks.NewMockGateway(s.ctrl)
	s.userRepoMock = mocks.NewMockUserRepository(s.ctrl)
	s.transactionRepoMock = mocks.NewMockTransactionRepository(s.ctrl)

	l := logrus.New()
	l.SetOutput(io.Discard)
	s.service = NewPaymentService(s.uowMock, s.gatewayMock, l)
}

func (s *PaymentServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// expectTransaction настраивает uow.Do так, чтобы переданная функция выполнилась
// с мок-транзакцией, отдающей оба репозитория.
func (s *PaymentServiceSuite) expectTransaction() {
	s.txMock.EXPECT().
		Get(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.userRepoMock, nil).
		AnyTimes()
	s.txMock.EXPECT().
		Get(uow.RepositoryName(repoargs.TransactionRepoName)).
		Return(s.transactionRepoMock, nil).
		AnyTimes()
	s.uowMock.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.txMock)
		})
}

func (s *PaymentServiceSuite) TestInitiate() {
	ctx := context.Background()
	amount := decimal.NewFromInt(1000)

	s.gatewayMock.EXPECT().
		SubmitOrder(ctx, pesapal.OrderArgs{
			Amount:      amount,
			Description: paymentDescription,
			Email:       "buyer@example.com",
			Phone:       "0700000000",
			FirstName:   "Jane",
			LastName:    "Doe",
		}).
		Return(&pesapal.OrderResponse{
			OrderTrackingID: "track-1",
			RedirectURL:     "https://pay.pesapal.com/iframe/track-1",
		}, nil)

	order, err := s.service.Initiate(ctx, InitiatePaymentArgs{
		Amount:    amount,
		Email:     "buyer@example.com",
		Phone:     "0700000000",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	s.Require().NoError(err)
	s.Equal("track-1", order.TrackingID)
	s.Equal("https://pay.pesapal.com/iframe/track-1", order.RedirectURL)
}

func (s *PaymentServiceSuite) TestInitiateRejectsNonPositiveAmount() {
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := s.service.Initiate(context.Background(), InitiatePaymentArgs{Amount: amount})
		s.ErrorIs(err, domain.ErrInvalidAmount)
	}
}

func (s *PaymentServiceSuite) TestInitiateGatewayError() {
	gatewayErr := pesapal.NewSubmitOrderError("boom")
	s.gatewayMock.EXPECT().
		SubmitOrder(gomock.Any(), gomock.Any()).
		Return(nil, gatewayErr)

	_, err := s.service.Initiate(context.Background(), InitiatePaymentArgs{
		Amount: decimal.NewFromInt(10),
		Email:  "buyer@example.com",
	})
	s.Require().Error(err)
	s.ErrorIs(err, gatewayErr)
}

func (s *PaymentServiceSuite) TestStatusViews() {
	testCases := []struct {
		name         string
		rawStatus    string
		expectStatus domain.PaymentStatus
		expectTitle  string
	}{
		{name: "completed", rawStatus: "Completed", expectStatus: domain.PaymentStatusCompleted, expectTitle: "Payment Successful!"},
		{name: "pending", rawStatus: "PENDING", expectStatus: domain.PaymentStatusPending, expectTitle: "Payment Pending"},
		{name: "failed", rawStatus: "Failed", expectStatus: domain.PaymentStatusFailed, expectTitle: "Payment Failed"},
		{name: "unknown", rawStatus: "Reversed", expectStatus: domain.PaymentStatusFailed, expectTitle: "Payment Failed"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.gatewayMock.EXPECT().
				TransactionStatus(gomock.Any(), "track-1").
				Return(&pesapal.StatusResponse{PaymentStatusDescription: tc.rawStatus}, nil)

			view := s.service.Status(context.Background(), "track-1")
			s.Equal(tc.expectStatus, view.Status)
			s.Equal(tc.expectTitle, view.Title)
		})
	}
}

func (s *PaymentServiceSuite) TestStatusGatewayError() {
	s.gatewayMock.EXPECT().
		TransactionStatus(gomock.Any(), "track-1").
		Return(nil, pesapal.NewStatusError("upstream down"))

	view := s.service.Status(context.Background(), "track-1")
	s.Equal(domain.PaymentStatusFailed, view.Status)
	s.Equal("Error", view.Title)
	s.Contains(view.Message, "We could not confirm your payment status")
}

func (s *PaymentServiceSuite) TestProcessNotificationCompleted() {
	amount := decimal.NewFromInt(500)
	user := &domain.User{ID: 1, Email: "buyer@example.com", WalletBalance: decimal.NewFromInt(1000)}

	s.expectTransaction()
	s.userRepoMock.EXPECT().
		FindByEmail(gomock.Any(), "buyer@example.com").
		Return(user, nil)
	s.transactionRepoMock.EXPECT().
		Create(gomock.Any(), repoargs.TransactionCreate{
			UserID:          1,
			Amount:          amount,
			Type:            domain.TransactionCredit,
			OrderTrackingID: "track-1",
		}).
		Return(&domain.Transaction{ID: 10, UserID: 1, Amount: amount}, nil)
	s.userRepoMock.EXPECT().
		IncrementWalletBalance(gomock.Any(), int64(1), amount).
		Return(&domain.User{ID: 1, WalletBalance: decimal.NewFromInt(1500)}, nil)

	err := s.service.ProcessNotification(context.Background(), Notification{
		TrackingID:        "track-1",
		NotificationType:  "IPNCHANGE",
		StatusDescription: "COMPLETED",
		Amount:            &amount,
		Email:             "buyer@example.com",
	})
	s.NoError(err)
}

func (s *PaymentServiceSuite) TestProcessNotificationDuplicateSkipped() {
	amount := decimal.NewFromInt(500)

	s.expectTransaction()
	s.userRepoMock.EXPECT().
		FindByEmail(gomock.Any(), "buyer@example.com").
		Return(&domain.User{ID: 1}, nil)
	s.transactionRepoMock.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrDuplicateKey)
	// баланс не трогаем: кредит уже применен предыдущей доставкой

	err := s.service.ProcessNotification(context.Background(), Notification{
		TrackingID:        "track-1",
		StatusDescription: "COMPLETED",
		Amount:            &amount,
		Email:             "buyer@example.com",
	})
	s.NoError(err)
}

func (s *PaymentServiceSuite) TestProcessNotificationUnknownUser() {
	amount := decimal.NewFromInt(500)

	s.expectTransaction()
	s.userRepoMock.EXPECT().
		FindByEmail(gomock.Any(), "stranger@example.com").
		Return(nil, domain.ErrRecordNotFound)

	err := s.service.ProcessNotification(context.Background(), Notification{
		TrackingID:        "track-1",
		StatusDescription: "COMPLETED",
		Amount:            &amount,
		Email:             "stranger@example.com",
	})
	s.NoError(err)
}

func (s *PaymentServiceSuite) TestProcessNotificationMissingFields() {
	amount := decimal.NewFromInt(500)
	testCases := []struct {
		name  string
		notif Notification
	}{
		{name: "no amount", notif: Notification{TrackingID: "t", StatusDescription: "COMPLETED", Email: "a@b.c"}},
		{name: "no email", notif: Notification{TrackingID: "t", StatusDescription: "COMPLETED", Amount: &amount}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// uow.Do не вызывается вовсе
			s.NoError(s.service.ProcessNotification(context.Background(), tc.notif))
		})
	}
}

func (s *PaymentServiceSuite) TestProcessNotificationNonCompleted() {
	amount := decimal.NewFromInt(500)
	err := s.service.ProcessNotification(context.Background(), Notification{
		TrackingID:        "track-1",
		StatusDescription: "PENDING",
		Amount:            &amount,
		Email:             "buyer@example.com",
	})
	s.NoError(err)
}

func (s *PaymentServiceSuite) TestProcessNotificationRepositoryError() {
	amount := decimal.NewFromInt(500)
	repoErr := errors.New("connection reset")

	s.expectTransaction()
	s.userRepoMock.EXPECT().
		FindByEmail(gomock.Any(), "buyer@example.com").
		Return(nil, repoErr)

	err := s.service.ProcessNotification(context.Background(), Notification{
		TrackingID:        "track-1",
		StatusDescription: "COMPLETED",
		Amount:            &amount,
		Email:             "buyer@example.com",
	})
	s.ErrorIs(err, repoErr)
}
