package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/gateway/pesapal"
	"github.com/lucosms/luco-service/internal/service"
	"github.com/lucosms/luco-service/internal/transport/api/mocks"
	"github.com/lucosms/luco-service/internal/transport/api/testutils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type PaymentsHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockPaymentService *mocks.MockPaymentServicer
}

func TestPaymentsHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentsHandlerTestSuite))
}

func (s *PaymentsHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockPaymentService = mocks.NewMockPaymentServicer(mockCtrl)

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s.router = New(RouterArgs{
		Logger:         quiet,
		PaymentService: s.mockPaymentService,
	})
}

func (s *PaymentsHandlerTestSuite) TestInitiate() {
	payload := map[string]any{
		"amount":    1000,
		"email":     "buyer@example.com",
		"phone":     "0700000000",
		"firstName": "Jane",
		"lastName":  "Doe",
	}
	body, marshalErr := json.Marshal(payload)
	s.Require().NoError(marshalErr)

	s.mockPaymentService.EXPECT().
		Initiate(gomock.Any(), service.InitiatePaymentArgs{
			Amount:    decimal.NewFromInt(1000),
			Email:     "buyer@example.com",
			Phone:     "0700000000",
			FirstName: "Jane",
			LastName:  "Doe",
		}).
		Return(&domain.PaymentOrder{
			TrackingID:  "track-1",
			RedirectURL: "https://pay.pesapal.com/iframe/track-1",
		}, nil)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    LucopayRouteGroup + InitiatePaymentRoute,
		Body:   bytes.NewReader(body),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, resp.StatusCode)

	var got map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	s.Equal("track-1", got["orderTrackingId"])
	s.Equal("https://pay.pesapal.com/iframe/track-1", got["redirectUrl"])
}

func (s *PaymentsHandlerTestSuite) TestInitiateInvalidPayload() {
	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    LucopayRouteGroup + InitiatePaymentRoute,
		Body:   bytes.NewReader([]byte(`{"email":"not-an-email"}`)),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *PaymentsHandlerTestSuite) TestInitiateGatewayFailure() {
	s.mockPaymentService.EXPECT().
		Initiate(gomock.Any(), gomock.Any()).
		Return(nil, pesapal.NewSubmitOrderError(`{"error":"declined"}`))

	body := []byte(`{"amount":100,"email":"buyer@example.com","phone":"0700000000","firstName":"Jane","lastName":"Doe"}`)
	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    LucopayRouteGroup + InitiatePaymentRoute,
		Body:   bytes.NewReader(body),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusInternalServerError, resp.StatusCode)

	// деталь ошибки шлюза должна дойти до клиента
	raw, readErr := io.ReadAll(resp.Body)
	s.Require().NoError(readErr)
	s.Contains(string(raw), "declined")
}

func (s *PaymentsHandlerTestSuite) TestCallback() {
	s.mockPaymentService.EXPECT().
		Status(gomock.Any(), "track-1").
		Return(domain.PaymentStatusView{
			Status:  domain.PaymentStatusCompleted,
			Title:   "Payment Successful!",
			Message: "Thank you for your payment.",
		})

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    LucopayRouteGroup + PaymentCallbackRoute + "?OrderTrackingId=track-1",
	})
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, resp.StatusCode)

	var got map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	s.Equal("completed", got["status"])
	s.Equal("Payment Successful!", got["title"])
}

func (s *PaymentsHandlerTestSuite) TestCallbackGatewayFailure() {
	// даже когда статус выяснить не удалось, колбек отвечает 200
	s.mockPaymentService.EXPECT().
		Status(gomock.Any(), "track-1").
		Return(domain.PaymentStatusView{
			Status:  domain.PaymentStatusFailed,
			Title:   "Error",
			Message: "We could not confirm your payment status. Details: timeout",
		})

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    LucopayRouteGroup + PaymentCallbackRoute + "?OrderTrackingId=track-1",
	})
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *PaymentsHandlerTestSuite) TestWebhookAck() {
	amount := decimal.RequireFromString("500.0")
	payload := []byte(`{
		"orderTrackingId": "track-1",
		"orderNotificationType": "IPNCHANGE",
		"payment_status_description": "COMPLETED",
		"amount": 500.0,
		"billing_address": {"email_address": "buyer@example.com"}
	}`)

	s.mockPaymentService.EXPECT().
		ProcessNotification(gomock.Any(), service.Notification{
			TrackingID:        "track-1",
			NotificationType:  "IPNCHANGE",
			StatusDescription: "COMPLETED",
			Amount:            &amount,
			Email:             "buyer@example.com",
		}).
		Return(nil)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    LucopayRouteGroup + IPNWebhookRoute,
		Body:   bytes.NewReader(payload),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, resp.StatusCode)

	var got map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	s.Equal("OK", got["status"])
	s.Equal("track-1", got["orderTrackingId"])
	s.Equal("IPNCHANGE", got["orderNotificationType"])
}

func (s *PaymentsHandlerTestSuite) TestWebhookAckOnProcessingError() {
	s.mockPaymentService.EXPECT().
		ProcessNotification(gomock.Any(), gomock.Any()).
		Return(pesapal.NewStatusError("db down"))

	payload := []byte(`{"orderTrackingId":"track-2","orderNotificationType":"IPNCHANGE","payment_status_description":"COMPLETED"}`)
	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    LucopayRouteGroup + IPNWebhookRoute,
		Body:   bytes.NewReader(payload),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, resp.StatusCode)

	var got map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	s.Equal("OK", got["status"])
}

func (s *PaymentsHandlerTestSuite) TestWebhookAckOnMalformedBody() {
	// нечитаемое тело все равно подтверждается, поля эхо-ответа пустые
	s.mockPaymentService.EXPECT().
		ProcessNotification(gomock.Any(), service.Notification{}).
		Return(nil)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    LucopayRouteGroup + IPNWebhookRoute,
		Body:   bytes.NewReader([]byte("not json at all")),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, resp.StatusCode)

	var got map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	s.Equal("OK", got["status"])
	s.Empty(got["orderTrackingId"])
}
