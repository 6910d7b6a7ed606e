package pesapal

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lucosms/luco-service/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
	server *httptest.Server
	client *Client
	cache  *Cache
	calls  map[string]int

	// хендлеры-переопределения для кейсов с ошибками.
	tokenHandler  http.HandlerFunc
	ipnHandler    http.HandlerFunc
	orderHandler  http.HandlerFunc
	statusHandler http.HandlerFunc
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.calls = make(map[string]int)
	s.tokenHandler = nil
	s.ipnHandler = nil
	s.orderHandler = nil
	s.statusHandler = nil

	mux := http.NewServeMux()
	mux.HandleFunc(RouteRequestToken, func(w http.ResponseWriter, r *http.Request) {
		s.calls[RouteRequestToken]++
		if s.tokenHandler != nil {
			s.tokenHandler(w, r)
			return
		}
		// действующий час токен, срок с суффиксом "Z" как у реального шлюза.
		expiry := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05.000Z07:00")
		s.writeJSON(w, http.StatusOK, tokenResponse{Token: "test-token", ExpiryDate: expiry})
	})
	mux.HandleFunc(RouteRegisterIPN, func(w http.ResponseWriter, r *http.Request) {
		s.calls[RouteRegisterIPN]++
		if s.ipnHandler != nil {
			s.ipnHandler(w, r)
			return
		}
		s.writeJSON(w, http.StatusOK, registerIPNResponse{IPNID: "ipn-123", URL: "https://luco.example.com/v1/lucopay/ipn-webhook"})
	})
	mux.HandleFunc(RouteSubmitOrder, func(w http.ResponseWriter, r *http.Request) {
		s.calls[RouteSubmitOrder]++
		if s.orderHandler != nil {
			s.orderHandler(w, r)
			return
		}
		s.writeJSON(w, http.StatusOK, OrderResponse{
			RedirectURL:     "https://pay.example.com/iframe/42",
			OrderTrackingID: "7e6b62d9-883e-440f-a2cf-2e932d4f8734",
		})
	})
	mux.HandleFunc(RouteTransactionStatus, func(w http.ResponseWriter, r *http.Request) {
		s.calls[RouteTransactionStatus]++
		if s.statusHandler != nil {
			s.statusHandler(w, r)
			return
		}
		s.writeJSON(w, http.StatusOK, StatusResponse{PaymentStatusDescription: "COMPLETED"})
	})

	s.server = httptest.NewServer(mux)
	s.cache = NewCache()
	s.client = New(Config{
		BaseURL:        s.server.URL,
		ConsumerKey:    "consumer-key",
		ConsumerSecret: "consumer-secret",
		IPNURL:         "https://luco.example.com/v1/lucopay/ipn-webhook",
		CallbackURL:    "https://ui.example.com/topup",
		Currency:       "UGX",
	}, s.cache, logger.New(io.Discard))
}

func (s *ClientTestSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *ClientTestSuite) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	s.Require().NoError(json.NewEncoder(w).Encode(body))
}

// Попадание в кеш не должно приводить к сетевым запросам.
func (s *ClientTestSuite) TestAccessTokenCacheHit() {
	s.cache.SetToken("cached-token", time.Now().Add(time.Hour))

	token, err := s.client.AccessToken(s.T().Context())

	s.Require().NoError(err)
	s.Equal("cached-token", token)
	s.Equal(0, s.calls[RouteRequestToken])
}

// После истечения токена следующий вызов делает ровно один сетевой запрос
// и обновляет кеш.
func (s *ClientTestSuite) TestAccessTokenRefetchAfterExpiry() {
	s.cache.SetToken("stale-token", time.Now().Add(-time.Minute))

	token, err := s.client.AccessToken(s.T().Context())
	s.Require().NoError(err)
	s.Equal("test-token", token)
	s.Equal(1, s.calls[RouteRequestToken])

	// повторный вызов обслуживается из кеша
	token, err = s.client.AccessToken(s.T().Context())
	s.Require().NoError(err)
	s.Equal("test-token", token)
	s.Equal(1, s.calls[RouteRequestToken])
}

func (s *ClientTestSuite) TestAccessTokenUpstreamError() {
	s.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}
	s.cache.SetToken("stale-token", time.Now().Add(-time.Minute))

	_, err := s.client.AccessToken(s.T().Context())

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Equal(http.StatusInternalServerError, authErr.StatusCode)
	s.Contains(authErr.Body, "boom")

	// после сбоя кеш должен быть сброшен
	_, ok := s.cache.Token()
	s.False(ok)
}

// Сетевой сбой при получении токена дает ту же *AuthError, что и отказ шлюза,
// только без HTTP статуса.
func (s *ClientTestSuite) TestAccessTokenTransportError() {
	s.server.Close()
	s.cache.SetToken("stale-token", time.Now().Add(-time.Minute))

	_, err := s.client.AccessToken(s.T().Context())

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
	s.Equal(0, authErr.StatusCode)

	_, ok := s.cache.Token()
	s.False(ok)
}

func (s *ClientTestSuite) TestAccessTokenMalformedResponse() {
	s.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"unexpected": "shape"})
	}

	_, err := s.client.AccessToken(s.T().Context())

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
}

func (s *ClientTestSuite) TestAccessTokenUnparsableExpiry() {
	s.tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, tokenResponse{Token: "t", ExpiryDate: "not-a-date"})
	}

	_, err := s.client.AccessToken(s.T().Context())

	var authErr *AuthError
	s.Require().ErrorAs(err, &authErr)
}

// Повторный вызов RegisterIPN не должен приводить ко второй регистрации.
func (s *ClientTestSuite) TestRegisterIPNIdempotent() {
	first, err := s.client.RegisterIPN(s.T().Context())
	s.Require().NoError(err)
	s.Equal("ipn-123", first)

	second, err := s.client.RegisterIPN(s.T().Context())
	s.Require().NoError(err)
	s.Equal("ipn-123", second)

	s.Equal(1, s.calls[RouteRegisterIPN])
	s.Equal(1, s.calls[RouteRequestToken])
}

func (s *ClientTestSuite) TestRegisterIPNUpstreamError() {
	s.ipnHandler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad ipn"))
	}

	_, err := s.client.RegisterIPN(s.T().Context())

	var regErr *RegistrationError
	s.Require().ErrorAs(err, &regErr)
	s.Contains(regErr.Body, "bad ipn")
}

func (s *ClientTestSuite) TestRegisterIPNMissingID() {
	s.ipnHandler = func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, registerIPNResponse{URL: "https://example.com"})
	}

	_, err := s.client.RegisterIPN(s.T().Context())

	var regErr *RegistrationError
	s.Require().ErrorAs(err, &regErr)
}

func (s *ClientTestSuite) TestSubmitOrder() {
	var submitted submitOrderRequest
	s.orderHandler = func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&submitted))
		s.Equal("Bearer test-token", r.Header.Get("Authorization"))
		s.writeJSON(w, http.StatusOK, OrderResponse{
			RedirectURL:     "https://pay.example.com/iframe/42",
			OrderTrackingID: "7e6b62d9-883e-440f-a2cf-2e932d4f8734",
		})
	}

	order, err := s.client.SubmitOrder(s.T().Context(), OrderArgs{
		Amount:      decimal.NewFromFloat(500.5),
		Description: "Wallet top up",
		Email:       "user@example.com",
		Phone:       "+256700000000",
		FirstName:   "Jane",
		LastName:    "Doe",
	})

	s.Require().NoError(err)
	s.Equal("https://pay.example.com/iframe/42", order.RedirectURL)
	s.Equal("7e6b62d9-883e-440f-a2cf-2e932d4f8734", order.OrderTrackingID)

	s.NotEmpty(submitted.ID)
	s.Equal("UGX", submitted.Currency)
	s.Equal(json.Number("500.5"), submitted.Amount)
	s.Equal("https://ui.example.com/topup", submitted.CallbackURL)
	s.Equal("ipn-123", submitted.NotificationID)
	s.Equal("user@example.com", submitted.BillingAddress.EmailAddress)

	s.Equal(1, s.calls[RouteRequestToken])
	s.Equal(1, s.calls[RouteRegisterIPN])
}

func (s *ClientTestSuite) TestSubmitOrderUpstreamError() {
	s.orderHandler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("order rejected"))
	}

	_, err := s.client.SubmitOrder(s.T().Context(), OrderArgs{
		Amount: decimal.NewFromInt(100),
		Email:  "user@example.com",
	})

	var submitErr *SubmitOrderError
	s.Require().ErrorAs(err, &submitErr)
	s.Contains(submitErr.Body, "order rejected")
}

func (s *ClientTestSuite) TestTransactionStatus() {
	s.statusHandler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("tracking-1", r.URL.Query().Get("orderTrackingId"))
		s.writeJSON(w, http.StatusOK, StatusResponse{PaymentStatusDescription: "PENDING"})
	}

	status, err := s.client.TransactionStatus(s.T().Context(), "tracking-1")

	s.Require().NoError(err)
	s.Equal("PENDING", status.PaymentStatusDescription)
}

func (s *ClientTestSuite) TestTransactionStatusUpstreamError() {
	s.statusHandler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("unknown order"))
	}

	_, err := s.client.TransactionStatus(s.T().Context(), "tracking-404")

	var statusErr *StatusError
	s.Require().ErrorAs(err, &statusErr)
	s.Contains(statusErr.Body, "unknown order")
}

// 401 на авторизованном вызове сбрасывает кеш токена, следующий вызов пойдет
// за новым токеном.
func (s *ClientTestSuite) TestUnauthorizedInvalidatesToken() {
	s.statusHandler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("expired token"))
	}

	_, err := s.client.TransactionStatus(s.T().Context(), "tracking-1")
	s.Require().Error(err)

	_, ok := s.cache.Token()
	s.False(ok)
}

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "with Z suffix", raw: "2025-07-26T10:00:00.000Z"},
		{name: "with explicit offset", raw: "2025-07-26T10:00:00+03:00"},
		{name: "without zone", raw: "2025-07-26T10:00:00.123"},
		{name: "garbage", raw: "not-a-date", wantErr: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			parsed, err := parseExpiry(c.raw)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", c.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if parsed.IsZero() {
				t.Fatal("expected non-zero time")
			}
		})
	}
}
