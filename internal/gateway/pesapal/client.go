// Package pesapal реализует клиент платежного шлюза Pesapal: получение bearer токена
// с кешированием, идемпотентную регистрацию IPN канала, создание платежа и запрос
// статуса транзакции.
package pesapal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RouteRequestToken      = "/Auth/RequestToken"
	RouteRegisterIPN       = "/URLSetup/RegisterIPN"
	RouteSubmitOrder       = "/Transactions/SubmitOrderRequest"
	RouteTransactionStatus = "/Transactions/GetTransactionStatus"
)

// defaultRequestTimeout таймаут на каждый исходящий запрос к шлюзу. Протокол шлюза
// своего таймаута не задает, таймаут транспорта трактуется как транспортная ошибка.
const defaultRequestTimeout = 15 * time.Second

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	// IPNURL публичный адрес нашего вебхука, регистрируется в шлюзе один раз на процесс.
	IPNURL string
	// CallbackURL страница, на которую шлюз вернет плательщика после оплаты.
	CallbackURL string
	Currency    string
}

// Client является HTTP клиентом шлюза. Потокобезопасен: единственное разделяемое
// состояние живет в Cache.
type Client struct {
	conf       Config
	httpClient *http.Client
	cache      *Cache
	l          *logrus.Entry
}

func New(conf Config, cache *Cache, l *logrus.Logger) *Client {
	return &Client{
		conf:       conf,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		cache:      cache,
		l: l.WithFields(logrus.Fields{
			"component": "pesapal",
		}),
	}
}

// AccessToken возвращает действующий bearer токен. При наличии неистекшего токена
// в кеше сетевой запрос не выполняется. При любой ошибке получения кеш сбрасывается
// и возвращается *AuthError с сырым телом ответа.
func (c *Client) AccessToken(ctx context.Context) (token string, err error) {
	if cached, ok := c.cache.Token(); ok {
		return cached, nil
	}

	payload, marshalErr := json.Marshal(tokenRequest{
		ConsumerKey:    c.conf.ConsumerKey,
		ConsumerSecret: c.conf.ConsumerSecret,
	})
	if marshalErr != nil {
		return "", fmt.Errorf("marshal token request: %s", marshalErr.Error())
	}

	c.l.Debug("fetching new access token")

	req, reqErr := http.NewRequestWithContext(
		ctx, http.MethodPost, c.conf.BaseURL+RouteRequestToken, bytes.NewReader(payload))
	if reqErr != nil {
		return "", fmt.Errorf("create token request: %s", reqErr.Error())
	}
	setJSONHeaders(req)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		c.cache.Invalidate()
		return "", NewAuthError(0, "do token request: "+doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		c.cache.Invalidate()
		return "", NewAuthError(0, "read token response: "+readErr.Error())
	}

	if resp.StatusCode != http.StatusOK {
		c.cache.Invalidate()
		return "", NewAuthError(resp.StatusCode, string(body))
	}

	var parsed tokenResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		c.cache.Invalidate()
		return "", NewAuthError(resp.StatusCode, string(body))
	}
	if parsed.Token == "" || parsed.ExpiryDate == "" {
		c.cache.Invalidate()
		return "", NewAuthError(resp.StatusCode, string(body))
	}

	expiresAt, expErr := parseExpiry(parsed.ExpiryDate)
	if expErr != nil {
		c.cache.Invalidate()
		return "", NewAuthError(resp.StatusCode, string(body))
	}

	c.cache.SetToken(parsed.Token, expiresAt)
	c.l.Debug("access token cached")
	return parsed.Token, nil
}

// RegisterIPN регистрирует URL вебхука в шлюзе и возвращает идентификатор канала.
// Идемпотентна: при наличии идентификатора в кеше сетевых запросов не выполняется,
// регистрация считается постоянной на время жизни процесса.
func (c *Client) RegisterIPN(ctx context.Context) (ipnID string, err error) {
	if cached, ok := c.cache.IPNID(); ok {
		return cached, nil
	}

	token, tokenErr := c.AccessToken(ctx)
	if tokenErr != nil {
		return "", tokenErr
	}

	payload, marshalErr := json.Marshal(registerIPNRequest{
		URL:                 c.conf.IPNURL,
		IPNNotificationType: "POST",
	})
	if marshalErr != nil {
		return "", fmt.Errorf("marshal IPN request: %s", marshalErr.Error())
	}

	req, reqErr := http.NewRequestWithContext(
		ctx, http.MethodPost, c.conf.BaseURL+RouteRegisterIPN, bytes.NewReader(payload))
	if reqErr != nil {
		return "", fmt.Errorf("create IPN request: %s", reqErr.Error())
	}
	setJSONHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return "", fmt.Errorf("do IPN request: %s", doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", fmt.Errorf("read IPN response: %s", readErr.Error())
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.cache.Invalidate()
		}
		return "", NewRegistrationError(string(body))
	}

	var parsed registerIPNResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		return "", NewRegistrationError(string(body))
	}
	if parsed.IPNID == "" {
		return "", NewRegistrationError(string(body))
	}

	c.cache.SetIPNID(parsed.IPNID)
	c.l.WithFields(logrus.Fields{
		"url":   parsed.URL,
		"ipnID": parsed.IPNID,
	}).Info("IPN URL registered")
	return parsed.IPNID, nil
}

// SubmitOrder создает платеж в шлюзе. Перед отправкой получает токен и гарантирует
// регистрацию IPN канала. Запрос получает свежий уникальный id — шлюз отклоняет
// повторное использование. Ошибки не ретраятся.
func (c *Client) SubmitOrder(ctx context.Context, args OrderArgs) (order *OrderResponse, err error) {
	token, tokenErr := c.AccessToken(ctx)
	if tokenErr != nil {
		return nil, tokenErr
	}

	ipnID, ipnErr := c.RegisterIPN(ctx)
	if ipnErr != nil {
		return nil, ipnErr
	}

	payload, marshalErr := json.Marshal(submitOrderRequest{
		ID:             uuid.NewString(),
		Currency:       c.conf.Currency,
		Amount:         json.Number(args.Amount.String()),
		Description:    args.Description,
		CallbackURL:    c.conf.CallbackURL,
		NotificationID: ipnID,
		BillingAddress: billingAddress{
			EmailAddress: args.Email,
			PhoneNumber:  args.Phone,
			FirstName:    args.FirstName,
			LastName:     args.LastName,
		},
	})
	if marshalErr != nil {
		return nil, fmt.Errorf("marshal order request: %s", marshalErr.Error())
	}

	req, reqErr := http.NewRequestWithContext(
		ctx, http.MethodPost, c.conf.BaseURL+RouteSubmitOrder, bytes.NewReader(payload))
	if reqErr != nil {
		return nil, fmt.Errorf("create order request: %s", reqErr.Error())
	}
	setJSONHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("do order request: %s", doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read order response: %s", readErr.Error())
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.cache.Invalidate()
		}
		return nil, NewSubmitOrderError(string(body))
	}

	var parsed OrderResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		return nil, NewSubmitOrderError(string(body))
	}
	if parsed.OrderTrackingID == "" || parsed.RedirectURL == "" {
		return nil, NewSubmitOrderError(string(body))
	}

	return &parsed, nil
}

// TransactionStatus запрашивает статус транзакции по tracking id шлюза.
func (c *Client) TransactionStatus(ctx context.Context, trackingID string) (status *StatusResponse, err error) {
	token, tokenErr := c.AccessToken(ctx)
	if tokenErr != nil {
		return nil, tokenErr
	}

	reqURL := c.conf.BaseURL + RouteTransactionStatus + "?orderTrackingId=" + url.QueryEscape(trackingID)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("create status request: %s", reqErr.Error())
	}
	setJSONHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("do status request: %s", doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read status response: %s", readErr.Error())
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.cache.Invalidate()
		}
		return nil, NewStatusError(string(body))
	}

	var parsed StatusResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		return nil, NewStatusError(string(body))
	}

	return &parsed, nil
}

func setJSONHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// parseExpiry разбирает срок истечения токена. Формат шлюза — ISO-8601 вариант,
// который может заканчиваться на "Z" без явного смещения; такой суффикс
// нормализуется в "+00:00" перед парсингом. Время без зоны трактуется как UTC.
func parseExpiry(raw string) (time.Time, error) {
	if strings.HasSuffix(raw, "Z") {
		raw = strings.TrimSuffix(raw, "Z") + "+00:00"
	}

	layouts := []string{
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999",
	}
	for _, layout := range layouts {
		if t, parseErr := time.Parse(layout, raw); parseErr == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported expiry format: %s", raw)
}
