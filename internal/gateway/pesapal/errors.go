package pesapal

import "fmt"

// AuthError ошибка получения bearer токена: транспорт или некорректный ответ.
// Body хранит сырое тело ответа апстрима для диагностики.
type AuthError struct {
	StatusCode int
	Body       string
}

func NewAuthError(statusCode int, body string) *AuthError {
	return &AuthError{StatusCode: statusCode, Body: body}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("pesapal auth failed with status %d: %s", e.StatusCode, e.Body)
}

// RegistrationError ошибка регистрации IPN канала.
type RegistrationError struct {
	Body string
}

func NewRegistrationError(body string) *RegistrationError {
	return &RegistrationError{Body: body}
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("pesapal IPN registration failed: %s", e.Body)
}

// SubmitOrderError ошибка создания платежа. Автоматических повторов нет: без
// идемпотентного ключа на стороне шлюза повтор может создать второй платеж.
type SubmitOrderError struct {
	Body string
}

func NewSubmitOrderError(body string) *SubmitOrderError {
	return &SubmitOrderError{Body: body}
}

func (e *SubmitOrderError) Error() string {
	return fmt.Sprintf("pesapal submit order failed: %s", e.Body)
}

// StatusError ошибка запроса статуса транзакции.
type StatusError struct {
	Body string
}

func NewStatusError(body string) *StatusError {
	return &StatusError{Body: body}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pesapal transaction status failed: %s", e.Body)
}
