package pesapal

import (
	"sync"
	"time"
)

// Cache хранит bearer токен с моментом истечения и идентификатор IPN канала.
// Экземпляр один на процесс, передается хендлом в клиент; при рестарте процесса
// все данные теряются и запрашиваются заново.
//
// Часы инжектируются, чтобы тесты могли управлять истечением токена.
type Cache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	ipnID     string
	now       func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// NewCacheWithClock создает кеш с внешними часами. Используется в тестах.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{now: now}
}

// Token возвращает токен и true, если токен присутствует и не истек.
// Отсутствие срока истечения трактуется как отсутствие токена.
func (c *Cache) Token() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || c.expiresAt.IsZero() {
		return "", false
	}
	if !c.now().Before(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// SetToken безусловно перезаписывает токен и срок его истечения.
func (c *Cache) SetToken(token string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = expiresAt
}

// Invalidate сбрасывает токен. Вызывается после неудачного запроса токена, чтобы
// следующий вызов гарантированно пошел за новым.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

// IPNID возвращает идентификатор зарегистрированного IPN канала и true, если
// регистрация уже выполнялась в рамках текущего процесса.
func (c *Cache) IPNID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ipnID, c.ipnID != ""
}

func (c *Cache) SetIPNID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ipnID = id
}
