package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/transport/api/middlewares"
)

// getCurrentUser возвращает юзера, сохраненного AuthRequired миддлварой.
// Вызывается только из-под защищенных роутов: отсутствие юзера в контексте
// означает ошибку конфигурации роутера.
func getCurrentUser(c *gin.Context) *domain.User {
	value, exists := c.Get(middlewares.CurrentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*domain.User)
	if !ok {
		return nil
	}
	return user
}
