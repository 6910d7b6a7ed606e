package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS отражает Origin запроса обратно. Сервис обслуживает браузерные клиенты
// с разных доменов, аутентификация идет через заголовок Authorization, поэтому
// кука-ориентированные ограничения тут не нужны.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
