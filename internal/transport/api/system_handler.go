package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	db DBPinger
}

func NewSystemHandler(db DBPinger) *SystemHandler {
	return &SystemHandler{db: db}
}

// Health GET HealthRoute. Отвечает 200 пока база доступна. На этот же роут
// ходит keep-alive пингер.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if pingErr := h.db.Ping(ctx); pingErr != nil {
		_ = c.Error(pingErr).SetType(gin.ErrorTypePrivate)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"message":  "Luco service is running",
			"database": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Luco service is running",
		"database": "reachable",
	})
}

// Protected GET ProtectedRoute. Эхо аутентифицированной identity, используется
// клиентами для проверки сессии.
func (h *SystemHandler) Protected(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": NewUserResponse(user)})
}
