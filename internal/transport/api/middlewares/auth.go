package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lucosms/luco-service/internal/clerkauth"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/service"
)

// CurrentUserKey ключ контекста gin, под которым AuthRequired сохраняет
// локального юзера текущего запроса.
const CurrentUserKey = "currentUser"

type IdentityVerifier interface {
	Verify(ctx context.Context, authHeader string) (*clerkauth.Identity, error)
}

type UserProvisioner interface {
	FindOrProvision(ctx context.Context, args service.ProvisionUserArgs) (*domain.User, error)
}

// AuthRequired проверяет Authorization заголовок через identity провайдера и
// кладет в контекст локального юзера, создавая его при первом обращении.
func AuthRequired(verifier IdentityVerifier, users UserProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, verifyErr := verifier.Verify(c, c.GetHeader("Authorization"))
		if verifyErr != nil {
			if errors.Is(verifyErr, clerkauth.ErrNoAuthHeader) ||
				errors.Is(verifyErr, clerkauth.ErrInvalidAuthHeader) ||
				errors.Is(verifyErr, clerkauth.ErrSessionInvalid) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			_ = c.Error(verifyErr).SetType(gin.ErrorTypePrivate)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		user, provErr := users.FindOrProvision(c, service.ProvisionUserArgs{
			ClerkUserID: identity.ClerkUserID,
			Email:       identity.Email,
			Username:    identity.Username,
		})
		if provErr != nil {
			_ = c.Error(provErr).SetType(gin.ErrorTypePrivate)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}
