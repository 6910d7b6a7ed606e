package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletSvs WalletServicer
	userSvs   UserServicer
}

func NewWalletHandler(walletSvs WalletServicer, userSvs UserServicer) *WalletHandler {
	return &WalletHandler{
		walletSvs: walletSvs,
		userSvs:   userSvs,
	}
}

type UserResponse struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		WalletBalance: u.WalletBalance,
		CreatedAt:     u.CreatedAt,
	}
}

type TransactionResponse struct {
	ID              int64                  `json:"id"`
	Amount          decimal.Decimal        `json:"amount"`
	Type            domain.TransactionType `json:"type"`
	OrderTrackingID string                 `json:"orderTrackingId,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type TopupParams struct {
	Amount decimal.Decimal `binding:"required" json:"amount"`
}

// Topup POST LucopayRouteGroup + TopupRoute. Ручное пополнение кошелька
// текущего юзера, возвращает юзера с обновленным балансом.
func (h *WalletHandler) Topup(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params TopupParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusUnprocessableEntity, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	updated, topupErr := h.walletSvs.Topup(ctx, user.ClerkUserID, params.Amount)
	if topupErr != nil {
		if errors.Is(topupErr, domain.ErrInvalidAmount) {
			_ = c.AbortWithError(http.StatusUnprocessableEntity, topupErr).
				SetType(gin.ErrorTypePublic)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, topupErr).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": NewUserResponse(updated)})
}

// Transactions GET LucopayRouteGroup + TransactionsRoute. История операций
// кошелька текущего юзера от новых к старым.
func (h *WalletHandler) Transactions(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transactions, listErr := h.userSvs.Transactions(ctx, user.ID)
	if listErr != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, listErr).
			SetType(gin.ErrorTypePrivate)
		return
	}

	response := make([]TransactionResponse, len(transactions))
	for i, tr := range transactions {
		response[i] = TransactionResponse{
			ID:              tr.ID,
			Amount:          tr.Amount,
			Type:            tr.Type,
			OrderTrackingID: tr.OrderTrackingID,
			CreatedAt:       tr.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, response)
}
