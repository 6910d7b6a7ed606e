package service

import (
	"context"
	"fmt"

	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/repository/repoargs"
	"github.com/lucosms/luco-service/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type WalletService struct {
	uow uow.UOW
	l   *logrus.Entry
}

func NewWalletService(u uow.UOW, l *logrus.Logger) *WalletService {
	return &WalletService{
		uow: u,
		l:   l.WithField("component", "wallet_service"),
	}
}

// Topup пополняет кошелек юзера вручную. Инкремент баланса и запись в леджер
// выполняются в одной транзакции: частичное применение недопустимо.
// Возвращает юзера с обновленным балансом.
func (w *WalletService) Topup(
	ctx context.Context,
	clerkUserID string,
	amount decimal.Decimal,
) (*domain.User, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var updated *domain.User

	txErr := w.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		transactionRepo, transactionRepoErr :=
			uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if transactionRepoErr != nil {
			return transactionRepoErr //nolint:wrapcheck
		}

		user, findErr := userRepo.FindByClerkUserID(c, clerkUserID)
		if findErr != nil {
			return findErr //nolint:wrapcheck
		}

		if _, createErr := transactionRepo.Create(c, repoargs.TransactionCreate{
			UserID: user.ID,
			Amount: amount,
			Type:   domain.TransactionCredit,
		}); createErr != nil {
			return createErr //nolint:wrapcheck
		}

		var incErr error
		updated, incErr = userRepo.IncrementWalletBalance(c, user.ID, amount)
		return incErr //nolint:wrapcheck
	})

	if txErr != nil {
		return nil, fmt.Errorf("topping up wallet: %w", txErr)
	}

	w.l.WithFields(logrus.Fields{
		"userID": updated.ID,
		"amount": amount,
	}).Info("wallet topped up")
	return updated, nil
}
