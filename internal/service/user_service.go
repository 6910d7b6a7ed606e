package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/repository/repoargs"
	"github.com/lucosms/luco-service/pkg/uow"
)

type UserService struct {
	uow             uow.UOW
	userRepo        UserRepository
	transactionRepo TransactionRepository
}

func NewUserService(u uow.UOW) (*UserService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	transactionRepo, transactionRepoErr :=
		uow.GetRepositoryAs[TransactionRepository](u, uow.RepositoryName(repoargs.TransactionRepoName))
	if transactionRepoErr != nil {
		return nil, transactionRepoErr //nolint:wrapcheck
	}
	return &UserService{
		uow:             u,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
	}, nil
}

type ProvisionUserArgs struct {
	ClerkUserID string
	Email       string
	Username    string
}

// FindOrProvision возвращает локального юзера по email проверенной identity,
// создавая его при первом обращении. Гонка параллельных первых запросов
// разрешается через ErrDuplicateKey с повторным чтением.
func (s *UserService) FindOrProvision(ctx context.Context, args ProvisionUserArgs) (*domain.User, error) {
	user, findErr := s.userRepo.FindByEmail(ctx, args.Email)
	if findErr == nil {
		return user, nil
	}
	if !errors.Is(findErr, domain.ErrRecordNotFound) {
		return nil, fmt.Errorf("provisioning user: %w", findErr)
	}

	created, createErr := s.userRepo.CreateUser(ctx, repoargs.CreateUser{
		Username:    args.Username,
		Email:       args.Email,
		ClerkUserID: args.ClerkUserID,
	})
	if createErr != nil {
		if errors.Is(createErr, domain.ErrDuplicateKey) {
			// параллельный запрос успел создать юзера раньше нас
			existing, retryErr := s.userRepo.FindByEmail(ctx, args.Email)
			if retryErr != nil {
				return nil, fmt.Errorf("provisioning user: %w", retryErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("provisioning user: %w", createErr)
	}
	return created, nil
}

// Transactions возвращает транзакции юзера отсортированные по дате создания по убыванию.
func (s *UserService) Transactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	return s.transactionRepo.GetByUserID(ctx, userID) //nolint:wrapcheck
}
