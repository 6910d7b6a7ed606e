package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/lucosms/luco-service/internal/repository/repoargs"
	"github.com/lucosms/luco-service/pkg/uow"
	"github.com/shopspring/decimal"
)

// userColumns баланс отдаем текстом: нативного маппинга numeric -> decimal.Decimal
// у pgx нет.
const userColumns = `id, created_at, updated_at, username, email, clerk_user_id, wallet_balance::text`

type UserRepository struct {
	db uow.DBTX
}

func NewUserRepository(db uow.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser создает юзера. В случае конфликта email или clerk_user_id возвращает
// ошибку domain.ErrDuplicateKey, во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `
		INSERT INTO users (username, email, clerk_user_id)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		args.Username, args.Email, args.ClerkUserID)

	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user")
	}
	return user, nil
}

// FindByEmail ищет юзера по email. Возвращает domain.ErrRecordNotFound если запись
// не найдена. Этот lookup связывает анонимное событие вебхука с локальным аккаунтом.
func (u *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by email %s", email)
	}
	return user, nil
}

// FindByClerkUserID ищет юзера по идентификатору во внешнем identity провайдере.
func (u *UserRepository) FindByClerkUserID(ctx context.Context, clerkUserID string) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_user_id = $1`, clerkUserID)

	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by clerk id %s", clerkUserID)
	}
	return user, nil
}

// IncrementWalletBalance атомарно увеличивает баланс кошелька и возвращает
// обновленного юзера.
func (u *UserRepository) IncrementWalletBalance(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `
		UPDATE users
		SET wallet_balance = wallet_balance + $2::numeric, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, amount.String())

	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "incrementing wallet balance for user %d", userID)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var balance string

	if err := row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Username,
		&user.Email,
		&user.ClerkUserID,
		&balance,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	parsed, parseErr := decimal.NewFromString(balance)
	if parseErr != nil {
		return nil, fmt.Errorf("parse wallet balance: %s", parseErr.Error())
	}
	user.WalletBalance = parsed
	return &user, nil
}
