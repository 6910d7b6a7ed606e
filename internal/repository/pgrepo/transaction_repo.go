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

const transactionColumns = `id, created_at, user_id, amount::text, transaction_type, COALESCE(order_tracking_id, '')`

type TransactionRepository struct {
	db uow.DBTX
}

func NewTransactionRepository(db uow.DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create создает запись в леджере. Пустой OrderTrackingID пишется как NULL, чтобы
// не конфликтовать с уникальным индексом; повторный tracking id возвращает
// domain.ErrDuplicateKey - на этом строится идемпотентность вебхука.
func (t *TransactionRepository) Create(
	ctx context.Context,
	args repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	row := t.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, transaction_type, order_tracking_id)
		VALUES ($1, $2::numeric, $3, NULLIF($4, ''))
		RETURNING `+transactionColumns,
		args.UserID, args.Amount.String(), string(args.Type), args.OrderTrackingID)

	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating transaction for user %d", args.UserID)
	}
	return transaction, nil
}

// GetByUserID возвращает транзакции юзера отсортированные по дате создания по убыванию.
func (t *TransactionRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	rows, err := t.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, convertErr(err, "getting transactions for user %d", userID)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		transaction, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning transaction for user %d", userID)
		}
		transactions = append(transactions, *transaction)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting transactions for user %d", userID)
	}
	return transactions, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var amount string
	var transactionType string

	if err := row.Scan(
		&transaction.ID,
		&transaction.CreatedAt,
		&transaction.UserID,
		&amount,
		&transactionType,
		&transaction.OrderTrackingID,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	parsed, parseErr := decimal.NewFromString(amount)
	if parseErr != nil {
		return nil, fmt.Errorf("parse transaction amount: %s", parseErr.Error())
	}
	transaction.Amount = parsed
	transaction.Type = domain.TransactionType(transactionType)
	return &transaction, nil
}
