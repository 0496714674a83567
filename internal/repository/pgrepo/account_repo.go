package pgrepo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

const accountColumns = `user_id, created_at, updated_at, balance, vip_level,
	use_custom_commission, custom_commission_min, custom_commission_max`

type AccountRepository struct {
	conn uow.DBTX
}

func NewAccountRepository(conn uow.DBTX) *AccountRepository {
	return &AccountRepository{conn: conn}
}

func (a *AccountRepository) FindByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "finding account by user_id `%s`", userID)
	}
	return account, nil
}

// FindByUserIDForUpdate как FindByUserID, но блокирует строку аккаунта до конца транзакции.
// Вне транзакции блокировка бессмысленна.
func (a *AccountRepository) FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 FOR UPDATE`, userID)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "locking account of user_id `%s`", userID)
	}
	return account, nil
}

// UpdateBalance записывает новый баланс. Если аккаунт не найден, возвращает domain.ErrRecordNotFound.
func (a *AccountRepository) UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	tag, err := a.conn.Exec(ctx,
		`UPDATE accounts SET balance = $2, updated_at = now() WHERE user_id = $1`,
		userID, balance,
	)
	if err != nil {
		return convertErr(err, "updating balance of user_id `%s`", userID)
	}
	return affectedOrNotFound(tag, "updating balance of user_id `%s`", userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.UserID,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.Balance,
		&account.VipLevel,
		&account.UseCustomCommission,
		&account.CustomCommissionMin,
		&account.CustomCommissionMax,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &account, nil
}
