package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")
)

// ErrConstraintViolation нарушение CHECK ограничения таблицы.
var ErrConstraintViolation = errors.New("constraint violation")

// Ошибки валидации входных данных. Побочных эффектов нет, вызывающая сторона может повторить запрос
// после исправления состояния.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoEligibleProduct   = errors.New("no eligible product")
	ErrPendingOrderExists  = errors.New("pending order already exists")
)

// Ошибки переходов и компенсации.
var (
	ErrOrderUpdateFailed    = errors.New("order update failed")
	ErrBalanceUpdateFailed  = errors.New("balance update failed")
	ErrSettlementInProgress = errors.New("settlement already in progress")
)

// ErrLockNotAcquired блокировка по ключу уже удерживается другим запросом.
var ErrLockNotAcquired = errors.New("lock not acquired")

// InconsistencyError означает, что откат после неудачного начисления сам завершился ошибкой.
// Заказ может остаться completed без начисленной комиссии, требуется ручная сверка.
type InconsistencyError struct {
	UserID    string
	ProductID int64
	Err       error
}

func NewInconsistencyError(userID string, productID int64, err error) *InconsistencyError {
	return &InconsistencyError{UserID: userID, ProductID: productID, Err: err}
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf(
		"settlement of product %d for user %s left in inconsistent state: %s",
		e.ProductID,
		e.UserID,
		e.Err.Error(),
	)
}

func (e *InconsistencyError) Unwrap() error {
	return e.Err
}
