package uow

import (
	"errors"
	"fmt"
)

var (
	ErrRepositoryNotRegistered     = errors.New("[uow] repository not registered")
	ErrRepositoryAlreadyRegistered = errors.New("[uow] repository already registered")
	ErrInvalidRepositoryType       = errors.New("[uow] invalid repository type")
)

// RollbackError возвращается из Do, если после ошибки fn не удалось откатить транзакцию.
// Err - исходная ошибка fn, RollbackErr - ошибка отката.
type RollbackError struct {
	Err         error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("[uow] rollback failed: %s (original error: %s)", e.RollbackErr.Error(), e.Err.Error())
}

func (e *RollbackError) Unwrap() []error {
	return []error{e.Err, e.RollbackErr}
}
