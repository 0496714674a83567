package pgrepo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
)

// convertErr приводит ошибку драйвера к ошибкам доменного слоя, добавляя контекст format.
//   - pgx.ErrNoRows -> domain.ErrRecordNotFound;
//   - нарушение уникального индекса -> domain.ErrDuplicateKey;
//   - нарушение CHECK ограничения (например balance >= 0) -> domain.ErrConstraintViolation;
//   - все остальное -> domain.ErrUnknown с исходным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	errType := domain.ErrUnknown

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			errType = domain.ErrDuplicateKey
		case checkViolationCode:
			errType = domain.ErrConstraintViolation
		}
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, errType, err.Error())
}

// affectedOrNotFound возвращает domain.ErrRecordNotFound, если запрос не затронул ни одной строки.
func affectedOrNotFound(tag pgconn.CommandTag, format string, formatArgs ...any) error {
	if tag.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, format, formatArgs...)
	}
	return nil
}
