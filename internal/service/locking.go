package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

const userLockKeyPrefix = "taskcenter:lock:user:"

func userLockKey(userID string) string {
	return userLockKeyPrefix + userID
}

// withUserLock выполняет fn, удерживая блокировку пользователя userID. Блокировка не ожидается:
// если она занята, возвращается domain.ErrSettlementInProgress.
func withUserLock(ctx context.Context, locker Locker, l *logrus.Entry, userID string, fn func() error) error {
	unlock, lockErr := locker.TryLock(ctx, userLockKey(userID))
	if lockErr != nil {
		if errors.Is(lockErr, domain.ErrLockNotAcquired) {
			return domain.ErrSettlementInProgress
		}
		return fmt.Errorf("acquire lock for user `%s`: %w", userID, lockErr)
	}

	defer func() {
		// снимаем блокировку даже если ctx уже отменен.
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			l.WithError(unlockErr).WithField("userID", userID).Warn("release user lock")
		}
	}()

	return fn()
}
