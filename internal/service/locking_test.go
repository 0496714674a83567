package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/service/mocks"
)

func TestWithUserLock(t *testing.T) {
	l := testLogger().WithField("component", "test")

	t.Run("released after fn", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		locker := mocks.NewMockLocker(ctrl)

		released := false
		locker.EXPECT().TryLock(gomock.Any(), "taskcenter:lock:user:user-1").
			Return(func(context.Context) error {
				released = true
				return nil
			}, nil)

		fnErr := errors.New("fn failed")
		err := withUserLock(context.Background(), locker, l, "user-1", func() error {
			assert.False(t, released)
			return fnErr
		})
		require.ErrorIs(t, err, fnErr)
		assert.True(t, released)
	})

	t.Run("unlock error is not returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		locker := mocks.NewMockLocker(ctrl)
		locker.EXPECT().TryLock(gomock.Any(), gomock.Any()).
			Return(func(context.Context) error { return errors.New("redis down") }, nil)

		err := withUserLock(context.Background(), locker, l, "user-1", func() error { return nil })
		assert.NoError(t, err)
	})

	t.Run("locker failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		locker := mocks.NewMockLocker(ctrl)
		lockErr := errors.New("dial tcp: connection refused")
		locker.EXPECT().TryLock(gomock.Any(), gomock.Any()).Return(nil, lockErr)

		called := false
		err := withUserLock(context.Background(), locker, l, "user-1", func() error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, lockErr)
		assert.NotErrorIs(t, err, domain.ErrSettlementInProgress)
		assert.False(t, called)
	})
}
