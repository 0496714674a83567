package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/lock"
)

const flowTopic = "order.settled"

func seedStore() *memStore {
	store := newMemStore()
	store.tiers[1] = domain.VipTier{ID: 1, CommissionRate: dec("0.05")}
	store.tiers[2] = domain.VipTier{ID: 2, CommissionRate: dec("0.08")}
	store.products[1] = domain.Product{ID: 1, Name: "Phone", Price: dec("100"), VipLevelID: 2}
	store.products[2] = domain.Product{ID: 2, Name: "Cable", Price: dec("20"), VipLevelID: 1}
	store.products[3] = domain.Product{ID: 3, Name: "Laptop", Price: dec("900"), VipLevelID: 2}
	store.accounts["user-1"] = domain.Account{UserID: "user-1", Balance: dec("100"), VipLevel: 2}
	return store
}

func takeAndSettleServices(store *memStore, locker Locker) (*SelectorService, *SettlementService) {
	rnd := NewSeededRand(1)
	selector := NewSelectorService(store, locker, rnd, testLogger())
	settlement := NewSettlementService(store, locker, rnd, testLogger()).SetOutboxTopic(flowTopic)
	return selector, settlement
}

// TestTakeAndSettle полный цикл: единственный доступный товар резервируется и проводится.
func TestTakeAndSettle(t *testing.T) {
	store := seedStore()
	selector, settlement := takeAndSettleServices(store, lock.NewLocalLocker())
	ctx := context.Background()

	order, err := selector.TakeOrder(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ProductID)

	_, err = selector.TakeOrder(ctx, "user-1")
	require.ErrorIs(t, err, domain.ErrPendingOrderExists)

	res, err := settlement.Settle(ctx, SettleArgs{UserID: "user-1", ProductID: order.ProductID})
	require.NoError(t, err)
	assert.True(t, dec("8").Equal(res.Commission))
	assert.True(t, dec("108").Equal(store.account("user-1").Balance))

	orders := store.ordersOf("user-1")
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusCompleted, orders[0].Status)
	assert.True(t, orders[0].Commission.Valid)

	messages := store.outboxMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, flowTopic, messages[0].Topic)

	var event OrderSettledEvent
	require.NoError(t, json.Unmarshal(messages[0].Payload, &event))
	assert.Equal(t, order.ID, event.OrderID)

	// повторная проводка того же заказа не начисляет комиссию второй раз.
	_, err = settlement.Settle(ctx, SettleArgs{UserID: "user-1", ProductID: order.ProductID})
	require.ErrorIs(t, err, domain.ErrOrderUpdateFailed)
	assert.True(t, dec("108").Equal(store.account("user-1").Balance))
}

// TestSettle_FractionalVipCommission комиссия price * rate с шестью знаками после запятой
// возвращается, записывается и публикуется одним и тем же значением.
func TestSettle_FractionalVipCommission(t *testing.T) {
	store := newMemStore()
	store.tiers[1] = domain.VipTier{ID: 1, CommissionRate: dec("0.0625")}
	store.products[7] = domain.Product{ID: 7, Name: "Mug", Price: dec("33.33"), VipLevelID: 1}
	store.accounts["user-2"] = domain.Account{UserID: "user-2", Balance: dec("100"), VipLevel: 0}
	selector, settlement := takeAndSettleServices(store, lock.NewLocalLocker())
	ctx := context.Background()

	order, err := selector.TakeOrder(ctx, "user-2")
	require.NoError(t, err)

	res, err := settlement.Settle(ctx, SettleArgs{UserID: "user-2", ProductID: order.ProductID})
	require.NoError(t, err)

	assert.Equal(t, "2.083125", res.Commission.String())
	assert.Equal(t, "102.083125", res.NewBalance.String())
	assert.True(t, res.NewBalance.Equal(store.account("user-2").Balance))
	require.True(t, res.Order.Commission.Valid)
	assert.True(t, res.Commission.Equal(res.Order.Commission.Decimal))

	messages := store.outboxMessages()
	require.Len(t, messages, 1)
	var event OrderSettledEvent
	require.NoError(t, json.Unmarshal(messages[0].Payload, &event))
	assert.True(t, res.Commission.Equal(event.Commission))
	assert.True(t, res.NewBalance.Equal(event.NewBalance))
}

// TestSettle_BalanceFailureRollsBack заказ остается pending, баланс не меняется, событие не пишется.
func TestSettle_BalanceFailureRollsBack(t *testing.T) {
	store := seedStore()
	selector, settlement := takeAndSettleServices(store, lock.NewLocalLocker())
	ctx := context.Background()

	order, err := selector.TakeOrder(ctx, "user-1")
	require.NoError(t, err)

	store.failBalance = errors.New("connection reset")
	_, err = settlement.Settle(ctx, SettleArgs{UserID: "user-1", ProductID: order.ProductID})
	require.ErrorIs(t, err, domain.ErrBalanceUpdateFailed)

	orders := store.ordersOf("user-1")
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status)
	assert.False(t, orders[0].Commission.Valid)
	assert.True(t, dec("100").Equal(store.account("user-1").Balance))
	assert.Empty(t, store.outboxMessages())

	// после восстановления заказ проводится.
	store.failBalance = nil
	_, err = settlement.Settle(ctx, SettleArgs{UserID: "user-1", ProductID: order.ProductID})
	require.NoError(t, err)
	assert.True(t, dec("108").Equal(store.account("user-1").Balance))
}

// TestSettle_ConcurrentSingleCredit конкурентные проводки одного заказа начисляют комиссию ровно один раз.
func TestSettle_ConcurrentSingleCredit(t *testing.T) {
	lockers := map[string]Locker{
		"local locker":   lock.NewLocalLocker(),
		"without locker": freeLocker{},
	}

	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			store := seedStore()
			selector, settlement := takeAndSettleServices(store, locker)
			ctx := context.Background()

			order, err := selector.TakeOrder(ctx, "user-1")
			require.NoError(t, err)

			const workers = 16
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
				errs      []error
			)
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, settleErr := settlement.Settle(ctx, SettleArgs{UserID: "user-1", ProductID: order.ProductID})

					mu.Lock()
					defer mu.Unlock()
					if settleErr == nil {
						succeeded++
						return
					}
					errs = append(errs, settleErr)
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, succeeded)
			for _, e := range errs {
				assert.ErrorIs(t, e, domain.ErrOrderUpdateFailed)
			}
			assert.True(t, dec("108").Equal(store.account("user-1").Balance))
			assert.Len(t, store.outboxMessages(), 1)
		})
	}
}

// TestTakeOrder_InsufficientForAll баланс меньше цены любого товара уровня: заказ не создается.
func TestTakeOrder_InsufficientForAll(t *testing.T) {
	store := seedStore()
	store.accounts["user-1"] = domain.Account{UserID: "user-1", Balance: decimal.NewFromInt(10), VipLevel: 2}
	selector, _ := takeAndSettleServices(store, lock.NewLocalLocker())

	_, err := selector.TakeOrder(context.Background(), "user-1")
	require.ErrorIs(t, err, domain.ErrNoEligibleProduct)
	assert.Empty(t, store.ordersOf("user-1"))
}
