package service

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

// memStore хранилище в памяти для тестов, где важна атомарность транзакций.
// Транзакции выполняются строго последовательно, ошибка fn откатывает все изменения.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	products map[int64]domain.Product
	tiers    map[int]domain.VipTier
	orders   []domain.Order
	outbox   []domain.OutboxMessage

	// failBalance если задана, возвращается из UpdateBalance.
	failBalance error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]domain.Account),
		products: make(map[int64]domain.Product),
		tiers:    make(map[int]domain.VipTier),
	}
}

type memSnapshot struct {
	accounts map[string]domain.Account
	orders   []domain.Order
	outbox   []domain.OutboxMessage
}

func (m *memStore) snapshot() memSnapshot {
	return memSnapshot{
		accounts: maps.Clone(m.accounts),
		orders:   slices.Clone(m.orders),
		outbox:   slices.Clone(m.outbox),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.accounts = s.accounts
	m.orders = s.orders
	m.outbox = s.outbox
}

// Do реализует uow.UOW.
func (m *memStore) Do(ctx context.Context, fn func(ctx context.Context, tx uow.TX) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(ctx, memTX{store: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) Register(uow.RepositoryName, uow.RepositoryFactory) error {
	return nil
}

// GetRepository репозитории вне транзакции. В тестах с memStore не используются.
func (m *memStore) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	return memTX{store: m}.Get(name)
}

func (m *memStore) account(userID string) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[userID]
}

func (m *memStore) ordersOf(userID string) []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			res = append(res, o)
		}
	}
	return res
}

func (m *memStore) outboxMessages() []domain.OutboxMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.outbox)
}

type memTX struct {
	store *memStore
}

func (t memTX) Get(name uow.RepositoryName) (uow.Repository, error) {
	switch repoargs.RepositoryName(name) {
	case repoargs.AccountRepoName:
		return memAccounts{t.store}, nil
	case repoargs.ProductRepoName:
		return memProducts{t.store}, nil
	case repoargs.VipTierRepoName:
		return memTiers{t.store}, nil
	case repoargs.OrderRepoName:
		return memOrders{t.store}, nil
	case repoargs.OutboxRepoName:
		return memOutbox{t.store}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

type memAccounts struct{ s *memStore }

func (r memAccounts) FindByUserID(_ context.Context, userID string) (*domain.Account, error) {
	a, ok := r.s.accounts[userID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &a, nil
}

func (r memAccounts) FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Account, error) {
	return r.FindByUserID(ctx, userID)
}

func (r memAccounts) UpdateBalance(_ context.Context, userID string, balance decimal.Decimal) error {
	if r.s.failBalance != nil {
		return r.s.failBalance
	}
	a, ok := r.s.accounts[userID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if balance.IsNegative() {
		return domain.ErrConstraintViolation
	}
	a.Balance = balance
	r.s.accounts[userID] = a
	return nil
}

type memProducts struct{ s *memStore }

func (r memProducts) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &p, nil
}

func (r memProducts) FindByName(_ context.Context, name string) (*domain.Product, error) {
	for _, p := range r.s.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r memProducts) ListEligible(_ context.Context, args repoargs.EligibleProducts) ([]domain.Product, error) {
	res := make([]domain.Product, 0)
	for _, id := range slices.Sorted(maps.Keys(r.s.products)) {
		p := r.s.products[id]
		if p.VipLevelID == args.VipLevelID && p.Price.LessThanOrEqual(args.MaxPrice) {
			res = append(res, p)
		}
	}
	return res, nil
}

type memTiers struct{ s *memStore }

func (r memTiers) FindByID(_ context.Context, id int) (*domain.VipTier, error) {
	t, ok := r.s.tiers[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &t, nil
}

type memOrders struct{ s *memStore }

func (r memOrders) Create(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	for _, o := range r.s.orders {
		if o.UserID == args.UserID && o.Status == domain.OrderStatusPending {
			return nil, domain.ErrDuplicateKey
		}
	}
	order := domain.Order{
		ID:          args.ID,
		UserID:      args.UserID,
		ProductID:   args.ProductID,
		ProductName: args.ProductName,
		Quantity:    args.Quantity,
		TotalAmount: args.TotalAmount,
		Status:      domain.OrderStatusPending,
	}
	r.s.orders = append(r.s.orders, order)
	return &order, nil
}

func (r memOrders) FindPendingByUserID(_ context.Context, userID string) (*domain.Order, error) {
	for _, o := range r.s.orders {
		if o.UserID == userID && o.Status == domain.OrderStatusPending {
			return &o, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r memOrders) Complete(_ context.Context, args repoargs.CompleteOrder) (*domain.Order, error) {
	for i, o := range r.s.orders {
		if o.UserID == args.UserID && o.ProductID == args.ProductID &&
			domain.CanTransitionTo(o.Status, domain.OrderStatusCompleted) {
			o.Status = domain.OrderStatusCompleted
			o.TotalAmount = args.TotalAmount
			o.Commission = decimal.NewNullDecimal(args.Commission)
			r.s.orders[i] = o
			return &o, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r memOrders) Cancel(_ context.Context, userID string) (*domain.Order, error) {
	for i, o := range r.s.orders {
		if o.UserID == userID && domain.CanTransitionTo(o.Status, domain.OrderStatusCancelled) {
			o.Status = domain.OrderStatusCancelled
			r.s.orders[i] = o
			return &o, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r memOrders) GetByUserID(_ context.Context, userID string) ([]domain.Order, error) {
	res := make([]domain.Order, 0)
	for _, o := range r.s.orders {
		if o.UserID == userID {
			res = append(res, o)
		}
	}
	return res, nil
}

type memOutbox struct{ s *memStore }

func (r memOutbox) Create(_ context.Context, args repoargs.CreateOutboxMessage) error {
	r.s.outbox = append(r.s.outbox, domain.OutboxMessage{
		ID:         int64(len(r.s.outbox) + 1),
		MessageKey: args.MessageKey,
		Topic:      args.Topic,
		Payload:    args.Payload,
		Status:     domain.OutboxStatusPending,
	})
	return nil
}

func (r memOutbox) GetPending(context.Context, int) ([]domain.OutboxMessage, error) {
	return slices.Clone(r.s.outbox), nil
}

func (r memOutbox) MarkSent(context.Context, []int64) error {
	return nil
}

func (r memOutbox) IncrementAttempts(context.Context, []int64, int) error {
	return nil
}

// freeLocker всегда выдает блокировку. Позволяет проверить, что повторное начисление
// исключается самой транзакцией, без блокировки пользователя.
type freeLocker struct{}

func (freeLocker) TryLock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
