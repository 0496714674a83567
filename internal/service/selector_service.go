package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

// SelectorService подбирает пользователю товар из каталога и резервирует его как pending заказ.
type SelectorService struct {
	uow    uow.UOW
	locker Locker
	rnd    RandSource
	l      *logrus.Entry
}

func NewSelectorService(u uow.UOW, locker Locker, rnd RandSource, l *logrus.Logger) *SelectorService {
	return &SelectorService{
		uow:    u,
		locker: locker,
		rnd:    rnd,
		l:      l.WithField("component", "selector_service"),
	}
}

// TakeOrder выбирает товар для пользователя userID и создает pending заказ.
//
// Алгоритм работы:
//  1. Если у пользователя уже есть pending заказ, возвращает domain.ErrPendingOrderExists.
//  2. Загружает аккаунт (domain.ErrAccountNotFound).
//  3. Отбирает товары уровня max(vip_level, 1) с ценой не выше баланса. Пустой список -> domain.ErrNoEligibleProduct,
//     заказ не создается.
//  4. В пользовательском режиме комиссии загружает ставку уровня и выбирает товар с ценой, ближайшей к ((min+max)/2)/rate,
//     иначе - случайный товар.
//  5. Создает заказ. Гонка на уникальном индексе pending заказов также дает domain.ErrPendingOrderExists.
func (s *SelectorService) TakeOrder(ctx context.Context, userID string) (*domain.Order, error) {
	var order *domain.Order

	err := withUserLock(ctx, s.locker, s.l, userID, func() error {
		return s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
			repos, reposErr := reposFromTX(tx)
			if reposErr != nil {
				return reposErr
			}

			if pendingErr := s.ensureNoPending(c, repos.orders, userID); pendingErr != nil {
				return pendingErr
			}

			account, accErr := repos.lockAccount(c, userID)
			if accErr != nil {
				return accErr
			}

			products, listErr := repos.products.ListEligible(c, repoargs.EligibleProducts{
				VipLevelID: EffectiveVipLevel(account.VipLevel),
				MaxPrice:   account.Balance,
			})
			if listErr != nil {
				return listErr //nolint:wrapcheck
			}
			eligible := eligibleProducts(products, account)
			if dropped := len(products) - len(eligible); dropped > 0 {
				s.l.WithFields(logrus.Fields{
					"userID":  userID,
					"dropped": dropped,
				}).Warn("storage returned ineligible products")
			}
			if len(eligible) == 0 {
				return domain.ErrNoEligibleProduct
			}

			rng, custom := CustomRangeOf(account)
			var rate decimal.Decimal
			if custom {
				var rateErr error
				if rate, rateErr = commissionRate(c, repos.tiers, account.VipLevel); rateErr != nil {
					return rateErr
				}
			}
			product := selectProduct(eligible, rng, custom, rate, s.rnd)

			created, createErr := repos.orders.Create(c, repoargs.CreateOrder{
				ID:          uuid.New(),
				UserID:      userID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    1,
				TotalAmount: product.Price,
			})
			if createErr != nil {
				if errors.Is(createErr, domain.ErrDuplicateKey) {
					return domain.ErrPendingOrderExists
				}
				return createErr //nolint:wrapcheck
			}
			order = created
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("take order for user `%s`: %w", userID, err)
	}

	s.l.WithFields(logrus.Fields{
		"userID":    userID,
		"orderID":   order.ID,
		"productID": order.ProductID,
		"amount":    order.TotalAmount,
	}).Info("order taken")
	return order, nil
}

func (s *SelectorService) ensureNoPending(ctx context.Context, orders OrderRepository, userID string) error {
	_, err := orders.FindPendingByUserID(ctx, userID)
	if err == nil {
		return domain.ErrPendingOrderExists
	}
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil
	}
	return err //nolint:wrapcheck
}

// eligibleProducts оставляет товары уровня max(vip_level, 1) с ценой не выше баланса аккаунта.
func eligibleProducts(products []domain.Product, account *domain.Account) []domain.Product {
	tier := EffectiveVipLevel(account.VipLevel)
	eligible := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.VipLevelID == tier && p.Price.LessThanOrEqual(account.Balance) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// selectProduct выбирает товар из непустого списка eligible.
// В пользовательском режиме берется товар с ценой, ближайшей к целевой сумме заказа; при равенстве
// расстояний побеждает первый в порядке каталога. Иначе товар выбирается равновероятно.
func selectProduct(
	eligible []domain.Product,
	rng CommissionRange,
	custom bool,
	rate decimal.Decimal,
	rnd RandSource,
) domain.Product {
	if !custom {
		return eligible[rnd.IntN(len(eligible))]
	}

	if !rate.IsPositive() {
		rate = DefaultCommissionRate
	}
	target := rng.Mid().Div(rate)

	best := eligible[0]
	bestDistance := best.Price.Sub(target).Abs()
	for _, p := range eligible[1:] {
		if d := p.Price.Sub(target).Abs(); d.LessThan(bestDistance) {
			best = p
			bestDistance = d
		}
	}
	return best
}
