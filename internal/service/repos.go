package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

// txRepos репозитории, привязанные к одной транзакции.
type txRepos struct {
	accounts AccountRepository
	products ProductRepository
	tiers    VipTierRepository
	orders   OrderRepository
	outbox   OutboxRepository
}

func reposFromTX(tx uow.TX) (*txRepos, error) {
	accounts, err := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
	if err != nil {
		return nil, fmt.Errorf("account repository: %w", err)
	}
	products, err := uow.GetAs[ProductRepository](tx, uow.RepositoryName(repoargs.ProductRepoName))
	if err != nil {
		return nil, fmt.Errorf("product repository: %w", err)
	}
	tiers, err := uow.GetAs[VipTierRepository](tx, uow.RepositoryName(repoargs.VipTierRepoName))
	if err != nil {
		return nil, fmt.Errorf("vip tier repository: %w", err)
	}
	orders, err := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, fmt.Errorf("order repository: %w", err)
	}
	outbox, err := uow.GetAs[OutboxRepository](tx, uow.RepositoryName(repoargs.OutboxRepoName))
	if err != nil {
		return nil, fmt.Errorf("outbox repository: %w", err)
	}
	return &txRepos{
		accounts: accounts,
		products: products,
		tiers:    tiers,
		orders:   orders,
		outbox:   outbox,
	}, nil
}

// lockAccount загружает аккаунт с блокировкой строки. Отсутствующий аккаунт -> domain.ErrAccountNotFound.
func (r *txRepos) lockAccount(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := r.accounts.FindByUserIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err //nolint:wrapcheck
	}
	return account, nil
}

// commissionRate ставка VIP уровня аккаунта. Если уровень не найден в vip_tiers, используется
// DefaultCommissionRate.
func commissionRate(ctx context.Context, tiers VipTierRepository, vipLevel int) (decimal.Decimal, error) {
	tier, err := tiers.FindByID(ctx, EffectiveVipLevel(vipLevel))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return CommissionRateFor(nil), nil
		}
		return decimal.Zero, err //nolint:wrapcheck
	}
	return CommissionRateFor(tier), nil
}
