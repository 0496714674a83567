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

// AccountView аккаунт вместе с действующим VIP уровнем и ставкой комиссии.
type AccountView struct {
	Account          *domain.Account
	EffectiveLevel   int
	CommissionRate   decimal.Decimal
	CustomCommission *CommissionRange
}

type AccountService struct {
	accountRepo AccountRepository
	tierRepo    VipTierRepository
}

func NewAccountService(u uow.UOW) (*AccountService, error) {
	accountRepo, err := uow.GetRepositoryAs[AccountRepository](u, uow.RepositoryName(repoargs.AccountRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	tierRepo, err := uow.GetRepositoryAs[VipTierRepository](u, uow.RepositoryName(repoargs.VipTierRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &AccountService{
		accountRepo: accountRepo,
		tierRepo:    tierRepo,
	}, nil
}

// Get возвращает аккаунт пользователя. Отсутствующий аккаунт -> domain.ErrAccountNotFound.
func (a *AccountService) Get(ctx context.Context, userID string) (*AccountView, error) {
	account, err := a.accountRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account of user `%s`: %w", userID, err)
	}

	rate, rateErr := commissionRate(ctx, a.tierRepo, account.VipLevel)
	if rateErr != nil {
		return nil, fmt.Errorf("get account of user `%s`: %w", userID, rateErr)
	}

	view := &AccountView{
		Account:        account,
		EffectiveLevel: EffectiveVipLevel(account.VipLevel),
		CommissionRate: rate,
	}
	if rng, ok := CustomRangeOf(account); ok {
		view.CustomCommission = &rng
	}
	return view, nil
}
