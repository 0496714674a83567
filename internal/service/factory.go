package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/pkg/uow"
)

type AppServices struct {
	SelectorService   *SelectorService
	SettlementService *SettlementService
	OrderService      *OrderService
	AccountService    *AccountService
	OutboxService     *OutboxService
}

type FactoryArgs struct {
	UOW    uow.UOW
	Locker Locker
	Rand   RandSource

	// OutboxTopic пустое значение отключает запись событий в outbox.
	OutboxTopic       string
	OutboxMaxAttempts int
	Logger            *logrus.Logger
}

func Factory(args FactoryArgs) (*AppServices, error) {
	rnd := args.Rand
	if rnd == nil {
		rnd = NewGlobalRand()
	}

	orderService, orderServiceErr := NewOrderService(args.UOW, args.Locker, args.Logger)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %w", orderServiceErr)
	}

	accountService, accountServiceErr := NewAccountService(args.UOW)
	if accountServiceErr != nil {
		return nil, fmt.Errorf("service factory: %w", accountServiceErr)
	}

	outboxService, outboxServiceErr := NewOutboxService(args.UOW)
	if outboxServiceErr != nil {
		return nil, fmt.Errorf("service factory: %w", outboxServiceErr)
	}
	outboxService.SetMaxAttempts(args.OutboxMaxAttempts)

	settlementService := NewSettlementService(args.UOW, args.Locker, rnd, args.Logger).
		SetOutboxTopic(args.OutboxTopic)

	return &AppServices{
		SelectorService:   NewSelectorService(args.UOW, args.Locker, rnd, args.Logger),
		SettlementService: settlementService,
		OrderService:      orderService,
		AccountService:    accountService,
		OutboxService:     outboxService,
	}, nil
}
