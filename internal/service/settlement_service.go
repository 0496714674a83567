package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

// SettleArgs товар указывается по ProductID, либо, для старых клиентов, по точному имени ProductName.
type SettleArgs struct {
	UserID      string
	ProductID   int64
	ProductName string
}

type SettlementResult struct {
	Commission decimal.Decimal
	NewBalance decimal.Decimal
	Mode       domain.CommissionModeType
	Order      *domain.Order
}

// OrderSettledEvent содержимое сообщения outbox о проведенном заказе.
type OrderSettledEvent struct {
	OrderID     uuid.UUID                 `json:"order_id"`
	UserID      string                    `json:"user_id"`
	ProductID   int64                     `json:"product_id"`
	ProductName string                    `json:"product_name"`
	TotalAmount decimal.Decimal           `json:"total_amount"`
	Commission  decimal.Decimal           `json:"commission"`
	NewBalance  decimal.Decimal           `json:"new_balance"`
	Mode        domain.CommissionModeType `json:"mode"`
	SettledAt   time.Time                 `json:"settled_at"`
}

type SettlementService struct {
	uow    uow.UOW
	locker Locker
	rnd    RandSource

	// topic топик outbox сообщений. Пустая строка - сообщения не пишутся.
	topic string
	l     *logrus.Entry
}

func NewSettlementService(u uow.UOW, locker Locker, rnd RandSource, l *logrus.Logger) *SettlementService {
	return &SettlementService{
		uow:    u,
		locker: locker,
		rnd:    rnd,
		l:      l.WithField("component", "settlement_service"),
	}
}

// SetOutboxTopic включает запись события OrderSettledEvent в outbox в той же транзакции, что и проводка.
func (s *SettlementService) SetOutboxTopic(topic string) *SettlementService {
	s.topic = topic
	return s
}

// Settle переводит pending заказ пользователя в completed и начисляет комиссию на баланс.
//
// Все изменения выполняются в одной транзакции под блокировкой пользователя и строки аккаунта:
//  1. Аккаунт (domain.ErrAccountNotFound) и товар (domain.ErrProductNotFound).
//  2. Проверка balance >= price (domain.ErrInsufficientBalance), изменений нет.
//  3. Расчет комиссии в пользовательском режиме или по VIP ставке.
//  4. CAS pending -> completed. Нет подходящего pending заказа -> domain.ErrOrderUpdateFailed.
//  5. Начисление комиссии. Ошибка -> domain.ErrBalanceUpdateFailed, откат транзакции возвращает заказ в pending.
//     Если откат не удался, возвращается *domain.InconsistencyError.
//  6. Запись события в outbox.
//
// Повторных попыток нет. Конкурентный вызов для того же пользователя и повторный вызов после успешного
// получают domain.ErrOrderUpdateFailed.
func (s *SettlementService) Settle(ctx context.Context, args SettleArgs) (*SettlementResult, error) {
	var result *SettlementResult
	// для старых клиентов id товара известен только после поиска по имени.
	productID := args.ProductID

	err := withUserLock(ctx, s.locker, s.l, args.UserID, func() error {
		return s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
			product, res, settleErr := s.settle(c, tx, args)
			if product != nil {
				productID = product.ID
			}
			if settleErr != nil {
				return settleErr
			}
			result = res
			return nil
		})
	})

	if err != nil {
		var rbErr *uow.RollbackError
		if errors.As(err, &rbErr) {
			inconsistency := domain.NewInconsistencyError(args.UserID, productID, err)
			s.l.WithError(inconsistency).WithFields(logrus.Fields{
				"userID":      args.UserID,
				"productID":   productID,
				"productName": args.ProductName,
			}).Error("settlement rollback failed, manual reconciliation required")
			return nil, inconsistency
		}
		if errors.Is(err, domain.ErrSettlementInProgress) {
			// для клиента конкурентная проводка неотличима от повторной.
			return nil, fmt.Errorf("settle order for user `%s`: %w: %w", args.UserID, domain.ErrOrderUpdateFailed, err)
		}
		return nil, fmt.Errorf("settle order for user `%s`: %w", args.UserID, err)
	}

	s.l.WithFields(logrus.Fields{
		"userID":     args.UserID,
		"orderID":    result.Order.ID,
		"commission": result.Commission,
		"newBalance": result.NewBalance,
		"mode":       result.Mode,
	}).Info("order settled")
	return result, nil
}

// settle возвращает найденный товар и при ошибке, если поиск товара успел пройти.
func (s *SettlementService) settle(
	ctx context.Context,
	tx uow.TX,
	args SettleArgs,
) (*domain.Product, *SettlementResult, error) {
	repos, reposErr := reposFromTX(tx)
	if reposErr != nil {
		return nil, nil, reposErr
	}

	account, accErr := repos.lockAccount(ctx, args.UserID)
	if accErr != nil {
		return nil, nil, accErr
	}

	product, productErr := findProduct(ctx, repos.products, args)
	if productErr != nil {
		return nil, nil, productErr
	}

	if account.Balance.LessThan(product.Price) {
		return product, nil, domain.ErrInsufficientBalance
	}

	commission, mode, commissionErr := Commission(s.rnd, account, product.Price, func() (decimal.Decimal, error) {
		return commissionRate(ctx, repos.tiers, account.VipLevel)
	})
	if commissionErr != nil {
		return product, nil, commissionErr
	}

	order, completeErr := repos.orders.Complete(ctx, repoargs.CompleteOrder{
		UserID:      args.UserID,
		ProductID:   product.ID,
		TotalAmount: product.Price,
		Commission:  commission,
	})
	if completeErr != nil {
		return product, nil, fmt.Errorf("%w: %w", domain.ErrOrderUpdateFailed, completeErr)
	}

	newBalance := account.Balance.Add(commission)
	if balanceErr := repos.accounts.UpdateBalance(ctx, args.UserID, newBalance); balanceErr != nil {
		return product, nil, fmt.Errorf("%w: %w", domain.ErrBalanceUpdateFailed, balanceErr)
	}

	result := &SettlementResult{
		Commission: commission,
		NewBalance: newBalance,
		Mode:       mode,
		Order:      order,
	}

	if outboxErr := s.writeOutbox(ctx, repos.outbox, result); outboxErr != nil {
		return product, nil, outboxErr
	}
	return product, result, nil
}

func (s *SettlementService) writeOutbox(ctx context.Context, repo OutboxRepository, res *SettlementResult) error {
	if s.topic == "" {
		return nil
	}
	payload, err := json.Marshal(OrderSettledEvent{
		OrderID:     res.Order.ID,
		UserID:      res.Order.UserID,
		ProductID:   res.Order.ProductID,
		ProductName: res.Order.ProductName,
		TotalAmount: res.Order.TotalAmount,
		Commission:  res.Commission,
		NewBalance:  res.NewBalance,
		Mode:        res.Mode,
		SettledAt:   res.Order.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal settled event: %w", err)
	}
	return repo.Create(ctx, repoargs.CreateOutboxMessage{ //nolint:wrapcheck
		MessageKey: res.Order.ID.String(),
		Topic:      s.topic,
		Payload:    payload,
	})
}

// findProduct ищет товар по id, а если id не указан - по точному имени.
func findProduct(ctx context.Context, products ProductRepository, args SettleArgs) (*domain.Product, error) {
	var (
		product *domain.Product
		err     error
	)
	switch {
	case args.ProductID != 0:
		product, err = products.FindByID(ctx, args.ProductID)
	case args.ProductName != "":
		product, err = products.FindByName(ctx, args.ProductName)
	default:
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err //nolint:wrapcheck
	}
	return product, nil
}
