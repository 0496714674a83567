package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/internal/transport/api/middlewares"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup          = "/api"
	ProcessOrderRoute   = "/process-order"
	TakeOrderRoute      = "/orders/take"
	CancelOrderRoute    = "/orders/cancel"
	UserOrdersRoute     = "/users/:user_id/orders"
	UserPendingRoute    = "/users/:user_id/orders/pending"
	UserAccountRoute    = "/users/:user_id/account"
	HealthRoute         = "/health"
	userIDParam         = "user_id"
	maxUserIDBytesParam = "128"
)

type RouterArgs struct {
	Logger            *logrus.Logger
	SettlementService SettlementServicer
	SelectorService   SelectorServicer
	OrderService      OrderServicer
	AccountService    AccountServicer
	HealthChecker     HealthChecker
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("new router: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.CORS())
	r.Use(middlewares.Errors())

	settlementHandler := NewSettlementHandler(args.SettlementService)
	ordersHandler := NewOrdersHandler(args.SelectorService, args.OrderService)
	accountsHandler := NewAccountsHandler(args.AccountService)
	healthHandler := NewHealthHandler(args.HealthChecker)

	r.GET(HealthRoute, healthHandler.Show)

	api := r.Group(RouteGroup)
	api.Use(middlewares.AcceptJSON())

	api.POST(ProcessOrderRoute, settlementHandler.Process)

	api.POST(TakeOrderRoute, ordersHandler.Take)
	api.POST(CancelOrderRoute, ordersHandler.Cancel)
	api.GET(UserOrdersRoute, ordersHandler.Index)
	api.GET(UserPendingRoute, ordersHandler.Pending)

	api.GET(UserAccountRoute, accountsHandler.Show)
	return r, nil
}
