package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fsdevblog/taskcenter/internal/config"
	"github.com/fsdevblog/taskcenter/internal/lock"
	"github.com/fsdevblog/taskcenter/internal/repository/pgrepo"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/internal/service"
	"github.com/fsdevblog/taskcenter/internal/transport/api"
	"github.com/fsdevblog/taskcenter/internal/transport/kafka"
	"github.com/fsdevblog/taskcenter/internal/transport/outbox"
	"github.com/fsdevblog/taskcenter/pkg/uow"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	outboxBatchSize   = 50
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.WithFields(logrus.Fields{
		"address":       a.Config.RunAddress,
		"redis":         a.Config.RedisAddress,
		"kafkaBrokers":  a.Config.KafkaBrokers,
		"kafkaTopic":    a.Config.KafkaTopic,
		"outboxWorkers": a.Config.OutboxWorkers,
	}).Info("starting app")

	conn, connErr := pgrepo.Connect(notifyCtx, pgrepo.ConnectArgs{
		DSN:           a.Config.DatabaseDSN,
		MigrationsDir: a.Config.MigrationsDir,
	}, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %w", connErr)
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %w", uowErr)
	}

	locker, closeLocker, lockerErr := a.initLocker(notifyCtx)
	if lockerErr != nil {
		return fmt.Errorf("app run: %w", lockerErr)
	}
	defer closeLocker()

	var (
		publisher   *kafka.Publisher
		outboxTopic string
	)
	if a.Config.OutboxEnabled() {
		producer, producerErr := kafka.NewSyncProducer(a.Config.KafkaBrokers)
		if producerErr != nil {
			return fmt.Errorf("app run: %w", producerErr)
		}
		publisher = kafka.NewPublisher(producer)
		defer func() {
			if err := publisher.Close(); err != nil {
				a.Logger.WithError(err).Warn("close kafka producer")
			}
		}()
		outboxTopic = a.Config.KafkaTopic
	}

	services, sErr := service.Factory(service.FactoryArgs{
		UOW:               unitOfWork,
		Locker:            locker,
		Rand:              service.NewGlobalRand(),
		OutboxTopic:       outboxTopic,
		OutboxMaxAttempts: a.Config.OutboxMaxAttempts,
		Logger:            a.Logger,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %w", sErr)
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:            a.Logger,
		SettlementService: services.SettlementService,
		SelectorService:   services.SelectorService,
		OrderService:      services.OrderService,
		AccountService:    services.AccountService,
		HealthChecker:     conn,
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %w", routerErr)
	}

	server := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(notifyCtx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if publisher != nil {
		relay := outbox.New(services.OutboxService, publisher, a.Logger).
			SetWorkers(a.Config.OutboxWorkers).
			SetBatchSize(outboxBatchSize)
		g.Go(func() error {
			relay.Run(gCtx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck
	}
	return notifyCtx.Err() //nolint:wrapcheck
}

// initLocker redis блокировка, если задан адрес redis, иначе блокировка в памяти процесса.
func (a *App) initLocker(ctx context.Context) (service.Locker, func(), error) {
	if a.Config.RedisAddress == "" {
		a.Logger.Warn("redis address is not set, user locks are process local")
		return lock.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddress,
		Password: a.Config.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			a.Logger.WithError(err).Warn("close redis client")
		}
	}
	return lock.NewRedisLocker(client, lock.DefaultTTL), closeFn, nil
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.AccountRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewAccountRepository(dbtx)
		},
		repoargs.ProductRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewProductRepository(dbtx)
		},
		repoargs.VipTierRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewVipTierRepository(dbtx)
		},
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOrderRepository(dbtx)
		},
		repoargs.OutboxRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOutboxRepository(dbtx)
		},
	}

	for name, factory := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factory); regErr != nil {
			return nil, fmt.Errorf("init UOW: %w", regErr)
		}
	}

	return unitOfWork, nil
}
