package main

import (
	"context"
	"errors"
	"os"

	"github.com/fsdevblog/taskcenter/internal/app"
	"github.com/fsdevblog/taskcenter/internal/config"
	"github.com/fsdevblog/taskcenter/internal/logger"
)

func main() {
	conf := config.MustLoadConfig()

	var opts []logger.Option
	if conf.LogLevel != "" {
		opts = append(opts, logger.WithLevel(conf.Level()))
	}
	l := logger.New(os.Stdout, opts...)

	if err := app.New(conf, l).Run(); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("graceful shutdown")
			os.Exit(0)
		}
		l.WithError(err).Fatal("app stopped")
	}
}
