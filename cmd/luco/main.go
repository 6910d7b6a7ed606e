package main

import (
	"context"
	"errors"
	"os"

	"github.com/lucosms/luco-service/internal/logger"

	"github.com/lucosms/luco-service/internal/app"
	"github.com/lucosms/luco-service/internal/config"
)

func main() {
	conf := config.MustLoadConfig()
	l := logger.New(os.Stdout)

	if err := app.New(conf, l).Run(); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("graceful shutdown")
			os.Exit(0)
		}
		panic(err)
	}
}
