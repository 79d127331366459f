package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/paraglidehq/flake/internal/cli"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRoot(os.Stdout, logger).ExecuteContext(ctx); err != nil {
		logger.WithError(err).Error("flake failed")
		stop()
		os.Exit(1)
	}
}
