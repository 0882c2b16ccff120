package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vesting-indexer/indexer/context"
	"vesting-indexer/indexer/migrations"
	"vesting-indexer/indexer/runner"
	"vesting-indexer/indexer/shared"
	"vesting-indexer/logger"
)

func main() {
	ctx, err := context.BuildContext()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	logger.InitLogger(ctx.Config().Logger)

	err = migrations.Container.ExecuteAll(ctx.DB())
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}

	cancelChan := make(chan os.Signal, 1)
	signal.Notify(cancelChan, os.Interrupt, syscall.SIGTERM)

	// Prometheus metrics
	shared.InitMetricsServer(&ctx.Config().Metrics)

	runner.Start(ctx)

	<-cancelChan
	logger.Info("Stopped vesting indexer")
}
