package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"slotbook/config"
	"slotbook/cron"
	"slotbook/utils"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume reconciliation tasks from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			if cfg.StorageBackend == "memory" {
				return fmt.Errorf("the worker needs the mongo backend; memory mode records reconciliations in process")
			}
			logger := utils.GetLogger()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			store, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			redisOpts := utils.QueueRedisOpt()
			go cron.MonitorQueueConnection(ctx, redisOpts, logger)

			return cron.NewReconcileWorker(redisOpts, store.Reconciliations, logger).Run(ctx)
		},
	}
}
