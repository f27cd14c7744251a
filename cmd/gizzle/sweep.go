package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gizz1e/Gizzle/internal/config"
	obsmetrics "github.com/Gizz1e/Gizzle/internal/observability/metrics"
	reconciliationdomain "github.com/Gizz1e/Gizzle/internal/reconciliation/domain"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newSweepCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
		timeout   time.Duration
		pushURL   string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile stale pending transactions once and exit",
		Long: `Asks the payment provider for the live state of every pending
transaction older than --older-than and settles those the provider has
already decided.

Examples:
  gizzle sweep
  gizzle sweep --older-than 1h --limit 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reconciler reconciliationdomain.Service
				cfg        config.Config
				log        *zap.Logger
			)
			app := fx.New(
				fx.NopLogger,
				coreModules(),
				fx.Populate(&reconciler, &cfg, &log),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer stopCancel()
				_ = app.Stop(stopCtx)
			}()

			result, err := reconciler.Sweep(ctx, olderThan, limit)
			if result == nil {
				result = &reconciliationdomain.SweepResult{}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d transitioned=%d failed=%d\n",
				result.Scanned, result.Transitioned, result.Failed)

			if pushURL == "" {
				pushURL = cfg.PushgatewayURL
			}
			if pushURL != "" {
				pusher := obsmetrics.NewPushgatewayPusher(pushURL, "gizzle_sweep", map[string]string{
					"environment": cfg.Environment,
				})
				report := obsmetrics.SweepReport{
					Scanned:      result.Scanned,
					Transitioned: result.Transitioned,
					Failed:       result.Failed,
					FinishedAt:   time.Now(),
					Succeeded:    err == nil,
				}
				if pushErr := pusher.PushSweep(context.Background(), report); pushErr != nil {
					log.Warn("failed to push sweep metrics", zap.Error(pushErr))
				}
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 15*time.Minute, "only sweep transactions pending for at least this long")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum transactions to examine")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline for the sweep")
	cmd.Flags().StringVar(&pushURL, "pushgateway", "", "Pushgateway URL for the run's metrics (defaults to PUSHGATEWAY_URL)")
	return cmd
}
