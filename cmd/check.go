package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpulse/csipd/app"
	"github.com/gridpulse/csipd/config"
	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/infra/logger"
)

var (
	checkResource  string
	checkTimestamp string
	checkWait      time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Trigger one dispatch run for a resource and change timestamp",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkResource, "resource", "", "resource kind to check (e.g. dynamic_operating_envelope)")
	checkCmd.Flags().StringVar(&checkTimestamp, "timestamp", "", "change timestamp, RFC3339 (default: now)")
	checkCmd.Flags().DurationVar(&checkWait, "wait", 5*time.Second, "how long to wait for deliveries before exiting")
	_ = checkCmd.MarkFlagRequired("resource")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resource, err := model.ParseSubscriptionResource(checkResource)
	if err != nil {
		return err
	}
	ts := time.Now().UTC()
	if checkTimestamp != "" {
		ts, err = time.Parse(time.RFC3339, checkTimestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Notify.Enabled = true
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	logg := logger.New("check-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := svc.Run(runCtx); err != nil {
			logg.Errorf("service run: %v", err)
		}
	}()

	if !svc.Manager.NotifyChangedEntities(ctx, resource, ts) {
		return fmt.Errorf("dispatch run for %s at %s was not enqueued", resource, ts)
	}
	logg.Infof("dispatch run enqueued for %s at %s", resource, ts)

	select {
	case <-time.After(checkWait):
	case <-ctx.Done():
	}
	return nil
}
