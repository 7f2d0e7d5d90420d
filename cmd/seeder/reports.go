package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cybercrush-seeder/internal/domain"
	"cybercrush-seeder/internal/infra/cache"
	"cybercrush-seeder/internal/infra/config"
	applog "cybercrush-seeder/internal/infra/log"
	"cybercrush-seeder/internal/infra/queue"
)

func newReportsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Показать отчёты последних запусков из Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReports(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Сколько последних отчётов вывести")
	return cmd
}

func runReports(ctx context.Context, out io.Writer, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		return &usageError{err: fmt.Errorf("--limit must be positive, got %d", limit)}
	}
	cfg, err := config.Process()
	if err != nil {
		return err
	}
	if cfg.Redis.Addr == "" {
		return &domain.ConfigurationError{Key: "REDIS_ADDR", Reason: "is required for reports"}
	}
	logger := applog.NewLogger(cfg.AppEnv)

	client, err := cache.Connect(ctx, cfg.Redis.Addr)
	if err != nil {
		return fmt.Errorf("подключение к Redis: %w", err)
	}
	defer closeRedis(client, logger)

	reports, err := queue.NewRedisReportQueue(client, cfg.Redis.ReportKey).Recent(ctx, limit)
	if err != nil {
		return err
	}
	return writeReports(out, reports)
}

func writeReports(out io.Writer, reports []domain.Report) error {
	enc := json.NewEncoder(out)
	for _, r := range reports {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
