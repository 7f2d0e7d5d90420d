package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cybercrush-seeder/internal/adapters/fixtures"
	"cybercrush-seeder/internal/adapters/hasher"
	"cybercrush-seeder/internal/adapters/repo"
	"cybercrush-seeder/internal/domain"
	"cybercrush-seeder/internal/infra/cache"
	"cybercrush-seeder/internal/infra/config"
	"cybercrush-seeder/internal/infra/db"
	apphttp "cybercrush-seeder/internal/infra/http"
	applog "cybercrush-seeder/internal/infra/log"
	"cybercrush-seeder/internal/infra/metrics"
	"cybercrush-seeder/internal/infra/queue"
	"cybercrush-seeder/internal/usecase/ingest"
)

type loadOptions struct {
	paths  fixtures.Paths
	dryRun bool
}

func newLoadCmd() *cobra.Command {
	var opts loadOptions
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Загрузить фикстуры одной транзакцией",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.paths.Users, "users", "", "Фикстура пользователей (обязательна)")
	cmd.Flags().StringVar(&opts.paths.Bank, "bank", "", "Фикстура банковских счетов и переводов")
	cmd.Flags().StringVar(&opts.paths.DirectChats, "direct-chats", "", "Фикстура личных чатов")
	cmd.Flags().StringVar(&opts.paths.GroupChats, "group-chats", "", "Фикстура групповых чатов")
	cmd.Flags().StringVar(&opts.paths.News, "news", "", "Фикстура новостей")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Выполнить загрузку и откатить транзакцию")
	cmd.PreRunE = func(*cobra.Command, []string) error {
		if opts.paths.Users == "" {
			return &usageError{err: domain.ErrUsersFixtureRequired}
		}
		return nil
	}
	return cmd
}

func runLoad(ctx context.Context, out io.Writer, opts loadOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := applog.NewLogger(cfg.AppEnv)

	data, err := fixtures.Load(opts.paths)
	if err != nil {
		return &usageError{err: err}
	}

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)
	if cfg.Metrics.Addr != "" {
		server := apphttp.NewServer(logger, registry)
		server.Start(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("seeder: сервер метрик не остановлен")
			}
		}()
	}
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
			logger.Error().Err(err).Str("path", cfg.Metrics.Textfile).Msg("seeder: textfile с метриками не записан")
		}
	}()

	var coordOpts []ingest.Option
	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			return fmt.Errorf("подключение к Redis: %w", err)
		}
		defer closeRedis(client, logger)
		coordOpts = append(coordOpts,
			ingest.WithRunLock(cache.NewRedisLock(client, cfg.Redis.LockKey, cfg.Redis.LockTTL)),
			ingest.WithReportPublisher(queue.NewRedisReportQueue(client, cfg.Redis.ReportKey)),
		)
	}

	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		return &domain.DatabaseError{Op: "connect", Err: err}
	}
	defer pool.Close()

	coordinator := ingest.NewCoordinator(repo.NewPostgres(pool), hasher.NewArgon2(), cfg.Settings(), logger, coordOpts...)
	report, err := coordinator.Run(ctx, data, ingest.RunOptions{DryRun: opts.dryRun})
	if err != nil {
		logger.Error().Err(err).Str("run_id", report.RunID).Msg("seeder: загрузка прервана, транзакция откачена")
		return err
	}
	printReport(out, report)
	return nil
}

func printReport(out io.Writer, report domain.Report) {
	status := "committed"
	if !report.Committed {
		status = "rolled back (dry run)"
	}
	fmt.Fprintf(out, "run %s: %s in %s\n", report.RunID, status, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	for _, name := range domain.DomainOrder {
		tally, ok := report.Domains[name]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%-18s accepted %d, skipped %d\n", name, tally.Accepted, tally.Skipped)
	}
}

func closeRedis(client *redis.Client, logger zerolog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error().Err(err).Msg("seeder: redis не закрыт")
	}
}
