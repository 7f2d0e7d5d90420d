package ingest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
	applog "cybercrush-seeder/internal/infra/log"
	"cybercrush-seeder/internal/infra/metrics"
)

// Coordinator запускает загрузчики по порядку в одной транзакции.
type Coordinator struct {
	beginner  domain.SeedTxBeginner
	hasher    domain.CredentialHasher
	settings  domain.Settings
	log       zerolog.Logger
	lock      domain.RunLock
	publisher domain.ReportPublisher
	now       func() time.Time
	newRand   func() (*rand.Rand, error)
	newRunID  func() string
}

// Option настраивает Coordinator.
type Option func(*Coordinator)

// WithRunLock включает блокировку запуска.
func WithRunLock(lock domain.RunLock) Option {
	return func(c *Coordinator) { c.lock = lock }
}

// WithReportPublisher публикует отчёт после коммита.
func WithReportPublisher(p domain.ReportPublisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithRand подменяет генератор персональных номеров.
func WithRand(newRand func() (*rand.Rand, error)) Option {
	return func(c *Coordinator) { c.newRand = newRand }
}

// WithRunID подменяет генератор идентификаторов запуска.
func WithRunID(newRunID func() string) Option {
	return func(c *Coordinator) { c.newRunID = newRunID }
}

// NewCoordinator создаёт координатор загрузки.
func NewCoordinator(beginner domain.SeedTxBeginner, hasher domain.CredentialHasher, settings domain.Settings, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		beginner: beginner,
		hasher:   hasher,
		settings: settings,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
		newRand:  NewRand,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOptions - параметры одного запуска.
type RunOptions struct {
	// DryRun выполняет всю загрузку и откатывает транзакцию вместо коммита.
	DryRun bool
}

// Run выполняет загрузку. При любой фатальной ошибке транзакция откатывается
// до возврата ошибки, строки запуска не сохраняются.
func (c *Coordinator) Run(ctx context.Context, fixtures domain.Fixtures, opts RunOptions) (domain.Report, error) {
	if fixtures.Users == nil {
		return domain.Report{}, domain.ErrUsersFixtureRequired
	}
	if err := c.settings.Validate(); err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		RunID:     c.newRunID(),
		StartedAt: c.now(),
		DryRun:    opts.DryRun,
		Domains:   make(map[string]domain.Tally),
	}
	logger := c.log.With().Str("run_id", report.RunID).Logger()

	if c.lock != nil {
		ok, err := c.lock.Acquire(ctx, report.RunID)
		if err != nil {
			return report, fmt.Errorf("блокировка запуска: %w", err)
		}
		if !ok {
			return report, domain.ErrRunInProgress
		}
		defer func() {
			if err := c.lock.Release(context.WithoutCancel(ctx), report.RunID); err != nil {
				logger.Error().Err(err).Msg("coordinator: не удалось снять блокировку")
			}
		}()
	}

	start := time.Now()
	err := c.runInTx(ctx, fixtures, opts, &report, logger)
	metrics.ObserveRun(start, err)
	report.FinishedAt = c.now()
	if err != nil {
		return report, err
	}

	if report.Committed && c.publisher != nil {
		if err := c.publisher.Publish(ctx, report); err != nil {
			logger.Error().Err(err).Msg("coordinator: отчёт не опубликован")
		}
	}
	logger.Info().Bool("dry_run", opts.DryRun).Bool("committed", report.Committed).Msg("coordinator: загрузка завершена")
	return report, nil
}

func (c *Coordinator) runInTx(ctx context.Context, fixtures domain.Fixtures, opts RunOptions, report *domain.Report, logger zerolog.Logger) (err error) {
	rnd, err := c.newRand()
	if err != nil {
		return err
	}

	tx, err := c.beginner.BeginSeed(ctx)
	if err != nil {
		return err
	}
	resolved := false
	defer func() {
		if resolved {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error().Err(rbErr).Msg("coordinator: откат не выполнен")
			err = errors.Join(err, rbErr)
		}
	}()

	startedAt := report.StartedAt
	sub := func(component string) zerolog.Logger {
		return applog.ForComponent(logger, component, "")
	}

	users, tally, err := NewIdentityLoader(tx, c.hasher, rnd, sub("identity"), startedAt).Load(ctx, c.settings, fixtures.Users)
	report.Add(domain.DomainUsers, tally)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	if fixtures.Bank != nil {
		res, err := NewLedgerLoader(tx, sub("ledger"), startedAt).Load(ctx, users, fixtures.Bank)
		report.Add(domain.DomainBankAccounts, res.AccountTally)
		report.Add(domain.DomainBankTransactions, res.TxTally)
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
	}

	if fixtures.DirectChats != nil {
		res, err := NewDirectConversationLoader(tx, sub("direct"), startedAt).Load(ctx, users, fixtures.DirectChats)
		report.Add(domain.DomainDirectChats, res.Chats)
		report.Add(domain.DomainDirectMessages, res.Messages)
		if err != nil {
			return fmt.Errorf("direct chats: %w", err)
		}
	}

	if fixtures.GroupChats != nil {
		res, err := NewGroupConversationLoader(tx, sub("group"), startedAt).Load(ctx, c.settings, users, fixtures.GroupChats)
		report.Add(domain.DomainGroupChats, res.Chats)
		report.Add(domain.DomainGroupMessages, res.Messages)
		if err != nil {
			return fmt.Errorf("group chats: %w", err)
		}
	}

	if fixtures.News != nil {
		tally, err := NewContentLoader(tx, sub("content"), startedAt).Load(ctx, users, fixtures.News)
		report.Add(domain.DomainNewsArticles, tally)
		if err != nil {
			return fmt.Errorf("news: %w", err)
		}
	}

	resolved = true
	if opts.DryRun {
		logger.Info().Msg("coordinator: пробный запуск, транзакция откатывается")
		return tx.Rollback(ctx)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	report.Committed = true
	return nil
}
