package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
	"cybercrush-seeder/internal/infra/metrics"
)

// loaderBase - общее окружение загрузчиков одного запуска.
type loaderBase struct {
	store     domain.SeedStore
	log       zerolog.Logger
	startedAt time.Time
}

// recorder считает результаты записей одного домена.
type recorder struct {
	domain string
	log    zerolog.Logger
	tally  domain.Tally
}

func newRecorder(domainName string, logger zerolog.Logger) *recorder {
	return &recorder{domain: domainName, log: logger}
}

// observe учитывает результат записи и возвращает ошибку только для Fatal.
// Fatal не логируется здесь: ошибку выводит вызывающий код.
func (r *recorder) observe(out domain.Outcome, key string) error {
	metrics.ObserveRecord(r.domain, out.Kind.String())
	switch out.Kind {
	case domain.OutcomeSkipped:
		r.tally.Skipped++
		r.log.Warn().Err(out.Err).Str("domain", r.domain).Str("record", key).Msg("запись пропущена")
		return nil
	case domain.OutcomeFatal:
		return out.Err
	default:
		r.tally.Accepted++
		return nil
	}
}

// refreshCache пересчитывает сводку чата после вставки всех его сообщений.
func (b loaderBase) refreshCache(ctx context.Context, chatID int64, inserted int, update func(context.Context, int64, domain.ChatCache) error) error {
	cache := domain.ChatCache{NextMessageIndex: inserted}
	last, ok, err := b.store.LatestChatMessage(ctx, chatID)
	if err != nil {
		return err
	}
	if ok {
		cache.Last = &last
	}
	return update(ctx, chatID, cache)
}
