package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
)

// ContentLoader вставляет новостные статьи.
type ContentLoader struct {
	loaderBase
}

// NewContentLoader создаёт загрузчик новостей.
func NewContentLoader(store domain.SeedStore, logger zerolog.Logger, startedAt time.Time) *ContentLoader {
	return &ContentLoader{loaderBase: loaderBase{store: store, log: logger, startedAt: startedAt}}
}

// Load вставляет статьи; статьи неизвестных авторов пропускаются.
func (l *ContentLoader) Load(ctx context.Context, users domain.UserIDs, records []domain.NewsRecord) (domain.Tally, error) {
	rec := newRecorder(domain.DomainNewsArticles, l.log)
	for _, r := range records {
		if err := rec.observe(l.insertArticle(ctx, users, r), r.Title); err != nil {
			return rec.tally, err
		}
	}
	l.log.Info().Int("accepted", rec.tally.Accepted).Int("skipped", rec.tally.Skipped).Msg("content: новости загружены")
	return rec.tally, nil
}

func (l *ContentLoader) insertArticle(ctx context.Context, users domain.UserIDs, r domain.NewsRecord) domain.Outcome {
	userID, ok := users[r.Username]
	if !ok {
		return domain.Skipped(&domain.ReferenceError{Entity: "user", Key: r.Username, From: "news article author"})
	}
	_, err := l.store.InsertNewsArticle(ctx, domain.NewsArticle{
		UserID:    userID,
		Title:     r.Title,
		Content:   r.Content,
		Timestamp: r.Timestamp.Or(l.startedAt),
	})
	if err != nil {
		return domain.Fatal(fmt.Errorf("вставка статьи %q: %w", r.Title, err))
	}
	return domain.Accepted()
}
