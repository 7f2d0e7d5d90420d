package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cybercrush-seeder/internal/domain"
	"cybercrush-seeder/internal/infra/metrics"
)

const maxStoredReports = 100

// RedisReportQueue публикует отчёты запусков в Redis list.
type RedisReportQueue struct {
	client *redis.Client
	key    string
}

var _ domain.ReportPublisher = (*RedisReportQueue)(nil)

// NewRedisReportQueue создаёт очередь по указанному ключу.
func NewRedisReportQueue(client *redis.Client, key string) *RedisReportQueue {
	return &RedisReportQueue{client: client, key: key}
}

// Publish кладёт отчёт в начало списка и обрезает историю.
func (q *RedisReportQueue) Publish(ctx context.Context, report domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	start := time.Now()
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, q.key, payload)
		pipe.LTrim(ctx, q.key, 0, maxStoredReports-1)
		return nil
	})
	metrics.ObserveNetworkRequest("redis", "report_publish", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push report: %w", err)
	}
	return nil
}

// Recent возвращает до limit последних отчётов, новые первыми.
func (q *RedisReportQueue) Recent(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	raw, err := q.client.LRange(ctx, q.key, 0, int64(limit-1)).Result()
	metrics.ObserveNetworkRequest("redis", "report_recent", q.key, start, err)
	if err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	reports := make([]domain.Report, 0, len(raw))
	for _, item := range raw {
		var report domain.Report
		if err := json.Unmarshal([]byte(item), &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
