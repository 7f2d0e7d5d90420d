package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cybercrush-seeder/internal/domain"
	"cybercrush-seeder/internal/infra/metrics"
)

// Postgres открывает транзакции загрузки на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.SeedTxBeginner = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// BeginSeed открывает единственную транзакцию запуска.
func (p *Postgres) BeginSeed(ctx context.Context) (domain.SeedTx, error) {
	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "seed", start, err)
	if err != nil {
		return nil, dbError("begin transaction", err)
	}
	return &seedTx{tx: tx}, nil
}

func dbError(op string, err error) error {
	out := &domain.DatabaseError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		out.Code = pgErr.Code
		out.Constraint = pgErr.ConstraintName
	}
	return out
}

// IsUniqueViolation сообщает, что ошибка вызвана нарушением уникальности.
func IsUniqueViolation(err error) bool {
	var dbErr *domain.DatabaseError
	if errors.As(err, &dbErr) && dbErr.Code != "" {
		return dbErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
