package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
)

// IdentityLoader проверяет и вставляет пользователей.
type IdentityLoader struct {
	loaderBase
	hasher domain.CredentialHasher
	rnd    *rand.Rand
}

// NewIdentityLoader создаёт загрузчик пользователей.
func NewIdentityLoader(store domain.SeedStore, hasher domain.CredentialHasher, rnd *rand.Rand, logger zerolog.Logger, startedAt time.Time) *IdentityLoader {
	return &IdentityLoader{
		loaderBase: loaderBase{store: store, log: logger, startedAt: startedAt},
		hasher:     hasher,
		rnd:        rnd,
	}
}

type acceptedUser struct {
	record    domain.UserRecord
	extraData json.RawMessage
}

// Load вставляет прошедшие проверку записи и возвращает username -> id.
// Номера выдаются до первой вставки, поэтому CapacityError не оставляет строк.
func (l *IdentityLoader) Load(ctx context.Context, settings domain.Settings, records []domain.UserRecord) (domain.UserIDs, domain.Tally, error) {
	rec := newRecorder(domain.DomainUsers, l.log)

	accepted := make([]acceptedUser, 0, len(records))
	for _, r := range records {
		extra, out := validateUser(r, settings.Limits)
		if out.Kind == domain.OutcomeAccepted {
			accepted = append(accepted, acceptedUser{record: r, extraData: extra})
			continue
		}
		if err := rec.observe(out, r.Username); err != nil {
			return nil, rec.tally, err
		}
	}

	numbers, err := DrawPersonalNumbers(len(accepted), l.rnd)
	if err != nil {
		return nil, rec.tally, rec.observe(domain.Fatal(err), "")
	}

	ids := make(domain.UserIDs, len(accepted))
	for i, u := range accepted {
		out := l.insertUser(ctx, settings.Pepper, u, numbers[i], ids)
		if err := rec.observe(out, u.record.Username); err != nil {
			return nil, rec.tally, err
		}
	}
	l.log.Info().Int("accepted", rec.tally.Accepted).Int("skipped", rec.tally.Skipped).Msg("identity: пользователи загружены")
	return ids, rec.tally, nil
}

func (l *IdentityLoader) insertUser(ctx context.Context, pepper string, u acceptedUser, number string, ids domain.UserIDs) domain.Outcome {
	hash, err := l.hasher.Hash(u.record.Password, pepper)
	if err != nil {
		return domain.Fatal(fmt.Errorf("хеширование пароля %s: %w", u.record.Username, err))
	}
	id, err := l.store.InsertUser(ctx, domain.NewUser{
		Username:       u.record.Username,
		PasswordHash:   hash,
		PersonalNumber: number,
		ExtraData:      u.extraData,
	})
	if err != nil {
		return domain.Fatal(fmt.Errorf("вставка пользователя %s: %w", u.record.Username, err))
	}
	ids[u.record.Username] = id
	return domain.Accepted()
}

// validateUser проверяет длины полей в символах и возвращает компактный extra_data.
func validateUser(r domain.UserRecord, limits domain.Limits) (json.RawMessage, domain.Outcome) {
	if n := utf8.RuneCountInString(r.Username); n > limits.MaxUsernameLength {
		return nil, domain.Skipped(&domain.ValidationError{Record: r.Username, Field: "username", Limit: limits.MaxUsernameLength, Actual: n})
	}
	if n := utf8.RuneCountInString(r.Password); n > limits.MaxPasswordLength {
		return nil, domain.Skipped(&domain.ValidationError{Record: r.Username, Field: "password", Limit: limits.MaxPasswordLength, Actual: n})
	}
	extra, err := compactExtraData(r.ExtraData)
	if err != nil {
		return nil, domain.Skipped(fmt.Errorf("extra_data of %q: %w", r.Username, err))
	}
	if n := len(extra); n > limits.MaxExtraDataLength {
		return nil, domain.Skipped(&domain.ValidationError{Record: r.Username, Field: "extra_data", Limit: limits.MaxExtraDataLength, Actual: n})
	}
	return extra, domain.Accepted()
}

func compactExtraData(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
