package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"cybercrush-seeder/internal/domain"
)

func TestIdentityLoaderSkipsInvalidRecords(t *testing.T) {
	store := newMemStore()
	hasher := &fakeHasher{}
	records := []domain.UserRecord{
		{Username: "alice", Password: "pw1"},
		{Username: strings.Repeat("x", 17), Password: "pw"},
		{Username: "bob", Password: strings.Repeat("p", 33)},
		{Username: "carol", Password: "pw3", ExtraData: json.RawMessage(`{"bio": "` + strings.Repeat("b", 80) + `"}`)},
		{Username: "dave", Password: "pw4"},
	}

	ids, tally, err := NewIdentityLoader(store, hasher, testRand(), nopLogger(), testStart).Load(context.Background(), testSettings(), records)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if tally.Accepted != 2 || tally.Skipped != 3 {
		t.Fatalf("ожидали 2 принятых и 3 пропущенных, получили %+v", tally)
	}
	if len(ids) != 2 || ids["alice"] == 0 || ids["dave"] == 0 {
		t.Fatalf("неверное отображение username -> id: %v", ids)
	}
	if hasher.calls != 2 {
		t.Fatalf("хешировать нужно только принятые записи, вызовов %d", hasher.calls)
	}
	user := store.state.users[ids["alice"]]
	if user.PasswordHash != "hash:pw1:pepper" {
		t.Fatalf("пароль должен храниться в виде хеша с pepper, получили %q", user.PasswordHash)
	}
	if user.PasswordHash == "pw1" {
		t.Fatalf("пароль не должен храниться открыто")
	}
	if user.PersonalNumber == store.state.users[ids["dave"]].PersonalNumber {
		t.Fatalf("персональные номера должны различаться")
	}
}

func TestIdentityLoaderCapacityInsertsNothing(t *testing.T) {
	store := newMemStore()
	settings := testSettings()
	records := make([]domain.UserRecord, domain.PersonalNumberCapacity+1)
	for i := range records {
		records[i] = domain.UserRecord{Username: fmt.Sprintf("u%d", i), Password: "pw"}
	}

	_, _, err := NewIdentityLoader(store, &fakeHasher{}, testRand(), nopLogger(), testStart).Load(context.Background(), settings, records)
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("ожидали CapacityError, получили %v", err)
	}
	if len(store.state.users) != 0 {
		t.Fatalf("при нехватке номеров не должно быть вставок, вставлено %d", len(store.state.users))
	}
}

func TestIdentityLoaderInvalidRecordsDoNotConsumeNumbers(t *testing.T) {
	store := newMemStore()
	records := make([]domain.UserRecord, 0, domain.PersonalNumberCapacity+1)
	for i := 0; i < domain.PersonalNumberCapacity; i++ {
		records = append(records, domain.UserRecord{Username: fmt.Sprintf("u%d", i), Password: "pw"})
	}
	records = append(records, domain.UserRecord{Username: strings.Repeat("z", 40), Password: "pw"})

	ids, tally, err := NewIdentityLoader(store, &fakeHasher{}, testRand(), nopLogger(), testStart).Load(context.Background(), testSettings(), records)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(ids) != domain.PersonalNumberCapacity || tally.Skipped != 1 {
		t.Fatalf("ожидали %d пользователей и 1 пропуск, получили %d и %+v", domain.PersonalNumberCapacity, len(ids), tally)
	}
}

func TestIdentityLoaderDuplicateUsernameIsFatal(t *testing.T) {
	store := newMemStore()
	records := []domain.UserRecord{
		{Username: "alice", Password: "a"},
		{Username: "alice", Password: "b"},
	}
	_, _, err := NewIdentityLoader(store, &fakeHasher{}, testRand(), nopLogger(), testStart).Load(context.Background(), testSettings(), records)
	var dbErr *domain.DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("ожидали DatabaseError, получили %v", err)
	}
	if dbErr.Constraint != "users_username_key" {
		t.Fatalf("ожидали нарушение уникальности username, получили %q", dbErr.Constraint)
	}
}

func TestValidateUserExtraData(t *testing.T) {
	limits := testSettings().Limits
	cases := []struct {
		name   string
		raw    string
		want   string
		accept bool
	}{
		{"absent", "", "", true},
		{"null", "null", "", true},
		{"compacted", `{ "city" : "Paris" }`, `{"city":"Paris"}`, true},
		{"broken", `{"city":`, "", false},
		{"too long", `{"bio":"` + strings.Repeat("a", 70) + `"}`, "", false},
	}
	for _, tc := range cases {
		extra, out := validateUser(domain.UserRecord{Username: "u", Password: "p", ExtraData: json.RawMessage(tc.raw)}, limits)
		if (out.Kind == domain.OutcomeAccepted) != tc.accept {
			t.Fatalf("%s: неожиданный результат %s: %v", tc.name, out.Kind, out.Err)
		}
		if string(extra) != tc.want {
			t.Fatalf("%s: ожидали %q, получили %q", tc.name, tc.want, extra)
		}
	}
}

func TestValidateUserLengthsAreInclusive(t *testing.T) {
	limits := testSettings().Limits
	cases := []struct {
		name     string
		username string
		password string
		field    string
	}{
		{"at limit", strings.Repeat("u", limits.MaxUsernameLength), strings.Repeat("p", limits.MaxPasswordLength), ""},
		{"cyrillic at limit", "александрапетров", "пароль", ""},
		{"cyrillic password at limit", "u", strings.Repeat("ж", limits.MaxPasswordLength), ""},
		{"username over limit", strings.Repeat("u", limits.MaxUsernameLength+1), "p", "username"},
		{"cyrillic over limit", "александрапетрова", "p", "username"},
		{"password over limit", "u", strings.Repeat("ж", limits.MaxPasswordLength+1), "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, out := validateUser(domain.UserRecord{Username: tc.username, Password: tc.password}, limits)
			if tc.field == "" {
				if out.Kind != domain.OutcomeAccepted {
					t.Fatalf("длина в символах не больше лимита, ожидали приём: %v", out.Err)
				}
				return
			}
			var vErr *domain.ValidationError
			if out.Kind != domain.OutcomeSkipped || !errors.As(out.Err, &vErr) || vErr.Field != tc.field {
				t.Fatalf("ожидали пропуск по %s, получили %s: %v", tc.field, out.Kind, out.Err)
			}
		})
	}
}
