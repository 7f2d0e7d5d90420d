package domain

import (
	"errors"
	"testing"
)

func TestSettingsValidate(t *testing.T) {
	valid := Settings{Pepper: "p", Limits: Limits{MaxUsernameLength: 1, MaxPasswordLength: 1, MaxExtraDataLength: 1, MaxGroupChatMembers: 1}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	noPepper := valid
	noPepper.Pepper = ""
	zeroLimit := valid
	zeroLimit.Limits.MaxPasswordLength = 0

	cases := map[string]Settings{
		"DATABASE_PASSWORD_PEPPER": noPepper,
		"MAX_PASSWORD_LENGTH":      zeroLimit,
	}
	for key, s := range cases {
		var cfgErr *ConfigurationError
		if err := s.Validate(); !errors.As(err, &cfgErr) || cfgErr.Key != key {
			t.Fatalf("ожидали ConfigurationError по %s, получили %v", key, err)
		}
	}
}

func TestDatabaseErrorUnwrap(t *testing.T) {
	cause := errors.New("driver")
	err := &DatabaseError{Op: "insert", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("DatabaseError должен раскрывать исходную ошибку")
	}
}
