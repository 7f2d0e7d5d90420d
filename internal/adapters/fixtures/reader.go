package fixtures

import (
	"encoding/json"
	"fmt"
	"os"

	"cybercrush-seeder/internal/domain"
)

// Paths - пути к файлам фикстур. Пустой путь означает, что домен не загружается.
type Paths struct {
	Users       string
	Bank        string
	DirectChats string
	GroupChats  string
	News        string
}

// Load читает все переданные фикстуры.
func Load(paths Paths) (domain.Fixtures, error) {
	if paths.Users == "" {
		return domain.Fixtures{}, domain.ErrUsersFixtureRequired
	}
	var (
		out domain.Fixtures
		err error
	)
	if out.Users, err = readFile[domain.UserRecord](paths.Users); err != nil {
		return domain.Fixtures{}, err
	}
	if out.Bank, err = readFile[domain.BankRecord](paths.Bank); err != nil {
		return domain.Fixtures{}, err
	}
	if out.DirectChats, err = readFile[domain.DirectChatRecord](paths.DirectChats); err != nil {
		return domain.Fixtures{}, err
	}
	if out.GroupChats, err = readFile[domain.GroupChatRecord](paths.GroupChats); err != nil {
		return domain.Fixtures{}, err
	}
	if out.News, err = readFile[domain.NewsRecord](paths.News); err != nil {
		return domain.Fixtures{}, err
	}
	return out, nil
}

func readFile[T any](path string) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return Decode[T](raw, path)
}

// Decode разбирает JSON-массив фикстуры. Пустой массив даёт не-nil срез.
func Decode[T any](raw []byte, name string) ([]T, error) {
	records := make([]T, 0)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", name, err)
	}
	if records == nil {
		records = make([]T, 0)
	}
	return records, nil
}
