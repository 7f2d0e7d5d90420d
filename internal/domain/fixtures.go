package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp принимает время фикстуры в одном из поддерживаемых форматов.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
}

// UnmarshalJSON разбирает строку времени; null оставляет значение пустым.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*t = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = Timestamp{Time: parsed.UTC(), Valid: true}
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", raw)
}

// Or возвращает время фикстуры или fallback, если оно не задано.
func (t Timestamp) Or(fallback time.Time) time.Time {
	if t.Valid {
		return t.Time
	}
	return fallback
}

// UserRecord - запись фикстуры пользователей.
type UserRecord struct {
	Username  string          `json:"username"`
	Password  string          `json:"password"`
	ExtraData json.RawMessage `json:"extra_data,omitempty"`
}

// BankRecord - запись фикстуры банка.
type BankRecord struct {
	Username     string              `json:"username"`
	CurrentFunds *int64              `json:"current_funds"`
	Transactions []TransactionRecord `json:"transactions"`
}

// TransactionRecord - исходящий перевод владельца BankRecord.
type TransactionRecord struct {
	Receiver  string    `json:"receiver"`
	Amount    int64     `json:"amount"`
	Message   string    `json:"message"`
	Timestamp Timestamp `json:"timestamp"`
}

// DirectChatRecord - запись фикстуры личных чатов.
type DirectChatRecord struct {
	UserA    string                `json:"user_a"`
	UserB    string                `json:"user_b"`
	Messages []DirectMessageRecord `json:"messages"`
}

// DirectMessageRecord - сообщение личного чата, Sender равен "a" или "b".
type DirectMessageRecord struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// Ordinal - порядковый номер участника группы (user_1 -> 1).
type Ordinal int

// UnmarshalJSON принимает число или строку с числом.
func (o *Ordinal) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("ordinal: %w", err)
	}
	*o = Ordinal(n)
	return nil
}

// GroupChatRecord - запись фикстуры групповых чатов.
// Members содержит слоты user_N как есть, без проверки непрерывности.
type GroupChatRecord struct {
	Admin    string
	Title    string
	Members  map[int]string
	Messages []GroupMessageRecord
}

// GroupMessageRecord - сообщение группы, Sender ссылается на слот user_N.
type GroupMessageRecord struct {
	Sender    Ordinal   `json:"sender"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

const memberSlotPrefix = "user_"

// UnmarshalJSON собирает слоты user_N в Members.
func (g *GroupChatRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	out := GroupChatRecord{Members: make(map[int]string)}
	for key, raw := range fields {
		var err error
		switch {
		case key == "admin":
			err = json.Unmarshal(raw, &out.Admin)
		case key == "title":
			err = json.Unmarshal(raw, &out.Title)
		case key == "messages":
			err = json.Unmarshal(raw, &out.Messages)
		case strings.HasPrefix(key, memberSlotPrefix):
			suffix := strings.TrimPrefix(key, memberSlotPrefix)
			slot, convErr := strconv.Atoi(suffix)
			// user_01 и user_+1 не считаются слотом 1
			if convErr != nil || slot < 1 || strconv.Itoa(slot) != suffix {
				continue
			}
			var username string
			err = json.Unmarshal(raw, &username)
			out.Members[slot] = username
		}
		if err != nil {
			return fmt.Errorf("group chat field %s: %w", key, err)
		}
	}
	*g = out
	return nil
}

// NewsRecord - запись фикстуры новостей.
type NewsRecord struct {
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// Fixtures объединяет фикстуры одного запуска. nil означает, что файл не передан.
type Fixtures struct {
	Users       []UserRecord
	Bank        []BankRecord
	DirectChats []DirectChatRecord
	GroupChats  []GroupChatRecord
	News        []NewsRecord
}
