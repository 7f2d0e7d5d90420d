package domain

import (
	"encoding/json"
	"time"
)

// NewUser описывает пользователя, готового к вставке.
type NewUser struct {
	Username       string
	PasswordHash   string
	PersonalNumber string
	ExtraData      json.RawMessage
}

// BankAccount описывает банковский счёт пользователя.
// Funds == nil означает, что баланс в фикстуре не задан.
type BankAccount struct {
	ID     int64
	UserID int64
	Funds  *int64
}

// BankTransaction описывает перевод между счетами.
// Баланс счетов переводами не меняется.
type BankTransaction struct {
	ID                int64
	SenderAccountID   int64
	ReceiverAccountID int64
	Message           string
	Amount            int64
	Timestamp         time.Time
}

// ChatMessage описывает сообщение чата.
type ChatMessage struct {
	ID          int64
	ChatID      int64
	InChatIndex int
	SenderID    int64
	Content     string
	Timestamp   time.Time
}

// ChatCache хранит денормализованную сводку по чату.
// Last == nil, если в чате нет сообщений.
type ChatCache struct {
	NextMessageIndex int
	Last             *ChatMessage
}

// NewsArticle описывает новостную статью.
type NewsArticle struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	Timestamp time.Time
}

// UserIDs сопоставляет username с id пользователя.
type UserIDs map[string]int64

// AccountIDs сопоставляет username с id банковского счёта.
type AccountIDs map[string]int64

// LatestMessage возвращает сообщение с максимальным временем.
// При равенстве времени побеждает сообщение с большим id.
// Это эталон правила ORDER BY time_stamp DESC, id DESC из адаптера БД
// для проверочных инструментов и хранилищ в памяти.
func LatestMessage(messages []ChatMessage) (ChatMessage, bool) {
	if len(messages) == 0 {
		return ChatMessage{}, false
	}
	best := messages[0]
	for _, m := range messages[1:] {
		if m.Timestamp.After(best.Timestamp) || (m.Timestamp.Equal(best.Timestamp) && m.ID > best.ID) {
			best = m
		}
	}
	return best, true
}
