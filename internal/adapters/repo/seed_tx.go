package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cybercrush-seeder/internal/domain"
	"cybercrush-seeder/internal/infra/metrics"
)

// seedTx реализует domain.SeedTx поверх одной pgx.Tx.
type seedTx struct {
	tx pgx.Tx
}

var _ domain.SeedTx = (*seedTx)(nil)

func (s *seedTx) Commit(ctx context.Context) error {
	start := time.Now()
	err := s.tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "seed", start, err)
	if err != nil {
		return dbError("commit", err)
	}
	return nil
}

func (s *seedTx) Rollback(ctx context.Context) error {
	start := time.Now()
	err := s.tx.Rollback(ctx)
	metrics.ObserveNetworkRequest("postgres", "rollback", "seed", start, err)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return dbError("rollback", err)
	}
	return nil
}

// insertReturningID выполняет INSERT ... RETURNING id.
func (s *seedTx) insertReturningID(ctx context.Context, operation, target, query string, args ...any) (int64, error) {
	var id int64
	start := time.Now()
	err := s.tx.QueryRow(ctx, query, args...).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", operation, target, start, err)
	if err != nil {
		return 0, dbError(operation, err)
	}
	return id, nil
}

func (s *seedTx) exec(ctx context.Context, operation, target, query string, args ...any) (int64, error) {
	start := time.Now()
	tag, err := s.tx.Exec(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", operation, target, start, err)
	if err != nil {
		return 0, dbError(operation, err)
	}
	return tag.RowsAffected(), nil
}

func (s *seedTx) InsertUser(ctx context.Context, user domain.NewUser) (int64, error) {
	var extra any
	if len(user.ExtraData) > 0 {
		extra = []byte(user.ExtraData)
	}
	return s.insertReturningID(ctx, "users_insert", "users", `
INSERT INTO users (username, password, personal_number, extra_data)
VALUES ($1, $2, $3, $4)
RETURNING id
`, user.Username, user.PasswordHash, user.PersonalNumber, extra)
}

func (s *seedTx) InsertBankAccount(ctx context.Context, userID int64, funds *int64) (int64, error) {
	return s.insertReturningID(ctx, "bank_accounts_insert", "bank_accounts", `
INSERT INTO bank_accounts (user_id, funds)
VALUES ($1, $2)
RETURNING id
`, userID, funds)
}

func (s *seedTx) InsertBankTransaction(ctx context.Context, t domain.BankTransaction) (int64, error) {
	return s.insertReturningID(ctx, "bank_transactions_insert", "bank_transactions", `
INSERT INTO bank_transactions (sender_id, receiver_id, message, amount, time_stamp)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, t.SenderAccountID, t.ReceiverAccountID, t.Message, t.Amount, t.Timestamp)
}

func (s *seedTx) CreateChat(ctx context.Context) (int64, error) {
	return s.insertReturningID(ctx, "chats_insert", "chats", `INSERT INTO chats DEFAULT VALUES RETURNING id`)
}

func (s *seedTx) InsertDirectChat(ctx context.Context, chatID int64) error {
	_, err := s.exec(ctx, "direct_chats_insert", "direct_chats", `
INSERT INTO direct_chats (chat_id, next_message_index, last_message, last_time_stamp)
VALUES ($1, 0, NULL, NULL)
`, chatID)
	return err
}

func (s *seedTx) InsertGroupChat(ctx context.Context, chatID, adminID int64, title string) error {
	_, err := s.exec(ctx, "group_chats_insert", "group_chats", `
INSERT INTO group_chats (chat_id, admin_id, title, next_message_index, last_message, last_time_stamp)
VALUES ($1, $2, $3, 0, NULL, NULL)
`, chatID, adminID, title)
	return err
}

func (s *seedTx) AddChatMember(ctx context.Context, chatID, userID int64) error {
	_, err := s.exec(ctx, "user_chats_insert", "user_chats", `
INSERT INTO user_chats (chat_id, user_id)
VALUES ($1, $2)
`, chatID, userID)
	return err
}

func (s *seedTx) InsertChatMessage(ctx context.Context, msg domain.ChatMessage) (int64, error) {
	return s.insertReturningID(ctx, "chat_messages_insert", "chat_messages", `
INSERT INTO chat_messages (chat_id, in_chat_index, sender_id, content, time_stamp)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, msg.ChatID, msg.InChatIndex, msg.SenderID, msg.Content, msg.Timestamp)
}

func (s *seedTx) LatestChatMessage(ctx context.Context, chatID int64) (domain.ChatMessage, bool, error) {
	var msg domain.ChatMessage
	start := time.Now()
	err := s.tx.QueryRow(ctx, `
SELECT id, chat_id, in_chat_index, sender_id, content, time_stamp
FROM chat_messages
WHERE chat_id = $1
ORDER BY time_stamp DESC, id DESC
LIMIT 1
`, chatID).Scan(&msg.ID, &msg.ChatID, &msg.InChatIndex, &msg.SenderID, &msg.Content, &msg.Timestamp)
	metrics.ObserveNetworkRequest("postgres", "chat_messages_latest", "chat_messages", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChatMessage{}, false, nil
	}
	if err != nil {
		return domain.ChatMessage{}, false, dbError("chat_messages_latest", err)
	}
	return msg, true, nil
}

func (s *seedTx) UpdateDirectChatCache(ctx context.Context, chatID int64, cache domain.ChatCache) error {
	return s.updateCache(ctx, "direct_chats", chatID, cache)
}

func (s *seedTx) UpdateGroupChatCache(ctx context.Context, chatID int64, cache domain.ChatCache) error {
	return s.updateCache(ctx, "group_chats", chatID, cache)
}

// updateCache пишет сводку чата. table задаётся кодом, не фикстурой.
func (s *seedTx) updateCache(ctx context.Context, table string, chatID int64, cache domain.ChatCache) error {
	var (
		content   *string
		timestamp *time.Time
	)
	if cache.Last != nil {
		content = &cache.Last.Content
		timestamp = &cache.Last.Timestamp
	}
	query := fmt.Sprintf(`
UPDATE %s
SET next_message_index = $2, last_message = $3, last_time_stamp = $4
WHERE chat_id = $1
`, table)
	affected, err := s.exec(ctx, table+"_cache_update", table, query, chatID, cache.NextMessageIndex, content, timestamp)
	if err != nil {
		return err
	}
	if affected != 1 {
		return dbError(table+"_cache_update", fmt.Errorf("chat %d: %d rows updated", chatID, affected))
	}
	return nil
}

func (s *seedTx) InsertNewsArticle(ctx context.Context, article domain.NewsArticle) (int64, error) {
	return s.insertReturningID(ctx, "news_articles_insert", "news_articles", `
INSERT INTO news_articles (user_id, title, content, timestamp)
VALUES ($1, $2, $3, $4)
RETURNING id
`, article.UserID, article.Title, article.Content, article.Timestamp)
}
