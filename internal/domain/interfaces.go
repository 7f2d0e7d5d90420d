package domain

import "context"

// SeedStore выполняет вставки одного запуска загрузки.
// Все методы работают в рамках одной транзакции и возвращают *DatabaseError.
type SeedStore interface {
	InsertUser(ctx context.Context, user NewUser) (int64, error)
	InsertBankAccount(ctx context.Context, userID int64, funds *int64) (int64, error)
	InsertBankTransaction(ctx context.Context, tx BankTransaction) (int64, error)

	CreateChat(ctx context.Context) (int64, error)
	InsertDirectChat(ctx context.Context, chatID int64) error
	InsertGroupChat(ctx context.Context, chatID, adminID int64, title string) error
	AddChatMember(ctx context.Context, chatID, userID int64) error
	InsertChatMessage(ctx context.Context, msg ChatMessage) (int64, error)
	// LatestChatMessage возвращает сообщение с максимальным временем (при равенстве - с большим id).
	LatestChatMessage(ctx context.Context, chatID int64) (ChatMessage, bool, error)
	UpdateDirectChatCache(ctx context.Context, chatID int64, cache ChatCache) error
	UpdateGroupChatCache(ctx context.Context, chatID int64, cache ChatCache) error

	InsertNewsArticle(ctx context.Context, article NewsArticle) (int64, error)
}

// SeedTx - транзакция запуска, которой владеет координатор.
type SeedTx interface {
	SeedStore
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SeedTxBeginner открывает транзакцию запуска.
type SeedTxBeginner interface {
	BeginSeed(ctx context.Context) (SeedTx, error)
}

// CredentialHasher хеширует пароль вместе с pepper и возвращает строку с солью.
type CredentialHasher interface {
	Hash(password, pepper string) (string, error)
}

// RunLock не даёт двум запускам загрузки писать одновременно.
type RunLock interface {
	Acquire(ctx context.Context, owner string) (bool, error)
	Release(ctx context.Context, owner string) error
}

// ReportPublisher публикует отчёт о завершённом запуске.
type ReportPublisher interface {
	Publish(ctx context.Context, report Report) error
}
