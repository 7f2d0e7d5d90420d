package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
)

var errSameParticipants = errors.New("user_a and user_b are the same user")

// DirectConversationLoader создаёт личные чаты и их сообщения.
type DirectConversationLoader struct {
	loaderBase
}

// NewDirectConversationLoader создаёт загрузчик личных чатов.
func NewDirectConversationLoader(store domain.SeedStore, logger zerolog.Logger, startedAt time.Time) *DirectConversationLoader {
	return &DirectConversationLoader{loaderBase: loaderBase{store: store, log: logger, startedAt: startedAt}}
}

// ConversationResult - итог загрузки чатов одного вида.
type ConversationResult struct {
	Chats    domain.Tally
	Messages domain.Tally
}

// Load создаёт чаты в порядке фикстуры.
func (l *DirectConversationLoader) Load(ctx context.Context, users domain.UserIDs, records []domain.DirectChatRecord) (ConversationResult, error) {
	chats := newRecorder(domain.DomainDirectChats, l.log)
	messages := newRecorder(domain.DomainDirectMessages, l.log)

	for _, r := range records {
		key := r.UserA + "/" + r.UserB
		if err := chats.observe(l.loadChat(ctx, users, r, messages), key); err != nil {
			return ConversationResult{Chats: chats.tally, Messages: messages.tally}, err
		}
	}
	l.log.Info().
		Int("chats", chats.tally.Accepted).
		Int("messages", messages.tally.Accepted).
		Int("messages_skipped", messages.tally.Skipped).
		Msg("direct: личные чаты загружены")
	return ConversationResult{Chats: chats.tally, Messages: messages.tally}, nil
}

func (l *DirectConversationLoader) loadChat(ctx context.Context, users domain.UserIDs, r domain.DirectChatRecord, messages *recorder) domain.Outcome {
	userA, ok := users[r.UserA]
	if !ok {
		return domain.Fatal(&domain.ReferenceError{Entity: "user", Key: r.UserA, From: "direct chat user_a"})
	}
	userB, ok := users[r.UserB]
	if !ok {
		return domain.Fatal(&domain.ReferenceError{Entity: "user", Key: r.UserB, From: "direct chat user_b"})
	}
	if userA == userB {
		return domain.Skipped(errSameParticipants)
	}

	chatID, err := l.store.CreateChat(ctx)
	if err != nil {
		return domain.Fatal(fmt.Errorf("создание чата: %w", err))
	}
	if err := l.store.InsertDirectChat(ctx, chatID); err != nil {
		return domain.Fatal(fmt.Errorf("создание личного чата %d: %w", chatID, err))
	}
	for _, userID := range []int64{userA, userB} {
		if err := l.store.AddChatMember(ctx, chatID, userID); err != nil {
			return domain.Fatal(fmt.Errorf("участник %d чата %d: %w", userID, chatID, err))
		}
	}

	// индекс растёт только на вставленных сообщениях
	index := 0
	for _, m := range r.Messages {
		out := l.insertMessage(ctx, chatID, index, userA, userB, m)
		if err := messages.observe(out, fmt.Sprintf("chat %d sender %q", chatID, m.Sender)); err != nil {
			return domain.Fatal(err)
		}
		if out.Kind == domain.OutcomeAccepted {
			index++
		}
	}

	if err := l.refreshCache(ctx, chatID, index, l.store.UpdateDirectChatCache); err != nil {
		return domain.Fatal(fmt.Errorf("сводка чата %d: %w", chatID, err))
	}
	return domain.Accepted()
}

func (l *DirectConversationLoader) insertMessage(ctx context.Context, chatID int64, index int, userA, userB int64, m domain.DirectMessageRecord) domain.Outcome {
	var senderID int64
	switch m.Sender {
	case "a":
		senderID = userA
	case "b":
		senderID = userB
	default:
		return domain.Skipped(&domain.ReferenceError{Entity: "sender tag", Key: m.Sender, From: "direct message"})
	}
	_, err := l.store.InsertChatMessage(ctx, domain.ChatMessage{
		ChatID:      chatID,
		InChatIndex: index,
		SenderID:    senderID,
		Content:     m.Content,
		Timestamp:   m.Timestamp.Or(l.startedAt),
	})
	if err != nil {
		return domain.Fatal(fmt.Errorf("вставка сообщения %d чата %d: %w", index, chatID, err))
	}
	return domain.Accepted()
}
