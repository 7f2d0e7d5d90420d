package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
)

// GroupConversationLoader создаёт групповые чаты с администратором и участниками.
type GroupConversationLoader struct {
	loaderBase
}

// NewGroupConversationLoader создаёт загрузчик групповых чатов.
func NewGroupConversationLoader(store domain.SeedStore, logger zerolog.Logger, startedAt time.Time) *GroupConversationLoader {
	return &GroupConversationLoader{loaderBase: loaderBase{store: store, log: logger, startedAt: startedAt}}
}

// Load создаёт группы в порядке фикстуры.
func (l *GroupConversationLoader) Load(ctx context.Context, settings domain.Settings, users domain.UserIDs, records []domain.GroupChatRecord) (ConversationResult, error) {
	chats := newRecorder(domain.DomainGroupChats, l.log)
	messages := newRecorder(domain.DomainGroupMessages, l.log)

	for _, r := range records {
		out := l.loadChat(ctx, settings.Limits, users, r, messages)
		if err := chats.observe(out, r.Title); err != nil {
			return ConversationResult{Chats: chats.tally, Messages: messages.tally}, err
		}
	}
	l.log.Info().
		Int("chats", chats.tally.Accepted).
		Int("chats_skipped", chats.tally.Skipped).
		Int("messages", messages.tally.Accepted).
		Msg("group: групповые чаты загружены")
	return ConversationResult{Chats: chats.tally, Messages: messages.tally}, nil
}

// contiguousSlots возвращает число слотов user_1..user_N без разрыва
// и номера слотов, идущих после разрыва.
func contiguousSlots(members map[int]string) (int, []int) {
	n := 0
	for {
		if _, ok := members[n+1]; !ok {
			break
		}
		n++
	}
	var ignored []int
	for slot := range members {
		if slot > n {
			ignored = append(ignored, slot)
		}
	}
	sort.Ints(ignored)
	return n, ignored
}

func (l *GroupConversationLoader) loadChat(ctx context.Context, limits domain.Limits, users domain.UserIDs, r domain.GroupChatRecord, messages *recorder) domain.Outcome {
	adminID, ok := users[r.Admin]
	if !ok {
		return domain.Fatal(&domain.ReferenceError{Entity: "user", Key: r.Admin, From: "group chat admin"})
	}

	count, ignored := contiguousSlots(r.Members)
	if count > limits.MaxGroupChatMembers {
		return domain.Skipped(&domain.ValidationError{Record: r.Title, Field: "members", Limit: limits.MaxGroupChatMembers, Actual: count})
	}
	if len(ignored) > 0 {
		// TODO: решить, должны ли слоты после разрыва (user_1, user_3) попадать в группу
		l.log.Warn().Str("title", r.Title).Ints("slots", ignored).Msg("group: слоты после разрыва в нумерации не загружаются")
	}

	ordinals := make(map[domain.Ordinal]int64, count)
	for slot := 1; slot <= count; slot++ {
		username := r.Members[slot]
		userID, ok := users[username]
		if !ok {
			return domain.Fatal(&domain.ReferenceError{Entity: "user", Key: username, From: fmt.Sprintf("group chat %q user_%d", r.Title, slot)})
		}
		ordinals[domain.Ordinal(slot)] = userID
	}

	chatID, err := l.store.CreateChat(ctx)
	if err != nil {
		return domain.Fatal(fmt.Errorf("создание чата: %w", err))
	}
	if err := l.store.InsertGroupChat(ctx, chatID, adminID, r.Title); err != nil {
		return domain.Fatal(fmt.Errorf("создание группы %d: %w", chatID, err))
	}

	memberIDs := make([]int64, 0, count+1)
	seen := make(map[int64]struct{}, count+1)
	for slot := 1; slot <= count; slot++ {
		memberIDs = append(memberIDs, ordinals[domain.Ordinal(slot)])
	}
	memberIDs = append(memberIDs, adminID)
	for _, userID := range memberIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		if err := l.store.AddChatMember(ctx, chatID, userID); err != nil {
			return domain.Fatal(fmt.Errorf("участник %d группы %d: %w", userID, chatID, err))
		}
	}

	index := 0
	for _, m := range r.Messages {
		out := l.insertMessage(ctx, chatID, index, ordinals, r.Title, m)
		if err := messages.observe(out, fmt.Sprintf("group %d sender %d", chatID, m.Sender)); err != nil {
			return domain.Fatal(err)
		}
		index++
	}

	if err := l.refreshCache(ctx, chatID, index, l.store.UpdateGroupChatCache); err != nil {
		return domain.Fatal(fmt.Errorf("сводка группы %d: %w", chatID, err))
	}
	return domain.Accepted()
}

func (l *GroupConversationLoader) insertMessage(ctx context.Context, chatID int64, index int, ordinals map[domain.Ordinal]int64, title string, m domain.GroupMessageRecord) domain.Outcome {
	senderID, ok := ordinals[m.Sender]
	if !ok {
		return domain.Fatal(&domain.ReferenceError{Entity: "group member", Key: fmt.Sprintf("user_%d", m.Sender), From: fmt.Sprintf("message sender in %q", title)})
	}
	_, err := l.store.InsertChatMessage(ctx, domain.ChatMessage{
		ChatID:      chatID,
		InChatIndex: index,
		SenderID:    senderID,
		Content:     m.Content,
		Timestamp:   m.Timestamp.Or(l.startedAt),
	})
	if err != nil {
		return domain.Fatal(fmt.Errorf("вставка сообщения %d группы %d: %w", index, chatID, err))
	}
	return domain.Accepted()
}
