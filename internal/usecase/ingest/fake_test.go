package ingest

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testSettings() domain.Settings {
	return domain.Settings{
		Pepper: "pepper",
		Limits: domain.Limits{
			MaxUsernameLength:   16,
			MaxPasswordLength:   32,
			MaxExtraDataLength:  64,
			MaxGroupChatMembers: 4,
		},
	}
}

func testRand() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func ptr(v int64) *int64 { return &v }

type groupRow struct {
	adminID int64
	title   string
	cache   domain.ChatCache
}

// memState - содержимое таблиц в памяти.
type memState struct {
	nextID       int64
	users        map[int64]domain.NewUser
	usernames    map[string]int64
	accounts     []domain.BankAccount
	transactions []domain.BankTransaction
	chats        []int64
	direct       map[int64]domain.ChatCache
	groups       map[int64]groupRow
	members      map[int64][]int64
	messages     []domain.ChatMessage
	news         []domain.NewsArticle
}

func newMemState() *memState {
	return &memState{
		users:     make(map[int64]domain.NewUser),
		usernames: make(map[string]int64),
		direct:    make(map[int64]domain.ChatCache),
		groups:    make(map[int64]groupRow),
		members:   make(map[int64][]int64),
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memState) chatMessages(chatID int64) []domain.ChatMessage {
	var out []domain.ChatMessage
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// memStore реализует domain.SeedTx поверх memState.
// failOn задаёт операцию, которая вернёт ошибку базы.
type memStore struct {
	state  *memState
	failOn string
	calls  int
}

func newMemStore() *memStore { return &memStore{state: newMemState()} }

func (s *memStore) fail(op string) error {
	s.calls++
	if s.failOn == op {
		return &domain.DatabaseError{Op: op, Code: "XX000", Err: errors.New("injected failure")}
	}
	return nil
}

func (s *memStore) InsertUser(_ context.Context, user domain.NewUser) (int64, error) {
	if err := s.fail("InsertUser"); err != nil {
		return 0, err
	}
	if _, dup := s.state.usernames[user.Username]; dup {
		return 0, &domain.DatabaseError{Op: "insert user", Code: "23505", Constraint: "users_username_key", Err: errors.New("duplicate key")}
	}
	id := s.state.id()
	s.state.users[id] = user
	s.state.usernames[user.Username] = id
	return id, nil
}

func (s *memStore) InsertBankAccount(_ context.Context, userID int64, funds *int64) (int64, error) {
	if err := s.fail("InsertBankAccount"); err != nil {
		return 0, err
	}
	id := s.state.id()
	s.state.accounts = append(s.state.accounts, domain.BankAccount{ID: id, UserID: userID, Funds: funds})
	return id, nil
}

func (s *memStore) InsertBankTransaction(_ context.Context, tx domain.BankTransaction) (int64, error) {
	if err := s.fail("InsertBankTransaction"); err != nil {
		return 0, err
	}
	tx.ID = s.state.id()
	s.state.transactions = append(s.state.transactions, tx)
	return tx.ID, nil
}

func (s *memStore) CreateChat(context.Context) (int64, error) {
	if err := s.fail("CreateChat"); err != nil {
		return 0, err
	}
	id := s.state.id()
	s.state.chats = append(s.state.chats, id)
	return id, nil
}

func (s *memStore) InsertDirectChat(_ context.Context, chatID int64) error {
	if err := s.fail("InsertDirectChat"); err != nil {
		return err
	}
	s.state.direct[chatID] = domain.ChatCache{}
	return nil
}

func (s *memStore) InsertGroupChat(_ context.Context, chatID, adminID int64, title string) error {
	if err := s.fail("InsertGroupChat"); err != nil {
		return err
	}
	s.state.groups[chatID] = groupRow{adminID: adminID, title: title}
	return nil
}

func (s *memStore) AddChatMember(_ context.Context, chatID, userID int64) error {
	if err := s.fail("AddChatMember"); err != nil {
		return err
	}
	for _, id := range s.state.members[chatID] {
		if id == userID {
			return &domain.DatabaseError{Op: "add chat member", Code: "23505", Constraint: "user_chats_pkey", Err: errors.New("duplicate key")}
		}
	}
	s.state.members[chatID] = append(s.state.members[chatID], userID)
	return nil
}

func (s *memStore) InsertChatMessage(_ context.Context, msg domain.ChatMessage) (int64, error) {
	if err := s.fail("InsertChatMessage"); err != nil {
		return 0, err
	}
	msg.ID = s.state.id()
	s.state.messages = append(s.state.messages, msg)
	return msg.ID, nil
}

func (s *memStore) LatestChatMessage(_ context.Context, chatID int64) (domain.ChatMessage, bool, error) {
	if err := s.fail("LatestChatMessage"); err != nil {
		return domain.ChatMessage{}, false, err
	}
	m, ok := domain.LatestMessage(s.state.chatMessages(chatID))
	return m, ok, nil
}

func (s *memStore) UpdateDirectChatCache(_ context.Context, chatID int64, cache domain.ChatCache) error {
	if err := s.fail("UpdateDirectChatCache"); err != nil {
		return err
	}
	if _, ok := s.state.direct[chatID]; !ok {
		return &domain.DatabaseError{Op: "update direct chat cache", Err: errors.New("no rows")}
	}
	s.state.direct[chatID] = cache
	return nil
}

func (s *memStore) UpdateGroupChatCache(_ context.Context, chatID int64, cache domain.ChatCache) error {
	if err := s.fail("UpdateGroupChatCache"); err != nil {
		return err
	}
	row, ok := s.state.groups[chatID]
	if !ok {
		return &domain.DatabaseError{Op: "update group chat cache", Err: errors.New("no rows")}
	}
	row.cache = cache
	s.state.groups[chatID] = row
	return nil
}

func (s *memStore) InsertNewsArticle(_ context.Context, article domain.NewsArticle) (int64, error) {
	if err := s.fail("InsertNewsArticle"); err != nil {
		return 0, err
	}
	article.ID = s.state.id()
	s.state.news = append(s.state.news, article)
	return article.ID, nil
}

// memDB открывает memTx; состояние попадает в committed только после Commit.
type memDB struct {
	committed *memState
	failOn    string
	begins    int
	commits   int
	rollbacks int
}

func newMemDB() *memDB { return &memDB{committed: newMemState()} }

type memTx struct {
	*memStore
	db   *memDB
	done bool
}

func (db *memDB) BeginSeed(context.Context) (domain.SeedTx, error) {
	db.begins++
	return &memTx{memStore: &memStore{state: newMemState(), failOn: db.failOn}, db: db}, nil
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return errors.New("tx closed")
	}
	t.done = true
	t.db.commits++
	t.db.committed = t.state
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.db.rollbacks++
	return nil
}

type fakeHasher struct{ calls int }

func (h *fakeHasher) Hash(password, pepper string) (string, error) {
	h.calls++
	return "hash:" + password + ":" + pepper, nil
}

type fakeLock struct {
	held     bool
	acquired []string
	released []string
}

func (l *fakeLock) Acquire(_ context.Context, owner string) (bool, error) {
	if l.held {
		return false, nil
	}
	l.acquired = append(l.acquired, owner)
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, owner string) error {
	l.released = append(l.released, owner)
	return nil
}

type fakePublisher struct{ reports []domain.Report }

func (p *fakePublisher) Publish(_ context.Context, r domain.Report) error {
	p.reports = append(p.reports, r)
	return nil
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
