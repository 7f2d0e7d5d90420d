package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"cybercrush-seeder/internal/domain"
)

func TestLedgerLoaderForwardReferenceAndSkips(t *testing.T) {
	store := newMemStore()
	users := domain.UserIDs{"alice": 1, "bob": 2}
	stamp := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	records := []domain.BankRecord{
		{
			Username:     "alice",
			CurrentFunds: ptr(100),
			Transactions: []domain.TransactionRecord{
				{Receiver: "bob", Amount: 30, Message: "обед", Timestamp: domain.Timestamp{Time: stamp, Valid: true}},
				{Receiver: "carol", Amount: 5, Message: "долг"},
			},
		},
		{Username: "bob"},
	}

	res, err := NewLedgerLoader(store, nopLogger(), testStart).Load(context.Background(), users, records)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if res.AccountTally.Accepted != 2 {
		t.Fatalf("ожидали 2 счёта, получили %+v", res.AccountTally)
	}
	if res.TxTally.Accepted != 1 || res.TxTally.Skipped != 1 {
		t.Fatalf("ожидали 1 перевод и 1 пропуск, получили %+v", res.TxTally)
	}
	if len(store.state.transactions) != 1 {
		t.Fatalf("ожидали 1 перевод в хранилище")
	}
	tx := store.state.transactions[0]
	if tx.SenderAccountID != res.Accounts["alice"] || tx.ReceiverAccountID != res.Accounts["bob"] {
		t.Fatalf("перевод должен ссылаться на счета, а не на пользователей: %+v", tx)
	}
	if !tx.Timestamp.Equal(stamp) {
		t.Fatalf("ожидали время из фикстуры, получили %v", tx.Timestamp)
	}

	for _, acc := range store.state.accounts {
		switch acc.UserID {
		case 1:
			if acc.Funds == nil || *acc.Funds != 100 {
				t.Fatalf("баланс alice не должен меняться переводами: %v", acc.Funds)
			}
		case 2:
			if acc.Funds != nil {
				t.Fatalf("баланс bob не задан и должен остаться пустым, получили %d", *acc.Funds)
			}
		}
	}
}

func TestLedgerLoaderMissingTimestampUsesRunStart(t *testing.T) {
	store := newMemStore()
	users := domain.UserIDs{"alice": 1, "bob": 2}
	records := []domain.BankRecord{
		{Username: "alice", Transactions: []domain.TransactionRecord{{Receiver: "bob", Amount: 1}}},
		{Username: "bob"},
	}
	if _, err := NewLedgerLoader(store, nopLogger(), testStart).Load(context.Background(), users, records); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !store.state.transactions[0].Timestamp.Equal(testStart) {
		t.Fatalf("ожидали время запуска, получили %v", store.state.transactions[0].Timestamp)
	}
}

func TestLedgerLoaderUnknownOwnerIsFatal(t *testing.T) {
	store := newMemStore()
	_, err := NewLedgerLoader(store, nopLogger(), testStart).Load(context.Background(), domain.UserIDs{"alice": 1}, []domain.BankRecord{{Username: "ghost"}})
	var refErr *domain.ReferenceError
	if !errors.As(err, &refErr) || refErr.Key != "ghost" {
		t.Fatalf("ожидали ReferenceError для ghost, получили %v", err)
	}
}
