package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cybercrush-seeder/internal/domain"
)

// LedgerLoader вставляет банковские счета и переводы.
type LedgerLoader struct {
	loaderBase
}

// NewLedgerLoader создаёт загрузчик банка.
func NewLedgerLoader(store domain.SeedStore, logger zerolog.Logger, startedAt time.Time) *LedgerLoader {
	return &LedgerLoader{loaderBase: loaderBase{store: store, log: logger, startedAt: startedAt}}
}

// LedgerResult - итог загрузки банка.
type LedgerResult struct {
	Accounts     domain.AccountIDs
	AccountTally domain.Tally
	TxTally      domain.Tally
}

// Load создаёт все счета, затем все переводы: перевод может ссылаться на счёт,
// описанный в фикстуре позже.
func (l *LedgerLoader) Load(ctx context.Context, users domain.UserIDs, records []domain.BankRecord) (LedgerResult, error) {
	accountsRec := newRecorder(domain.DomainBankAccounts, l.log)
	result := LedgerResult{Accounts: make(domain.AccountIDs, len(records))}

	for _, r := range records {
		out := l.insertAccount(ctx, users, r, result.Accounts)
		if err := accountsRec.observe(out, r.Username); err != nil {
			result.AccountTally = accountsRec.tally
			return result, err
		}
	}
	result.AccountTally = accountsRec.tally

	txRec := newRecorder(domain.DomainBankTransactions, l.log)
	for _, r := range records {
		senderID := result.Accounts[r.Username]
		for _, t := range r.Transactions {
			out := l.insertTransaction(ctx, senderID, t, result.Accounts)
			if err := txRec.observe(out, r.Username+"->"+t.Receiver); err != nil {
				result.TxTally = txRec.tally
				return result, err
			}
		}
	}
	result.TxTally = txRec.tally

	l.log.Info().
		Int("accounts", result.AccountTally.Accepted).
		Int("transactions", result.TxTally.Accepted).
		Int("transactions_skipped", result.TxTally.Skipped).
		Msg("ledger: банк загружен")
	return result, nil
}

func (l *LedgerLoader) insertAccount(ctx context.Context, users domain.UserIDs, r domain.BankRecord, accounts domain.AccountIDs) domain.Outcome {
	userID, ok := users[r.Username]
	if !ok {
		return domain.Fatal(&domain.ReferenceError{Entity: "user", Key: r.Username, From: "bank account owner"})
	}
	id, err := l.store.InsertBankAccount(ctx, userID, r.CurrentFunds)
	if err != nil {
		return domain.Fatal(fmt.Errorf("вставка счёта %s: %w", r.Username, err))
	}
	accounts[r.Username] = id
	return domain.Accepted()
}

func (l *LedgerLoader) insertTransaction(ctx context.Context, senderID int64, t domain.TransactionRecord, accounts domain.AccountIDs) domain.Outcome {
	receiverID, ok := accounts[t.Receiver]
	if !ok {
		return domain.Skipped(&domain.ReferenceError{Entity: "bank account", Key: t.Receiver, From: "transaction receiver"})
	}
	_, err := l.store.InsertBankTransaction(ctx, domain.BankTransaction{
		SenderAccountID:   senderID,
		ReceiverAccountID: receiverID,
		Message:           t.Message,
		Amount:            t.Amount,
		Timestamp:         t.Timestamp.Or(l.startedAt),
	})
	if err != nil {
		return domain.Fatal(fmt.Errorf("вставка перевода в %s: %w", t.Receiver, err))
	}
	return domain.Accepted()
}
