package domain

import "time"

// Названия доменов в отчёте и метриках.
const (
	DomainUsers            = "users"
	DomainBankAccounts     = "bank_accounts"
	DomainBankTransactions = "bank_transactions"
	DomainDirectChats      = "direct_chats"
	DomainDirectMessages   = "direct_messages"
	DomainGroupChats       = "group_chats"
	DomainGroupMessages    = "group_messages"
	DomainNewsArticles     = "news_articles"
)

// DomainOrder задаёт порядок вывода доменов в отчёте.
var DomainOrder = []string{
	DomainUsers,
	DomainBankAccounts,
	DomainBankTransactions,
	DomainDirectChats,
	DomainDirectMessages,
	DomainGroupChats,
	DomainGroupMessages,
	DomainNewsArticles,
}

// Tally считает принятые и пропущенные записи одного домена.
type Tally struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

// Report описывает итог запуска загрузки.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	DryRun     bool             `json:"dry_run"`
	Committed  bool             `json:"committed"`
	Domains    map[string]Tally `json:"domains"`
}

// Add добавляет счётчики домена в отчёт.
func (r *Report) Add(domain string, t Tally) {
	if r.Domains == nil {
		r.Domains = make(map[string]Tally)
	}
	cur := r.Domains[domain]
	cur.Accepted += t.Accepted
	cur.Skipped += t.Skipped
	r.Domains[domain] = cur
}
