package service

import (
	"sync"

	"catalog-recon/internal/reconcile/model"
)

// Ledger копит записи, которые не удалось сопоставить. Только добавление.
type Ledger struct {
	mu      sync.Mutex
	entries []model.UnmatchedEntry
	hint    Hinter
}

// Hinter подсказывает, куда смотреть оператору; "" если подсказки нет.
type Hinter func(in model.IncomingRecord, reason string) string

type LedgerOption func(*Ledger)

func WithHinter(h Hinter) LedgerOption {
	return func(l *Ledger) { l.hint = h }
}

func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Record сохраняет входящую запись без какой-либо нормализации.
func (l *Ledger) Record(in model.IncomingRecord, reason string, bestScore float64) {
	e := model.UnmatchedEntry{Record: in.Clone(), Reason: reason, BestScore: bestScore}
	if l.hint != nil {
		e.Hint = l.hint(in, reason)
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries: копия, в порядке добавления.
func (l *Ledger) Entries() []model.UnmatchedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.UnmatchedEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ByReason: счётчики по причинам.
func (l *Ledger) ByReason() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int)
	for _, e := range l.entries {
		out[e.Reason]++
	}
	return out
}
