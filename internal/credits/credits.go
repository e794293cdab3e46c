// Package credits gates the AI features behind a small credit balance.
package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Feature string

const (
	Briefing        Feature = "briefing"
	GrammarQuestion Feature = "grammar_question"
	Chat            Feature = "chat"
)

// Costs is the credit price of each gated feature.
var Costs = map[Feature]int{
	Briefing:        2,
	GrammarQuestion: 1,
	Chat:            1,
}

// DefaultDailyAllowance is what the balance is topped up to each day.
const DefaultDailyAllowance = 10

var (
	ErrInsufficient   = errors.New("not enough credits")
	ErrUnknownFeature = errors.New("unknown feature")
)

// BalanceWriter persists the balance remotely. A rejected write reverts the
// optimistic local decrement.
type BalanceWriter interface {
	WriteBalance(ctx context.Context, balance int, refillDay string) error
}

type Ledger struct {
	mu        sync.Mutex
	balance   int
	refillDay string
	allowance int
	writer    BalanceWriter
}

func NewLedger(balance int, refillDay string, allowance int, w BalanceWriter) *Ledger {
	if allowance <= 0 {
		allowance = DefaultDailyAllowance
	}
	return &Ledger{balance: balance, refillDay: refillDay, allowance: allowance, writer: w}
}

func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func Cost(f Feature) (int, error) {
	c, ok := Costs[f]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFeature, f)
	}
	return c, nil
}

func (l *Ledger) CanAfford(f Feature) bool {
	c, err := Cost(f)
	if err != nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance >= c
}

// Spend deducts the feature cost. The local balance changes immediately and
// is restored if the remote write fails.
func (l *Ledger) Spend(ctx context.Context, f Feature) error {
	c, err := Cost(f)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.balance < c {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s costs %d", ErrInsufficient, f, c)
	}
	l.balance -= c
	balance, day := l.balance, l.refillDay
	l.mu.Unlock()

	if l.writer == nil {
		return nil
	}
	if err := l.writer.WriteBalance(ctx, balance, day); err != nil {
		l.mu.Lock()
		l.balance += c
		l.mu.Unlock()
		return fmt.Errorf("spend %s: %w", f, err)
	}
	return nil
}

// Refill tops the balance up to the daily allowance once per day key.
// It reports whether a top-up happened.
func (l *Ledger) Refill(ctx context.Context, today string) (bool, error) {
	l.mu.Lock()
	if l.refillDay == today {
		l.mu.Unlock()
		return false, nil
	}
	prevBalance, prevDay := l.balance, l.refillDay
	if l.balance < l.allowance {
		l.balance = l.allowance
	}
	l.refillDay = today
	balance := l.balance
	l.mu.Unlock()

	if l.writer == nil {
		return true, nil
	}
	if err := l.writer.WriteBalance(ctx, balance, today); err != nil {
		l.mu.Lock()
		l.balance, l.refillDay = prevBalance, prevDay
		l.mu.Unlock()
		return false, fmt.Errorf("refill credits: %w", err)
	}
	return true, nil
}
