package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sadopc/studyplan/internal/kv"
)

// Get and Set make the store a kv.Store for throttle timestamps and
// milestone markers.
func (s *Store) Get(key string) (string, error) {
	var v string
	err := s.db.Get(&v, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get kv %q: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set kv %q: %w", key, err)
	}
	return nil
}

// ReadBalance returns the stored credit balance and its last refill day.
func (s *Store) ReadBalance(ctx context.Context) (int, string, error) {
	var row struct {
		Balance   int    `db:"balance"`
		RefillDay string `db:"refill_day"`
	}
	if err := s.db.GetContext(ctx, &row, `SELECT balance, refill_day FROM credits WHERE id = 1`); err != nil {
		return 0, "", fmt.Errorf("read credits: %w", err)
	}
	return row.Balance, row.RefillDay, nil
}

// WriteBalance implements credits.BalanceWriter.
func (s *Store) WriteBalance(ctx context.Context, balance int, refillDay string) error {
	if balance < 0 {
		return fmt.Errorf("write credits: negative balance %d", balance)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credits (id, balance, refill_day) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET balance = excluded.balance, refill_day = excluded.refill_day`,
		balance, refillDay,
	)
	if err != nil {
		return fmt.Errorf("write credits: %w", err)
	}
	return nil
}
