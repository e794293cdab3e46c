package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/syncer"
)

type memRemote struct {
	mu   sync.Mutex
	docs []*state.State
}

func (m *memRemote) Push(_ context.Context, _ string, st *state.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, st)
	return nil
}

func (m *memRemote) Pull(context.Context, string) (*state.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.docs) == 0 {
		return nil, syncer.ErrNotFound
	}
	return m.docs[len(m.docs)-1], nil
}

func (m *memRemote) last() *state.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.docs) == 0 {
		return nil
	}
	return m.docs[len(m.docs)-1]
}

func localDoc() *state.State {
	st := state.Default()
	st.TargetHours = 3
	st.Credits = state.Credits{Balance: 10, RefillDay: "2026-02-09"}
	return st
}

func TestOpenSyncSavesPulledDocumentLocally(t *testing.T) {
	ctx := context.Background()
	c := state.NewContainer(localDoc(), &clock.Fixed{T: time.Now()})

	cloudDoc := state.Default()
	cloudDoc.TargetHours = 9
	cloudDoc.Credits = state.Credits{Balance: 2, RefillDay: "2026-02-10"}
	local, remote := &memRemote{}, &memRemote{docs: []*state.State{cloudDoc}}

	saves, cloud := openSync(ctx, c, local, remote, "u1")
	if cloud == nil {
		t.Fatal("expected a cloud debouncer")
	}
	if err := saves.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := cloud.Close(ctx); err != nil {
		t.Fatal(err)
	}
	got := local.last()
	if got == nil || got.TargetHours != 9 {
		t.Fatalf("pulled document not saved locally: %+v", got)
	}

	l := openLedger(c, 10, nil)
	if l.Balance() != 2 {
		t.Fatalf("ledger should start from the synced balance, got %d", l.Balance())
	}
}

func TestOpenSyncWithoutRemote(t *testing.T) {
	ctx := context.Background()
	c := state.NewContainer(localDoc(), &clock.Fixed{T: time.Now()})
	local := &memRemote{}

	saves, cloud := openSync(ctx, c, local, nil, "u1")
	if cloud != nil {
		t.Fatal("no remote should mean no cloud debouncer")
	}
	c.Update(func(st *state.State) error {
		st.TargetHours = 4
		return nil
	})
	if err := saves.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if got := local.last(); got == nil || got.TargetHours != 4 {
		t.Fatalf("change not saved: %+v", got)
	}
	if l := openLedger(c, 10, nil); l.Balance() != 10 {
		t.Fatalf("balance = %d", l.Balance())
	}
}
