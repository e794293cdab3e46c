package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/state"
)

type memRemote struct {
	mu     sync.Mutex
	pushes []*state.State
	fail   bool
}

func (m *memRemote) Push(_ context.Context, _ string, st *state.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("offline")
	}
	m.pushes = append(m.pushes, st)
	return nil
}

func (m *memRemote) Pull(context.Context, string) (*state.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pushes) == 0 {
		return nil, ErrNotFound
	}
	return m.pushes[len(m.pushes)-1], nil
}

func (m *memRemote) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

func withTarget(h float64) *state.State {
	st := state.Default()
	st.TargetHours = h
	return st
}

func TestDebounceCoalescesBurst(t *testing.T) {
	r := &memRemote{}
	d := NewDebouncer(r, "u1", 20*time.Millisecond)
	for i := 1; i <= 5; i++ {
		d.Schedule(withTarget(float64(i)))
	}
	deadline := time.Now().Add(2 * time.Second)
	for r.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if r.count() != 1 {
		t.Fatalf("expected 1 push, got %d", r.count())
	}
	if got, _ := r.Pull(context.Background(), "u1"); got.TargetHours != 5 {
		t.Fatalf("last write should win, got %v", got.TargetHours)
	}
}

func TestCloseFlushesPending(t *testing.T) {
	r := &memRemote{}
	d := NewDebouncer(r, "u1", time.Hour)
	d.Schedule(withTarget(7))
	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.count() != 1 {
		t.Fatalf("expected flush on close, got %d pushes", r.count())
	}
	d.Schedule(withTarget(8))
	if err := d.Flush(context.Background()); err != nil || r.count() != 1 {
		t.Fatal("closed debouncer should ignore new documents")
	}
}

func TestFlushError(t *testing.T) {
	r := &memRemote{fail: true}
	d := NewDebouncer(r, "u1", time.Hour)
	d.Schedule(withTarget(7))
	if err := d.Flush(context.Background()); err == nil {
		t.Fatal("expected push error")
	}
	d.Close(context.Background())
}

func TestFileRemoteRoundTrip(t *testing.T) {
	r := FileRemote{Dir: t.TempDir()}
	if _, err := r.Pull(context.Background(), "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	st := withTarget(7.5)
	st.StudyLog["2026-02-10"] = state.DayLog{Hours: 1.5, Sessions: 2}
	if err := r.Push(context.Background(), "u1", st); err != nil {
		t.Fatal(err)
	}
	got, err := r.Pull(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TargetHours != 7.5 || got.StudyLog["2026-02-10"].Sessions != 2 {
		t.Fatalf("unexpected document: %+v", got)
	}
	if got.Subjects["physics"].Name != "Physics" {
		t.Fatal("subjects lost in round trip")
	}
}

func TestPullCloudWins(t *testing.T) {
	c := state.NewContainer(withTarget(3), &clock.Fixed{T: time.Now()})
	r := &memRemote{}

	found, err := Pull(context.Background(), r, "u1", c)
	if err != nil || found {
		t.Fatalf("empty remote: found=%v err=%v", found, err)
	}
	r.Push(context.Background(), "u1", withTarget(9))
	found, err = Pull(context.Background(), r, "u1", c)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if c.Snapshot().TargetHours != 9 {
		t.Fatal("cloud copy should replace local state")
	}
}
