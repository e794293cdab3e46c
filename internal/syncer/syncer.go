// Package syncer pushes the state document to a remote copy, coalescing
// bursts of changes into one write.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sadopc/studyplan/internal/state"
)

// DefaultDelay is the quiet period before a push.
const DefaultDelay = 2 * time.Second

var ErrNotFound = errors.New("no remote document")

// Remote stores one document per user.
type Remote interface {
	Push(ctx context.Context, userID string, st *state.State) error
	Pull(ctx context.Context, userID string) (*state.State, error)
}

// Debouncer pushes the latest document once no change has arrived for the
// delay. Older pending documents are dropped.
type Debouncer struct {
	mu      sync.Mutex
	remote  Remote
	userID  string
	delay   time.Duration
	timer   *time.Timer
	pending *state.State
	closed  bool
}

func NewDebouncer(r Remote, userID string, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{remote: r, userID: userID, delay: delay}
}

// Observe is a state.Listener.
func (d *Debouncer) Observe(_, next *state.State) { d.Schedule(next) }

// Schedule replaces the pending document and restarts the quiet period.
func (d *Debouncer) Schedule(st *state.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = st
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		if err := d.Flush(context.Background()); err != nil {
			log.Printf("sync %s: %v", d.userID, err)
		}
	})
}

// Flush pushes the pending document now, if any.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	st := d.pending
	d.pending = nil
	d.mu.Unlock()
	if st == nil {
		return nil
	}
	if err := d.remote.Push(ctx, d.userID, st); err != nil {
		return fmt.Errorf("push state: %w", err)
	}
	return nil
}

// Close stops the timer and pushes whatever is still pending.
func (d *Debouncer) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	return d.Flush(ctx)
}

// Pull loads the remote copy into c. The remote copy wins when present; it
// reports whether one was found.
func Pull(ctx context.Context, r Remote, userID string, c *state.Container) (bool, error) {
	st, err := r.Pull(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pull state: %w", err)
	}
	c.Replace(st)
	return true, nil
}

// FileRemote keeps each user's document as a JSON file in a directory, e.g.
// a synced folder.
type FileRemote struct {
	Dir string
}

func (f FileRemote) path(userID string) string {
	return filepath.Join(f.Dir, userID+".json")
}

func (f FileRemote) Push(_ context.Context, userID string, st *state.State) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create sync directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := f.path(userID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, f.path(userID))
}

func (f FileRemote) Pull(_ context.Context, userID string) (*state.State, error) {
	data, err := os.ReadFile(f.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st state.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}
