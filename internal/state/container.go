package state

import (
	"sync"

	"github.com/mohae/deepcopy"
	"github.com/sadopc/studyplan/internal/clock"
)

// Listener sees the document before and after a transition. Both are private
// copies. Listeners run synchronously, in registration order, and must not
// call Update.
type Listener func(prev, next *State)

// Container owns the document. Update is the only way to change it.
type Container struct {
	mu        sync.Mutex
	clk       clock.Clock
	st        *State
	listeners []Listener
}

func NewContainer(initial *State, clk clock.Clock) *Container {
	if initial == nil {
		initial = Default()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	st := Clone(initial)
	st.ensureMaps()
	return &Container{clk: clk, st: st}
}

// Clone deep-copies a document.
func Clone(s *State) *State {
	if s == nil {
		return nil
	}
	return deepcopy.Copy(s).(*State)
}

func (c *Container) Clock() clock.Clock { return c.clk }

// Subscribe registers l for every later transition.
func (c *Container) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Snapshot returns a copy of the current document.
func (c *Container) Snapshot() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Clone(c.st)
}

// Update applies fn to a working copy. If fn fails nothing changes and no
// listener runs; otherwise the copy becomes current and every listener sees
// the same pre/post pair.
func (c *Container) Update(fn func(*State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := Clone(c.st)
	if err := fn(next); err != nil {
		return err
	}
	next.ensureMaps()
	next.UpdatedAt = c.clk.Now()

	prev := c.st
	c.st = next
	for _, l := range c.listeners {
		l(Clone(prev), Clone(next))
	}
	return nil
}

// Replace swaps in a whole document, for example one pulled from the cloud.
func (c *Container) Replace(s *State) {
	in := Clone(s)
	c.Update(func(st *State) error {
		*st = *in
		return nil
	})
}
