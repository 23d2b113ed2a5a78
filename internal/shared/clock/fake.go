package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Time stands still until Advance is
// called; AfterFunc callbacks run synchronously inside Advance, in
// deadline order, once the clock reaches their deadline.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeTimer
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	callback func()
	done     bool
}

// NewFake returns a Fake set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc registers f to run when the clock is advanced to now+d.
// A non-positive d fires on the next Advance, including Advance(0).
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{clock: f, deadline: f.now.Add(d), callback: fn}
	f.waiters = append(f.waiters, t)
	return t
}

// Advance moves the clock forward by d and runs every callback whose
// deadline has been reached. Callbacks run without the clock's lock
// held, so they may call Now, AfterFunc or Stop.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)

	var due []*fakeTimer
	pending := f.waiters[:0]
	for _, t := range f.waiters {
		switch {
		case t.done:
		case !t.deadline.After(f.now):
			t.done = true
			due = append(due, t)
		default:
			pending = append(pending, t)
		}
	}
	f.waiters = pending
	f.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		t.callback()
	}
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.waiters {
		if !t.done {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}
