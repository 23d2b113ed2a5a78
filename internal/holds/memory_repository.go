package holds

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	mu   sync.Mutex
	hold Hold
}

// memoryRepository keeps holds in process memory. Each hold has its own
// mutex so transitions on different holds never contend.
type memoryRepository struct {
	entries sync.Map // id -> *memoryEntry
}

func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(ctx context.Context, hold *Hold) error {
	if hold.ID == "" {
		return fmt.Errorf("%w: hold id is required", ErrInvalidArgument)
	}
	entry := &memoryEntry{hold: *hold}
	if _, loaded := r.entries.LoadOrStore(hold.ID, entry); loaded {
		return ErrDuplicateHold
	}
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id string) (*Hold, error) {
	v, ok := r.entries.Load(id)
	if !ok {
		return nil, ErrHoldNotFound
	}
	entry := v.(*memoryEntry)

	entry.mu.Lock()
	hold := entry.hold
	entry.mu.Unlock()
	return &hold, nil
}

func (r *memoryRepository) collect(match func(*Hold) bool) []Hold {
	var holds []Hold
	r.entries.Range(func(_, v any) bool {
		entry := v.(*memoryEntry)
		entry.mu.Lock()
		hold := entry.hold
		entry.mu.Unlock()
		if match(&hold) {
			holds = append(holds, hold)
		}
		return true
	})
	return holds
}

func (r *memoryRepository) FindByEvent(ctx context.Context, eventID string, status *Status) ([]Hold, error) {
	holds := r.collect(func(h *Hold) bool {
		return h.EventID == eventID && (status == nil || h.Status == *status)
	})
	sort.Slice(holds, func(i, j int) bool {
		if holds[i].CreatedAt.Equal(holds[j].CreatedAt) {
			return holds[i].ID < holds[j].ID
		}
		return holds[i].CreatedAt.Before(holds[j].CreatedAt)
	})
	return holds, nil
}

func (r *memoryRepository) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]Hold, error) {
	holds := r.collect(func(h *Hold) bool {
		return h.Status == StatusActive && h.IsExpiredAt(now)
	})
	sort.Slice(holds, func(i, j int) bool {
		return holds[i].ExpiresAt.Before(holds[j].ExpiresAt)
	})
	if limit > 0 && len(holds) > limit {
		holds = holds[:limit]
	}
	return holds, nil
}

func (r *memoryRepository) Transition(ctx context.Context, id string, from, to Status, at time.Time) error {
	if !to.IsValid() || from == to {
		return fmt.Errorf("%w: transition %s -> %s", ErrInvalidArgument, from, to)
	}

	v, ok := r.entries.Load(id)
	if !ok {
		return ErrHoldNotFound
	}
	entry := v.(*memoryEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.hold.Status != from {
		return ErrTransitionConflict
	}
	entry.hold.Status = to
	entry.hold.UpdatedAt = at
	return nil
}
