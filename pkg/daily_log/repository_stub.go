package daily_log

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{entries: make(map[uuid.UUID]Entry)}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *RepositoryStub) duplicate(e Entry) bool {
	for uid, existing := range r.entries {
		if uid != e.Uid && existing.ActivityId == e.ActivityId && sameDay(existing.Date, e.Date) {
			return true
		}
	}
	return false
}

func (r *RepositoryStub) Create(ctx context.Context, e Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Uid == uuid.Nil {
		e.Uid = uuid.New()
	}
	if r.duplicate(e) {
		return Entry{}, ErrEntryAlreadyExists
	}
	e.Labour = nonNil(e.Labour)
	e.Equipment = nonNil(e.Equipment)
	r.entries[e.Uid] = e
	return e, nil
}

func (r *RepositoryStub) Get(ctx context.Context, uid uuid.UUID) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[uid]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (r *RepositoryStub) List(ctx context.Context, activityId int, from, to time.Time) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Entry
	for _, e := range r.entries {
		if e.ActivityId != activityId {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (r *RepositoryStub) Update(ctx context.Context, e Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[e.Uid]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	e.ActivityId = existing.ActivityId
	if r.duplicate(e) {
		return Entry{}, ErrEntryAlreadyExists
	}
	e.Labour = nonNil(e.Labour)
	e.Equipment = nonNil(e.Equipment)
	r.entries[e.Uid] = e
	return e, nil
}

func (r *RepositoryStub) Delete(ctx context.Context, uid uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[uid]; !ok {
		return false, nil
	}
	delete(r.entries, uid)
	return true, nil
}

func (r *RepositoryStub) DeleteByActivity(ctx context.Context, activityId int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for uid, e := range r.entries {
		if e.ActivityId == activityId {
			delete(r.entries, uid)
			count++
		}
	}
	return count, nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[uuid.UUID]Entry)
}
