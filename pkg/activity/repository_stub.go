package activity

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu         sync.RWMutex
	activities map[int]Activity
	nextId     int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		activities: make(map[int]Activity),
		nextId:     1,
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	snapshot := make(map[int]Activity, len(r.activities))
	for k, v := range r.activities {
		snapshot[k] = v
	}
	nextId := r.nextId
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.activities = snapshot
		r.nextId = nextId
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) Create(ctx context.Context, activity Activity) (Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity.Id = r.nextId
	r.nextId++
	r.activities[activity.Id] = activity
	return activity, nil
}

func (r *RepositoryStub) Get(ctx context.Context, id int) (Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[id]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	return a, nil
}

func (r *RepositoryStub) List(ctx context.Context, projectId int) ([]Activity, error) {
	return r.filter(func(a Activity) bool { return a.ProjectId == projectId }), nil
}

func (r *RepositoryStub) ListChildren(ctx context.Context, parentId int) ([]Activity, error) {
	return r.filter(func(a Activity) bool { return a.ParentId == parentId }), nil
}

func (r *RepositoryStub) filter(keep func(Activity) bool) []Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Activity
	for _, a := range r.activities {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Phase != result[j].Phase {
			return result[i].Phase < result[j].Phase
		}
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].Id < result[j].Id
	})
	return result
}

func (r *RepositoryStub) Update(ctx context.Context, activity Activity) (Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.activities[activity.Id]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	activity.ProjectId = existing.ProjectId
	r.activities[activity.Id] = activity
	return activity, nil
}

func (r *RepositoryStub) Delete(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activities[id]; !ok {
		return false, nil
	}
	delete(r.activities, id)
	for childId, a := range r.activities {
		if a.ParentId == id {
			delete(r.activities, childId)
		}
	}
	return true, nil
}

func (r *RepositoryStub) MaxPosition(ctx context.Context, projectId int, phase string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	maxPosition := 0
	for _, a := range r.activities {
		if a.ProjectId == projectId && a.Phase == phase && a.Position > maxPosition {
			maxPosition = a.Position
		}
	}
	return maxPosition, nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.activities = make(map[int]Activity)
	r.nextId = 1
}
