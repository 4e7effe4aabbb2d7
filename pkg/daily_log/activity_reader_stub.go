package daily_log

import (
	"context"
	"sync"

	"github.com/fieldplan/fieldplan/pkg/activity"
)

// ActivityReaderStub is a test stub implementation of ActivityReader
type ActivityReaderStub struct {
	mu         sync.RWMutex
	activities map[int]activity.Activity
	getErr     error
}

func NewActivityReaderStub() *ActivityReaderStub {
	return &ActivityReaderStub{activities: make(map[int]activity.Activity)}
}

func (s *ActivityReaderStub) Get(ctx context.Context, id int) (activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getErr != nil {
		return activity.Activity{}, s.getErr
	}
	a, ok := s.activities[id]
	if !ok {
		return activity.Activity{}, activity.ErrActivityNotFound
	}
	return a, nil
}

func (s *ActivityReaderStub) SetActivity(a activity.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[a.Id] = a
}

func (s *ActivityReaderStub) SetGetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}
