package notifications

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu            sync.RWMutex
	notifications map[string][]Notification // subject -> notices in send order
	dedup         map[string]struct{}
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string][]Notification),
		dedup:         make(map[string]struct{}),
	}
}

func (s *MemoryStorage) Create(_ context.Context, notif Notification) error {
	if notif.ID == "" {
		return errors.New("notification ID is required")
	}
	if notif.SubjectID == "" {
		return errors.New("subject ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if notif.DedupKey != "" {
		if _, ok := s.dedup[notif.DedupKey]; ok {
			return ErrDuplicate
		}
		s.dedup[notif.DedupKey] = struct{}{}
	}
	s.notifications[notif.SubjectID] = append(s.notifications[notif.SubjectID], notif)
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, subjectID, notifID string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications[subjectID] {
		if n.ID == notifID {
			return &n, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(_ context.Context, subjectID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.notifications[subjectID]
	out := make([]Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		n := stored[i]
		if len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, n.Kind) {
			continue
		}
		out = append(out, n)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}
