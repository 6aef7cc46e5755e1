package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/events"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// memoryStore is an in-memory reminder table shared by every session it opens.
type memoryStore struct {
	mu        sync.Mutex
	reminders map[uuid.UUID]*domain.Reminder

	listCalls   int
	openCalls   int
	closeCalls  int
	listErr     func(call int) error
	openErr     error
	markFiredFn func(id uuid.UUID) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{reminders: make(map[uuid.UUID]*domain.Reminder)}
}

func (m *memoryStore) add(scheduled time.Time, status domain.ReminderStatus, channels string) *domain.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &domain.Reminder{
		ID:            uuid.New(),
		TaskID:        uuid.New(),
		UserID:        uuid.New(),
		ScheduledTime: scheduled.UTC(),
		Status:        status,
		CreatedAt:     scheduled.Add(-time.Hour).UTC(),
	}
	if channels != "" {
		r.NotificationChannels = json.RawMessage(channels)
	}
	if status == domain.ReminderStatusFired {
		firedAt := scheduled.UTC()
		r.FiredAt = &firedAt
	}
	m.reminders[r.ID] = r
	return r
}

func (m *memoryStore) get(id uuid.UUID) domain.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.reminders[id]
}

func (m *memoryStore) countStatus(status domain.ReminderStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.reminders {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (m *memoryStore) listCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *memoryStore) OpenSession(context.Context) (store.ReminderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openCalls++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &memorySession{store: m}, nil
}

type memorySession struct {
	store *memoryStore
}

func (s *memorySession) ListDue(_ context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	if m.listErr != nil {
		if err := m.listErr(m.listCalls); err != nil {
			return nil, store.NewStoreError("reminder", "list_due", "query failed", err)
		}
	}

	var due []*domain.Reminder
	for _, r := range m.reminders {
		if r.IsDue(now) {
			cp := *r
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledTime.Before(due[j].ScheduledTime)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *memorySession) GetReminder(_ context.Context, id uuid.UUID) (*domain.Reminder, error) {
	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reminders[id]
	if !ok {
		return nil, store.ErrReminderNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memorySession) MarkFired(_ context.Context, id uuid.UUID, firedAt time.Time) error {
	m := s.store
	if m.markFiredFn != nil {
		if err := m.markFiredFn(id); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reminders[id]
	if !ok {
		return store.ErrReminderNotFound
	}
	if err := r.MarkFired(firedAt); err != nil {
		if errors.Is(err, domain.ErrInvalidReminderTransition) {
			return errors.Join(store.ErrInvalidTransition, err)
		}
		return err
	}
	return nil
}

func (s *memorySession) Close() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.closeCalls++
	return nil
}

// recordingPublisher captures published envelopes and can be made to fail.
type recordingPublisher struct {
	mu        sync.Mutex
	published []*events.Envelope
	topics    []string
	publishFn func(ctx context.Context, env *events.Envelope) error
}

func (p *recordingPublisher) Publish(ctx context.Context, env *events.Envelope, topic string) error {
	if p.publishFn != nil {
		if err := p.publishFn(ctx, env); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, env)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) envelopes() []*events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.Envelope(nil), p.published...)
}
