package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/yourorg/feedbackflow/internal/domain"
)

// MemoryDirectory is an in-memory user directory. It backs the demo
// deployment and tests; users are seeded at construction and immutable
// afterwards.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	order []string
}

// NewMemoryDirectory creates a directory holding the given users.
func NewMemoryDirectory(users ...*domain.User) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]*domain.User, len(users))}
	for _, u := range users {
		if _, exists := d.users[u.ID]; !exists {
			d.order = append(d.order, u.ID)
		}
		d.users[u.ID] = u
	}
	return d
}

// FindByID looks up a user by id.
func (d *MemoryDirectory) FindByID(ctx context.Context, id string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// FindByEmail looks up a user by email, case-insensitively.
func (d *MemoryDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, id := range d.order {
		if strings.EqualFold(d.users[id].Email, email) {
			return d.users[id], nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// List returns all users in seed order.
func (d *MemoryDirectory) List(ctx context.Context) ([]*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*domain.User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.users[id])
	}
	return out, nil
}

// MemoryFeedbackRepository is an in-memory feedback store. List preserves
// insertion order, which fixes the tie-break for records sharing a
// timestamp.
type MemoryFeedbackRepository struct {
	mu        sync.RWMutex
	feedbacks []*domain.Feedback
	byID      map[string]*domain.Feedback
}

// NewMemoryFeedbackRepository creates a store seeded with the given records.
func NewMemoryFeedbackRepository(feedbacks ...*domain.Feedback) *MemoryFeedbackRepository {
	r := &MemoryFeedbackRepository{byID: make(map[string]*domain.Feedback, len(feedbacks))}
	for _, f := range feedbacks {
		r.feedbacks = append(r.feedbacks, f)
		r.byID[f.ID] = f
	}
	return r
}

// Create appends a feedback record.
func (r *MemoryFeedbackRepository) Create(ctx context.Context, f *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedbacks = append(r.feedbacks, f)
	r.byID[f.ID] = f
	return nil
}

// GetByID returns a record by id.
func (r *MemoryFeedbackRepository) GetByID(ctx context.Context, id string) (*domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.byID[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, domain.ErrFeedbackNotFound
}

// List returns the full collection in insertion order.
func (r *MemoryFeedbackRepository) List(ctx context.Context) ([]*domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Feedback, len(r.feedbacks))
	copy(out, r.feedbacks)
	return out, nil
}

// Acknowledge flips a record's acknowledged flag to true.
func (r *MemoryFeedbackRepository) Acknowledge(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return domain.ErrFeedbackNotFound
	}
	f.Acknowledged = true
	return nil
}

// MemorySessionStore holds the persisted session in memory. Used by tests.
type MemorySessionStore struct {
	mu   sync.Mutex
	user *domain.User
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Save stores the user.
func (s *MemorySessionStore) Save(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.user = &copied
	return nil
}

// Load returns the stored user or ErrNoSession.
func (s *MemorySessionStore) Load(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, domain.ErrNoSession
	}
	copied := *s.user
	return &copied, nil
}

// Clear removes the stored user.
func (s *MemorySessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}
