package repository

import (
	"context"
	"strings"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/pkg/cache"
)

// CachedDirectory wraps a UserDirectory with a short-lived read-through
// cache. Directory records are immutable at runtime, so staleness is
// bounded by the TTL alone. Misses are not cached.
type CachedDirectory struct {
	inner domain.UserDirectory
	users *cache.Cache[*domain.User]
	lists *cache.Cache[[]*domain.User]
	ttl   time.Duration
}

// NewCachedDirectory creates a caching wrapper around inner.
func NewCachedDirectory(inner domain.UserDirectory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		inner: inner,
		users: cache.New[*domain.User](),
		lists: cache.New[[]*domain.User](),
		ttl:   ttl,
	}
}

// FindByID looks up a user by id, serving from cache when possible.
func (d *CachedDirectory) FindByID(ctx context.Context, id string) (*domain.User, error) {
	key := "id:" + id
	if u, ok := d.users.Get(key); ok {
		return u, nil
	}

	u, err := d.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.users.Set(key, u, d.ttl)
	return u, nil
}

// FindByEmail looks up a user by email, serving from cache when possible.
func (d *CachedDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	// Lookups are case-insensitive, so the cache key must be too.
	key := "email:" + strings.ToLower(email)
	if u, ok := d.users.Get(key); ok {
		return u, nil
	}

	u, err := d.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	d.users.Set(key, u, d.ttl)
	d.users.Set("id:"+u.ID, u, d.ttl)
	return u, nil
}

// List returns all users, serving from cache when possible.
func (d *CachedDirectory) List(ctx context.Context) ([]*domain.User, error) {
	if users, ok := d.lists.Get("all"); ok {
		return users, nil
	}

	users, err := d.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	d.lists.Set("all", users, d.ttl)
	return users, nil
}
