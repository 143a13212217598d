package users

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// emailCacheSize bounds the email lookup cache. Invite batches hit the same
// handful of addresses repeatedly; anything evicted just falls back to the
// store. Authorization data is never cached here.
const emailCacheSize = 512

// Service wraps the store with a small LRU for email lookups.
type Service struct {
	store      *Store
	emailCache *lru.Cache[string, User]
}

// NewService creates a user service.
func NewService(store *Store) (*Service, error) {
	cache, err := lru.New[string, User](emailCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, emailCache: cache}, nil
}

// Create inserts a user.
func (s *Service) Create(ctx context.Context, user User) (*User, error) {
	created, err := s.store.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.emailCache.Add(created.Email, *created)
	return created, nil
}

// GetByID returns the user, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// GetByEmail returns the user with the given email, consulting the cache
// first. Misses and negative results always hit the store.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	key := strings.ToLower(email)
	if user, ok := s.emailCache.Get(key); ok {
		return &user, nil
	}
	user, err := s.store.GetByEmail(ctx, key)
	if err != nil {
		return nil, err
	}
	s.emailCache.Add(key, *user)
	return user, nil
}

// ResolveEmails maps each address to a user, in input order. The first
// unknown address fails the whole batch with ErrNotFound; invite creation
// relies on this all-or-nothing behavior.
func (s *Service) ResolveEmails(ctx context.Context, emails []string) ([]User, error) {
	resolved := make([]User, 0, len(emails))
	for _, email := range emails {
		user, err := s.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, *user)
	}
	return resolved, nil
}

// Update changes a user and invalidates any cached entry for the old and
// new email.
func (s *Service) Update(ctx context.Context, user User) (*User, error) {
	if old, err := s.store.GetByID(ctx, user.ID); err == nil {
		s.emailCache.Remove(old.Email)
	}
	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.emailCache.Remove(updated.Email)
	return updated, nil
}
