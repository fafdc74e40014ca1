package auth

import (
	"context"
	"sort"
	"sync"
)

var _ IdentityStore = (*MemoryStore)(nil)

// MemoryStore is an in-process IdentityStore for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Identity
	byEmail map[string]string // normalized email -> id
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Identity),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return identity, nil
}

func (s *MemoryStore) Insert(ctx context.Context, identity Identity) (Identity, error) {
	key := NormalizeEmail(identity.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key]; ok {
		return Identity{}, ErrConflict
	}
	if _, ok := s.byID[identity.ID]; ok {
		return Identity{}, ErrConflict
	}
	s.byID[identity.ID] = identity
	s.byEmail[key] = identity.ID
	return identity, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, upd IdentityUpdate) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	oldKey := NormalizeEmail(identity.Email)
	if upd.Email != nil {
		newKey := NormalizeEmail(*upd.Email)
		if owner, taken := s.byEmail[newKey]; taken && owner != id {
			return Identity{}, ErrConflict
		}
	}
	upd.apply(&identity)
	if newKey := NormalizeEmail(identity.Email); newKey != oldKey {
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = id
	}
	s.byID[id] = identity
	return identity, nil
}

func (s *MemoryStore) List(ctx context.Context, offset, limit int) ([]Identity, error) {
	s.mu.RLock()
	all := make([]Identity, 0, len(s.byID))
	for _, identity := range s.byID {
		all = append(all, identity)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []Identity{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
