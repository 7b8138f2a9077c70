package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/PabloGalante/idefend/internal/domain"
)

// ProfileStore is an in-memory domain.ProfileStore.
// It is NOT persistent and is only suitable for development / local mode.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.Profile),
	}
}

func (s *ProfileStore) SaveProfile(_ context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[strings.ToLower(p.Email)] = *p
	return nil
}

func (s *ProfileStore) GetProfile(_ context.Context, email string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}
