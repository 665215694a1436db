package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/community-board-server/internal/model"
)

var _ model.UserStore = (*MemoryUserStore)(nil)

// MemoryUserStore is an in-memory UserStore for end-to-end tests.
type MemoryUserStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]model.User
	creates int
	// FailCreate, when set, is returned by every create call.
	FailCreate error
}

func NewMemoryUserStore(users ...model.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[uuid.UUID]model.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Creates reports how many users were inserted through Create or CreateMany.
func (s *MemoryUserStore) Creates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

// Len reports how many users are stored.
func (s *MemoryUserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *MemoryUserStore) insert(u model.User) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrAlreadyExists
		}
	}
	s.users[u.ID] = u
	s.creates++
	return nil
}

func (s *MemoryUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return model.User{}, s.FailCreate
	}
	if err := s.insert(u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *MemoryUserStore) CreateMany(_ context.Context, users []model.User) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return nil, s.FailCreate
	}
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if seen[u.Email] {
			return nil, model.ErrAlreadyExists
		}
		seen[u.Email] = true
		for _, existing := range s.users {
			if existing.Email == u.Email {
				return nil, model.ErrAlreadyExists
			}
		}
	}
	for _, u := range users {
		s.users[u.ID] = u
		s.creates++
	}
	return users, nil
}

func (s *MemoryUserStore) Update(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	u.Email = existing.Email
	u.IsAdmin = existing.IsAdmin
	u.TokenVersion = existing.TokenVersion
	u.LoginIssuedAt = existing.LoginIssuedAt
	u.CreatedAt = existing.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryUserStore) DeleteMany(_ context.Context, ids []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := s.users[id]; ok {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryUserStore) SetAdmin(_ context.Context, id uuid.UUID, isAdmin bool) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	u.IsAdmin = isAdmin
	u.TokenVersion++
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

func (s *MemoryUserStore) BumpTokenVersion(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.TokenVersion++
	s.users[id] = u
	return nil
}

func (s *MemoryUserStore) MarkLoginIssued(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.LoginIssuedAt = &at
	s.users[id] = u
	return nil
}

func (s *MemoryUserStore) ListTags(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{})
	for _, u := range s.users {
		for _, tag := range u.Tags {
			set[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *MemoryUserStore) Ping(_ context.Context) error {
	return nil
}
