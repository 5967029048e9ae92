package service_test

import (
	"context"
	"sort"
	"sync"

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// memStore is an in-memory repository.Store. Setting err makes every call fail.
type memStore struct {
	mu       sync.Mutex
	contests map[string]model.Contest
	sports   []model.Sport
	users    map[string]model.User
	writes   map[string]int
	err      error
}

func newMemStore() *memStore {
	return &memStore{
		contests: map[string]model.Contest{},
		sports: []model.Sport{
			{ID: "sport_nba", Slug: "nba", Name: "NBA", DisplayName: "NBA", IsActive: true, RosterSize: 8},
			{ID: "sport_old", Slug: "old", Name: "Old", DisplayName: "Old League", IsActive: false, RosterSize: 5},
		},
		users:  map[string]model.User{},
		writes: map[string]int{},
	}
}

func (m *memStore) ListContests(_ context.Context, f model.ContestFilter) ([]model.Contest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var matched []model.Contest
	for _, c := range m.contests {
		if f.Matches(c, "nba") {
			matched = append(matched, c.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	start := min(f.Offset(), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

func (m *memStore) GetContest(_ context.Context, id string) (model.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Contest{}, m.err
	}
	c, ok := m.contests[id]
	if !ok {
		return model.Contest{}, repository.ErrNotFound
	}
	return c.Clone(), nil
}

func (m *memStore) CreateContest(_ context.Context, c model.Contest) (model.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes["create"]++
	if m.err != nil {
		return model.Contest{}, m.err
	}
	m.contests[c.ID] = c.Clone()
	return c, nil
}

func (m *memStore) UpdateContest(_ context.Context, c model.Contest) (model.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes["update"]++
	if m.err != nil {
		return model.Contest{}, m.err
	}
	if _, ok := m.contests[c.ID]; !ok {
		return model.Contest{}, repository.ErrNotFound
	}
	m.contests[c.ID] = c.Clone()
	return c, nil
}

func (m *memStore) DeleteContest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes["delete"]++
	if m.err != nil {
		return m.err
	}
	if _, ok := m.contests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.contests, id)
	return nil
}

func (m *memStore) ListSports(_ context.Context, activeOnly bool) ([]model.Sport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes["sports_read"]++
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Sport
	for _, s := range m.sports {
		if !activeOnly || s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetUser(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memStore) SaveProfile(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes["profile"]++
	if m.err != nil {
		return model.User{}, m.err
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) put(c model.Contest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contests[c.ID] = c
}

// memCache is an in-memory cache.SportCache.
type memCache struct {
	entries map[bool][]model.Sport
	err     error
	sets    int
}

func newMemCache() *memCache { return &memCache{entries: map[bool][]model.Sport{}} }

func (c *memCache) GetSports(_ context.Context, activeOnly bool) ([]model.Sport, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	s, ok := c.entries[activeOnly]
	return s, ok, nil
}

func (c *memCache) SetSports(_ context.Context, activeOnly bool, sports []model.Sport) error {
	c.sets++
	if c.err != nil {
		return c.err
	}
	c.entries[activeOnly] = sports
	return nil
}
