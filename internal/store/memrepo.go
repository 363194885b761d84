package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/guesswho/internal/domain"
)

// Memory is an in-process profile directory and result log, used when no
// database is configured and in tests.
type Memory struct {
	mu sync.RWMutex

	profiles []*domain.Profile
	results  []domain.RoundResult

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Create(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	cp := *p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, &cp)
	out := cp
	return &out, nil
}

func (m *Memory) ListExcluding(ctx context.Context, userID string) ([]*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if p.UserID == userID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) ListNamed(ctx context.Context) ([]*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if strings.TrimSpace(p.DisplayName) == "" {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// Get returns the most recently created profile owned by userID.
func (m *Memory) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.profiles) - 1; i >= 0; i-- {
		if m.profiles[i].UserID == userID {
			cp := *m.profiles[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) SearchNames(ctx context.Context, query string, limit int) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	names := make([]string, 0, len(m.profiles))
	for _, p := range m.profiles {
		if strings.TrimSpace(p.DisplayName) == "" {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.DisplayName), q) {
			continue
		}
		names = append(names, p.DisplayName)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (m *Memory) Append(ctx context.Context, guesserID, assignedUserID string) (*domain.RoundResult, error) {
	r := domain.RoundResult{
		ID:             uuid.NewString(),
		GuesserID:      guesserID,
		AssignedUserID: assignedUserID,
		CreatedAt:      m.now(),
	}
	m.mu.Lock()
	m.results = append(m.results, r)
	m.mu.Unlock()
	return &r, nil
}

func (m *Memory) All(ctx context.Context) ([]domain.RoundResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.RoundResult(nil), m.results...), nil
}

func (m *Memory) CountWhere(ctx context.Context, field domain.ResultField, userID string) (int, error) {
	if err := checkField(field); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.results {
		if (field == domain.FieldGuesser && r.GuesserID == userID) ||
			(field == domain.FieldAssigned && r.AssignedUserID == userID) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) AssignedBy(ctx context.Context, guesserID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, r := range m.results {
		if r.GuesserID == guesserID {
			out = append(out, r.AssignedUserID)
		}
	}
	return out, nil
}
