package snapshot

import (
	"slices"
	"sync"
	"time"
)

// MemoryRepository keeps snapshots in process memory. It backs the CLI when
// no snapshot database is configured and is used in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byGUID map[string]*Snapshot
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byGUID: make(map[string]*Snapshot)}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) Save(s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.SetID(m.nextID)
	m.byGUID[s.GUID()] = s
	return nil
}

func (m *MemoryRepository) FindByGUID(guid string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byGUID[guid]
	if !ok || s.deletedAt != nil {
		return nil, &NotFoundError{GUID: guid}
	}
	return s, nil
}

func (m *MemoryRepository) Values(guid string) ([]Record, error) {
	s, err := m.FindByGUID(guid)
	if err != nil {
		return nil, err
	}
	return s.Records(), nil
}

func (m *MemoryRepository) List(filter ListFilter) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Snapshot
	for _, s := range m.byGUID {
		if s.deletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Label != "" && s.label != filter.Label {
			continue
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Snapshot) int {
		if c := b.createdAt.Compare(a.createdAt); c != 0 {
			return c
		}
		return int(b.id - a.id)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) Delete(guid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byGUID[guid]
	if !ok || s.deletedAt != nil {
		return &NotFoundError{GUID: guid}
	}
	now := time.Now()
	s.deletedAt = &now
	return nil
}

func (m *MemoryRepository) Purge(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for guid, s := range m.byGUID {
		if s.deletedAt != nil && !s.deletedAt.After(cutoff) {
			delete(m.byGUID, guid)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) Close() error { return nil }
