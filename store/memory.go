package store

import (
	"context"
	"sort"
	"sync"

	"github.com/chewton2k/Imprint/model"
)

// Memory is an in-memory Store. It is the reference implementation of the
// contract and the default test double. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*model.ProvenanceRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*model.ProvenanceRecord)}
}

func (m *Memory) Create(ctx context.Context, r *model.ProvenanceRecord) (string, error) {
	_ = ctx
	if err := ValidateRecord(r); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[r.ID]; ok {
		if *existing == *r {
			return r.ID, nil
		}
		return "", ErrImmutable
	}
	m.records[r.ID] = r.Clone()
	return r.ID, nil
}

func (m *Memory) FindByID(ctx context.Context, id string) (*model.ProvenanceRecord, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *Memory) FindByContentHash(ctx context.Context, contentHash string) ([]*model.ProvenanceRecord, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.ProvenanceRecord
	for _, r := range m.records {
		if r.ContentHash == contentHash {
			out = append(out, r.Clone())
		}
	}
	SortBySignedAt(out)
	return out, nil
}

func (m *Memory) FindAllWithPerceptualHash(ctx context.Context) ([]*model.ProvenanceRecord, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.ProvenanceRecord
	for _, r := range m.records {
		if r.PerceptualHash != "" {
			out = append(out, r.Clone())
		}
	}
	SortBySignedAt(out)
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// SortBySignedAt orders records ascending by signing time, then by ID so
// output is deterministic for equal timestamps. Records are validated on
// create, so SignedAt always parses here.
func SortBySignedAt(records []*model.ProvenanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, _ := records[i].SignedAtTime()
		tj, _ := records[j].SignedAtTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return records[i].ID < records[j].ID
	})
}
