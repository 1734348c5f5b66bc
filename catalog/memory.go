package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hirestack/assessrec/vec"
)

// MemoryStore is an in-process Store backed by a map. Similarity
// search is a full linear scan, fast enough for a catalog of a few
// hundred rows. It backs mock mode and the test suites.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Assessment
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Assessment)}
}

// NewSeededMemoryStore creates a MemoryStore pre-populated with the
// given assessments.
func NewSeededMemoryStore(assessments []Assessment) *MemoryStore {
	s := NewMemoryStore()
	for _, a := range assessments {
		s.rows[a.ID] = a
	}
	return s
}

func (s *MemoryStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns a page of assessments ordered by id ascending.
func (s *MemoryStore) List(_ context.Context, f ListFilter, skip, limit int) ([]Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Assessment
	for _, id := range s.sortedIDs() {
		a := s.rows[id]
		if matchesListFilter(a, f) {
			out = append(out, a)
		}
	}
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Get returns one assessment by id.
func (s *MemoryStore) Get(_ context.Context, id string) (Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.rows[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	return a, nil
}

// Create inserts a new assessment, assigning an id when absent.
func (s *MemoryStore) Create(_ context.Context, a Assessment) (Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := s.rows[a.ID]; exists {
		return Assessment{}, fmt.Errorf("assessment %q already exists", a.ID)
	}
	s.rows[a.ID] = a
	return a, nil
}

// Update replaces the stored row atomically. The previously stored
// embedding is retained unless the description changed, in which case
// it is cleared for regeneration (or replaced when the caller supplied
// a new vector).
func (s *MemoryStore) Update(_ context.Context, a Assessment) (Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.rows[a.ID]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	if a.Embedding == nil {
		if a.Description == prev.Description {
			a.Embedding = prev.Embedding
		}
	}
	s.rows[a.ID] = a
	return a, nil
}

// Delete removes one assessment by id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// Match scans every embedded row and returns the top k by cosine
// similarity above minSim. The query vector is normalized here, which
// is idempotent for already-normalized input.
func (s *MemoryStore) Match(_ context.Context, embedding []float32, k int, minSim float64) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("match count must be positive, got %d", k)
	}
	q := vec.Normalize(append([]float32(nil), embedding...))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Match
	for _, id := range s.sortedIDs() {
		a := s.rows[id]
		if a.Embedding == nil {
			continue
		}
		sim, err := vec.Cosine(q, a.Embedding)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", a.ID, err)
		}
		if sim >= minSim {
			out = append(out, Match{Assessment: a, Similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// BatchUpsert inserts or replaces rows keyed by name, best-effort.
func (s *MemoryStore) BatchUpsert(_ context.Context, entries []Assessment) (UpsertReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := make(map[string]string, len(s.rows))
	for id, a := range s.rows {
		byName[a.Name] = id
	}

	var report UpsertReport
	for _, a := range entries {
		if a.Name == "" {
			report.ErrorCount++
			continue
		}
		if id, ok := byName[a.Name]; ok {
			a.ID = id
		} else if a.ID == "" {
			a.ID = uuid.NewString()
		}
		byName[a.Name] = a.ID
		s.rows[a.ID] = a
		report.SuccessCount++
	}
	return report, nil
}

// SetEmbedding stores a new vector for one row.
func (s *MemoryStore) SetEmbedding(_ context.Context, id string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	a.Embedding = embedding
	s.rows[id] = a
	return nil
}

var _ Store = (*MemoryStore)(nil)
