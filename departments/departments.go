// Package departments caches the analyst→department mapping. The cache is
// write-through: a department change hits the backend first and the local
// copy only moves after the backend confirmed it.
package departments

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Unassigned is what unmapped analysts resolve to. It is a value, not an
// error: aggregation must be total over any analyst name.
const Unassigned = "Unassigned"

// Backend is the slice of the API the map needs.
type Backend interface {
	GetDepartments(ctx context.Context) (map[string]string, error)
	UpdateDepartment(ctx context.Context, analyst, department string) error
}

// Map is the cached mapping. Keys are case-normalized to uppercase, both
// on load and on lookup, so the mapping is insensitive to how the analyst
// name was spelled in the records.
type Map struct {
	backend Backend

	mu     sync.RWMutex
	values map[string]string
}

// NewMap creates an empty Map backed by backend.
func NewMap(backend Backend) (*Map, error) {
	if backend == nil {
		return nil, errors.New("[NewMap] backend is required")
	}
	return &Map{
		backend: backend,
		values:  make(map[string]string),
	}, nil
}

// Load replaces the cache with the backend's current mapping.
func (m *Map) Load(ctx context.Context) error {
	data, err := m.backend.GetDepartments(ctx)
	if err != nil {
		return errors.Wrap(err, "[Map.Load] GetDepartments")
	}

	normalized := make(map[string]string, len(data))
	for analyst, dept := range data {
		normalized[normalize(analyst)] = dept
	}

	m.mu.Lock()
	m.values = normalized
	m.mu.Unlock()
	return nil
}

// Get resolves an analyst's department, Unassigned when unmapped.
func (m *Map) Get(analyst string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if dept, ok := m.values[normalize(analyst)]; ok {
		return dept
	}
	return Unassigned
}

// Update persists a department assignment and then updates the cache. A
// failed write leaves the cache exactly as it was.
func (m *Map) Update(ctx context.Context, analyst, department string) error {
	key := normalize(analyst)
	if err := m.backend.UpdateDepartment(ctx, key, department); err != nil {
		return errors.Wrap(err, "[Map.Update] UpdateDepartment")
	}

	m.mu.Lock()
	m.values[key] = department
	m.mu.Unlock()
	return nil
}

// Known returns the distinct department names currently in the cache,
// for filter dropdowns.
func (m *Map) Known() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, dept := range m.values {
		if _, dup := seen[dept]; !dup {
			seen[dept] = struct{}{}
			out = append(out, dept)
		}
	}
	return out
}

func normalize(analyst string) string {
	return strings.ToUpper(strings.TrimSpace(analyst))
}
