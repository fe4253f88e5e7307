package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medication-tracker/internal/domain/catalog"
)

type catalogRepo struct {
	mu   sync.RWMutex
	byID map[string]catalog.Medicine
}

func NewCatalogRepo() catalog.Repository {
	return &catalogRepo{
		byID: make(map[string]catalog.Medicine),
	}
}

func (r *catalogRepo) Create(ctx context.Context, m catalog.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medicine id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("medicine already exists")
	}
	r.byID[m.ID] = cloneMedicine(m)
	return nil
}

func (r *catalogRepo) GetByID(ctx context.Context, id string) (catalog.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return catalog.Medicine{}, catalog.ErrNotFound
	}
	return cloneMedicine(m), nil
}

// FindByName: si hay varias con el mismo nombre gana la más antigua.
func (r *catalogRepo) FindByName(ctx context.Context, name string) (catalog.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimSpace(name)
	var (
		best  catalog.Medicine
		found bool
	)
	for _, m := range r.byID {
		if !strings.EqualFold(m.Name, name) {
			continue
		}
		if !found || m.CreatedAt.Before(best.CreatedAt) || (m.CreatedAt.Equal(best.CreatedAt) && m.ID < best.ID) {
			best, found = m, true
		}
	}
	if !found {
		return catalog.Medicine{}, catalog.ErrNotFound
	}
	return cloneMedicine(best), nil
}

func (r *catalogRepo) List(ctx context.Context, query string) ([]catalog.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]catalog.Medicine, 0, len(r.byID))
	for _, m := range r.byID {
		if q != "" && !matches(m, q) {
			continue
		}
		out = append(out, cloneMedicine(m))
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (r *catalogRepo) Update(ctx context.Context, m catalog.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; !exists {
		return catalog.ErrNotFound
	}
	r.byID[m.ID] = cloneMedicine(m)
	return nil
}

func (r *catalogRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return catalog.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func matches(m catalog.Medicine, q string) bool {
	if strings.Contains(strings.ToLower(m.Name), q) {
		return true
	}
	for _, s := range m.Symptoms {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func cloneMedicine(m catalog.Medicine) catalog.Medicine {
	if m.Symptoms != nil {
		m.Symptoms = append([]string(nil), m.Symptoms...)
	}
	return m
}
