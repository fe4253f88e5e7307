package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medication-tracker/internal/domain/medications"
)

// medicationRepo guarda las medicaciones por usuario. Todo lo que entra y sale
// se clona: nadie fuera del repo comparte slices con el estado guardado.
type medicationRepo struct {
	mu     sync.RWMutex
	byUser map[string]map[string]medications.Medication
}

func NewMedicationRepo() medications.Repository {
	return &medicationRepo{
		byUser: make(map[string]map[string]medications.Medication),
	}
}

func (r *medicationRepo) Create(ctx context.Context, m medications.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.UserID) == "" {
		return errors.New("medication id and user id required")
	}
	bucket, ok := r.byUser[m.UserID]
	if !ok {
		bucket = make(map[string]medications.Medication)
		r.byUser[m.UserID] = bucket
	}
	if _, exists := bucket[m.ID]; exists {
		return errors.New("medication already exists")
	}
	bucket[m.ID] = m.Clone()
	return nil
}

func (r *medicationRepo) GetByID(ctx context.Context, userID, id string) (medications.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byUser[userID][id]
	if !ok {
		return medications.Medication{}, medications.ErrMedicationNotFound
	}
	return m.Clone(), nil
}

func (r *medicationRepo) ListByUser(ctx context.Context, userID string) ([]medications.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.byUser[userID]
	out := make([]medications.Medication, 0, len(bucket))
	for _, m := range bucket {
		out = append(out, m.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Apply corre fn sobre una copia con el lock tomado; si fn falla no se guarda nada.
func (r *medicationRepo) Apply(ctx context.Context, userID, id string, fn func(*medications.Medication) error) (medications.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[userID][id]
	if !ok {
		return medications.Medication{}, medications.ErrMedicationNotFound
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return medications.Medication{}, err
	}
	// ID y dueño no se mueven
	next.ID, next.UserID = current.ID, current.UserID

	r.byUser[userID][id] = next.Clone()
	return next, nil
}

func (r *medicationRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.byUser[userID]
	if _, ok := bucket[id]; !ok {
		return medications.ErrMedicationNotFound
	}
	delete(bucket, id)
	return nil
}
