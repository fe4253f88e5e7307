package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medicine not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name        string
	Description string
	Symptoms    []string
}

type UpdateInput struct {
	Name        *string
	Description *string
	Symptoms    *[]string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Medicine, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Medicine{}, ErrInvalidInput
	}

	now := s.now()
	m := Medicine{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Symptoms:    cleanSymptoms(in.Symptoms),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medicine{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, query string) ([]Medicine, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medicine, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medicine{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Medicine{}, ErrInvalidInput
		}
		m.Name = name
	}
	if in.Description != nil {
		m.Description = strings.TrimSpace(*in.Description)
	}
	if in.Symptoms != nil {
		m.Symptoms = cleanSymptoms(*in.Symptoms)
	}
	m.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

// FindOrCreate devuelve la entrada cuyo nombre coincide sin distinguir
// mayúsculas o crea una nueva con description. created indica si se creó.
func (s *Service) FindOrCreate(ctx context.Context, name, description string) (Medicine, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Medicine{}, false, ErrInvalidInput
	}

	m, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return m, false, nil
	case !errors.Is(err, ErrNotFound):
		return Medicine{}, false, err
	}

	m, err = s.Create(ctx, CreateInput{Name: name, Description: description})
	if err != nil {
		return Medicine{}, false, err
	}
	return m, true, nil
}

// Delete no toca las medicaciones que referencian la entrada; esas pasan a
// mostrar el nombre guardado.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// NameOf devuelve ErrNotFound si la entrada no existe.
func (s *Service) NameOf(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrNotFound
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}

func cleanSymptoms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
