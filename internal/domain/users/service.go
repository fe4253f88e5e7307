package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
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

// UpsertInput: punteros para PATCH real (nil = no tocar).
type UpsertInput struct {
	Name          *string
	Email         *string
	Notifications *NotificationPreferences

	Age              *int
	WeightKg         *float64
	HeightCm         *float64
	PhoneNumber      *string
	Conditions       *[]string
	Allergies        *[]string
	EmergencyContact *EmergencyContact
}

func (in UpsertInput) validate() error {
	if in.Age != nil && *in.Age < 0 {
		return fmt.Errorf("%w: age must be >= 0", ErrInvalidInput)
	}
	if in.WeightKg != nil && *in.WeightKg < 0 {
		return fmt.Errorf("%w: weight must be >= 0", ErrInvalidInput)
	}
	if in.HeightCm != nil && *in.HeightCm < 0 {
		return fmt.Errorf("%w: height must be >= 0", ErrInvalidInput)
	}
	return nil
}

// Upsert crea el perfil del usuario autenticado o actualiza el existente.
// Devuelve created=true si no existía.
func (s *Service) Upsert(ctx context.Context, userID string, in UpsertInput) (User, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, false, ErrInvalidInput
	}
	if err := in.validate(); err != nil {
		return User{}, false, err
	}

	now := s.now()
	u, err := s.repo.GetByID(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		u = User{
			ID:            userID,
			Notifications: DefaultNotificationPreferences(),
			CreatedAt:     now,
		}
		apply(&u, in)
		if strings.TrimSpace(u.Name) == "" {
			return User{}, false, ErrInvalidInput
		}
		u.UpdatedAt = now
		if err := s.repo.Create(ctx, u); err != nil {
			return User{}, false, err
		}
		return u, true, nil
	case err != nil:
		return User{}, false, err
	}

	apply(&u, in)
	if strings.TrimSpace(u.Name) == "" {
		return User{}, false, ErrInvalidInput
	}
	u.UpdatedAt = now
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, false, err
	}
	return u, false, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Exists implementa medications.UserLookup.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ListNotifiable devuelve los usuarios con notificaciones push habilitadas.
func (s *Service) ListNotifiable(ctx context.Context) ([]User, error) {
	return s.repo.ListWithPushEnabled(ctx)
}

func apply(u *User, in UpsertInput) {
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Notifications != nil {
		u.Notifications = *in.Notifications
	}

	h := &u.Health
	if in.Age != nil {
		v := *in.Age
		h.Age = &v
	}
	if in.WeightKg != nil {
		v := *in.WeightKg
		h.WeightKg = &v
	}
	if in.HeightCm != nil {
		v := *in.HeightCm
		h.HeightCm = &v
	}
	if in.PhoneNumber != nil {
		h.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Conditions != nil {
		h.Conditions = cleanList(*in.Conditions)
	}
	if in.Allergies != nil {
		h.Allergies = cleanList(*in.Allergies)
	}
	if in.EmergencyContact != nil {
		h.EmergencyContact = EmergencyContact{
			Name:         strings.TrimSpace(in.EmergencyContact.Name),
			Phone:        strings.TrimSpace(in.EmergencyContact.Phone),
			Relationship: strings.TrimSpace(in.EmergencyContact.Relationship),
		}
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
