package calendar

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/domain/users"
	"medication-tracker/internal/platform/logger"
)

var ErrNoEvents = errors.New("no upcoming doses to export")

// MedicationSource lo implementa medications.Service.
type MedicationSource interface {
	ListActive(ctx context.Context, userID string) ([]medications.Tracked, error)
	Resolver() *medications.Resolver
	// Now devuelve el instante actual en la zona canónica.
	Now() time.Time
}

type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	meds     MedicationSource
	profiles ProfileLookup
	days     int
	log      logger.Logger
}

func NewService(meds MedicationSource, profiles ProfileLookup, days int, log logger.Logger) *Service {
	if days <= 0 {
		days = DefaultDays
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		meds:     meds,
		profiles: profiles,
		days:     days,
		log:      log,
	}
}

// Export es un archivo .ics listo para descargar.
type Export struct {
	Filename string
	Body     []byte
	Events   int
}

func (s *Service) Export(ctx context.Context, userID string) (Export, error) {
	tracked, err := s.meds.ListActive(ctx, userID)
	if err != nil {
		return Export{}, err
	}

	now := s.meds.Now()
	events := BuildEvents(s.meds.Resolver(), tracked, now, s.days)
	if len(events) == 0 {
		return Export{}, ErrNoEvents
	}

	name := userID
	if u, err := s.profiles.GetByID(ctx, userID); err == nil && strings.TrimSpace(u.Name) != "" {
		name = u.Name
	}

	s.log.Info("calendar exported", map[string]any{
		"user_id": userID,
		"events":  len(events),
		"days":    s.days,
	})

	return Export{
		Filename: "medications-" + slug(name) + ".ics",
		Body:     []byte(Render(events, "Medications - "+name, now)),
		Events:   len(events),
	}, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "export"
	}
	return s
}
