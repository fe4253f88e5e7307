package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medication-tracker/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrMedicationNotFound  = errors.New("medication not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrCatalogEntryMissing = errors.New("catalog entry not found")
)

const fallbackMedicineName = "Unknown Medicine"

type Options struct {
	// Zona canónica. Default: time.Local.
	Location            *time.Location
	AdherenceWindowDays int
	Logger              logger.Logger
	// Now reemplaza el reloj (tests end-to-end). Default: time.Now.
	Now func() time.Time
}

type Service struct {
	repo      Repository
	users     UserLookup
	medicines MedicineLookup
	resolver  *Resolver
	log       logger.Logger

	now             func() time.Time
	loc             *time.Location
	adherenceWindow int
}

func NewService(repo Repository, users UserLookup, medicines MedicineLookup, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	window := opts.AdherenceWindowDays
	if window <= 0 {
		window = DefaultAdherenceWindowDays
	}

	return &Service{
		repo:            repo,
		users:           users,
		medicines:       medicines,
		resolver:        NewResolver(log),
		log:             log,
		now:             now,
		loc:             loc,
		adherenceWindow: window,
	}
}

// Resolver expone el motor (lo usan el scanner y el export de calendario).
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Location es la zona canónica de los días calendario.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Now es el instante actual en la zona canónica.
func (s *Service) Now() time.Time {
	return s.clock()
}

// Tracked es una medicación con su nombre de catálogo ya resuelto.
type Tracked struct {
	Medication
	MedicineName string
}

// Due es un DueItem con nombre resuelto.
type Due struct {
	DueItem
	MedicineName string
}

type Stats struct {
	Adherence        int
	TotalMedications int
	TodayDueCount    int
}

type AddInput struct {
	MedicineID string
	Dosage     string
	Frequency  Frequency
	Times      []string
	StartDate  *Date
	EndDate    *Date
	Notes      string
}

func (s *Service) Add(ctx context.Context, userID string, in AddInput) (Tracked, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return Tracked{}, err
	}

	medicineID := strings.TrimSpace(in.MedicineID)
	if medicineID == "" {
		return Tracked{}, fmt.Errorf("%w: medicine required", ErrInvalidInput)
	}
	times, err := normalizeTimes(in.Times)
	if err != nil {
		return Tracked{}, err
	}
	if len(times) == 0 {
		return Tracked{}, fmt.Errorf("%w: at least one time required", ErrInvalidInput)
	}

	freq := in.Frequency
	if freq == "" {
		freq = FrequencyDaily
	}
	if !freq.Valid() {
		return Tracked{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, freq)
	}

	// La referencia debe existir al alta; guardamos el nombre como fallback.
	name, err := s.medicines.NameOf(ctx, medicineID)
	if err != nil {
		if errors.Is(err, ErrCatalogEntryMissing) {
			return Tracked{}, err
		}
		return Tracked{}, fmt.Errorf("resolve medicine %s: %w", medicineID, err)
	}

	now := s.clock()
	start := DateOf(now)
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil && in.EndDate.Before(start) {
		return Tracked{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	m := Medication{
		ID:           uuid.NewString(),
		UserID:       userID,
		MedicineID:   medicineID,
		MedicineName: name,
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    freq,
		Times:        times,
		StartDate:    start,
		EndDate:      in.EndDate,
		IsActive:     true,
		Notes:        strings.TrimSpace(in.Notes),
		Source:       SourceManual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.refreshNextDose(&m, now)

	if err := s.repo.Create(ctx, m); err != nil {
		return Tracked{}, err
	}

	s.log.Info("medication added", map[string]any{
		"user_id":       userID,
		"medication_id": m.ID,
		"medicine_id":   medicineID,
	})
	return Tracked{Medication: m, MedicineName: name}, nil
}

// UpdateInput reemplaza campos de horario. nil = no tocar.
type UpdateInput struct {
	Dosage    *string
	Frequency *Frequency
	Times     []string
	StartDate *Date
	EndDate   *Date
	ClearEnd  bool
	Notes     *string
	IsActive  *bool
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Tracked, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return Tracked{}, err
	}

	var times []string
	if in.Times != nil {
		t, err := normalizeTimes(in.Times)
		if err != nil {
			return Tracked{}, err
		}
		if len(t) == 0 {
			return Tracked{}, fmt.Errorf("%w: at least one time required", ErrInvalidInput)
		}
		times = t
	}
	if in.Frequency != nil && !in.Frequency.Valid() {
		return Tracked{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, *in.Frequency)
	}

	now := s.clock()
	m, err := s.repo.Apply(ctx, userID, id, func(m *Medication) error {
		if in.Dosage != nil {
			m.Dosage = strings.TrimSpace(*in.Dosage)
		}
		if in.Frequency != nil {
			m.Frequency = *in.Frequency
		}
		if times != nil {
			m.Times = times
		}
		if in.StartDate != nil {
			m.StartDate = *in.StartDate
		}
		switch {
		case in.ClearEnd:
			m.EndDate = nil
		case in.EndDate != nil:
			end := *in.EndDate
			m.EndDate = &end
		}
		if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
			return fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
		}
		if in.Notes != nil {
			m.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.IsActive != nil {
			m.IsActive = *in.IsActive
		}
		m.UpdatedAt = now
		s.refreshNextDose(m, now)
		return nil
	})
	if err != nil {
		return Tracked{}, err
	}
	return s.track(ctx, m), nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, id)
}

// RecordTaken fija lastTaken = now. Dos llamadas concurrentes: gana la última.
func (s *Service) RecordTaken(ctx context.Context, userID, id string) (Tracked, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return Tracked{}, err
	}

	now := s.clock()
	m, err := s.repo.Apply(ctx, userID, id, func(m *Medication) error {
		taken := now
		m.LastTaken = &taken
		m.UpdatedAt = now
		s.refreshNextDose(m, now)
		return nil
	})
	if err != nil {
		return Tracked{}, err
	}
	return s.track(ctx, m), nil
}

// RecordDismissal es idempotente: repetir (día, hora) no agrega entradas.
func (s *Service) RecordDismissal(ctx context.Context, userID, id string, day Date, timeStr string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if day.IsZero() {
		return fmt.Errorf("%w: date required", ErrInvalidInput)
	}
	c, err := ParseClock(strings.TrimSpace(timeStr))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.clock()
	_, err = s.repo.Apply(ctx, userID, id, func(m *Medication) error {
		if AddDismissal(m, day, c.String(), now) {
			m.UpdatedAt = now
		}
		return nil
	})
	return err
}

// Schedule: medicaciones activas vigentes hoy, sin resolver horarios.
func (s *Service) Schedule(ctx context.Context, userID string) ([]Tracked, error) {
	meds, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := DateOf(s.clock())
	out := make([]Tracked, 0, len(meds))
	for _, m := range meds {
		if !m.IsActive || !m.ActiveOn(today) {
			continue
		}
		out = append(out, s.track(ctx, m))
	}
	return out, nil
}

func (s *Service) Today(ctx context.Context, userID string) ([]Due, error) {
	meds, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withNames(ctx, s.resolver.TodaysDue(meds, s.clock())), nil
}

func (s *Service) DueNow(ctx context.Context, userID string) ([]Due, error) {
	meds, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withNames(ctx, s.resolver.DueNow(meds, s.clock())), nil
}

// DueSoon evalúa al instante now recibido (el scanner pasa el instante del tick).
func (s *Service) DueSoon(ctx context.Context, userID string, now time.Time, lookahead time.Duration) ([]Due, error) {
	meds, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withNames(ctx, s.resolver.DueSoon(meds, now.In(s.loc), lookahead)), nil
}

// ScanDueSoon es DueSoon para el barrido periódico: evalúa como mucho
// maxMeds medicaciones activas (0 = sin tope) e informa cuántas quedaron afuera.
func (s *Service) ScanDueSoon(ctx context.Context, userID string, now time.Time, lookahead time.Duration, maxMeds int) ([]Due, int, error) {
	meds, err := s.list(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	active := make([]Medication, 0, len(meds))
	for _, m := range meds {
		if m.IsActive {
			active = append(active, m)
		}
	}
	skipped := 0
	if maxMeds > 0 && len(active) > maxMeds {
		skipped = len(active) - maxMeds
		active = active[:maxMeds]
	}

	return s.withNames(ctx, s.resolver.DueSoon(active, now.In(s.loc), lookahead)), skipped, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	meds, err := s.list(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	now := s.clock()
	active := 0
	for _, m := range meds {
		if m.IsActive {
			active++
		}
	}
	return Stats{
		Adherence:        s.resolver.Adherence(meds, now, s.adherenceWindow),
		TotalMedications: active,
		TodayDueCount:    s.resolver.TodayDueCount(meds, now),
	}, nil
}

// ListActive devuelve las medicaciones activas con nombre resuelto, sin filtrar
// por ventana (el export de calendario aplica su propia ventana).
func (s *Service) ListActive(ctx context.Context, userID string) ([]Tracked, error) {
	meds, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Tracked, 0, len(meds))
	for _, m := range meds {
		if m.IsActive {
			out = append(out, s.track(ctx, m))
		}
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, userID string) ([]Medication, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ensureUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) refreshNextDose(m *Medication, now time.Time) {
	next, ok := s.resolver.NextOccurrence(*m, now)
	if !ok {
		m.NextDose = nil
		return
	}
	at := next.At
	m.NextDose = &at
}

func (s *Service) track(ctx context.Context, m Medication) Tracked {
	return Tracked{Medication: m, MedicineName: s.displayName(ctx, m)}
}

func (s *Service) withNames(ctx context.Context, items []DueItem) []Due {
	out := make([]Due, 0, len(items))
	for _, it := range items {
		out = append(out, Due{DueItem: it, MedicineName: s.displayName(ctx, it.Medication)})
	}
	return out
}

// displayName tolera referencias de catálogo borradas.
func (s *Service) displayName(ctx context.Context, m Medication) string {
	name, err := s.medicines.NameOf(ctx, m.MedicineID)
	if err == nil && strings.TrimSpace(name) != "" {
		return name
	}
	if err != nil {
		s.log.Debug("catalog entry unresolved, using fallback name", map[string]any{
			"medication_id": m.ID,
			"medicine_id":   m.MedicineID,
			"error":         err,
		})
	}
	if strings.TrimSpace(m.MedicineName) != "" {
		return m.MedicineName
	}
	return fallbackMedicineName
}

// normalizeTimes valida al escribir: descarta vacíos y normaliza a HH:MM.
func normalizeTimes(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		c, err := ParseClock(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		out = append(out, c.String())
	}
	return out, nil
}
