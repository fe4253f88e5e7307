package medications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PrescriptionItem es un medicamento de una receta ya leída (OCR o cliente).
// Todos los campos son texto libre salvo Name.
type PrescriptionItem struct {
	Name      string
	Dosage    string
	Frequency string
	Timing    string
	Duration  string
}

type ImportInput struct {
	Items   []PrescriptionItem
	Notes   string
	RawText string
}

// Import agrega al seguimiento cada ítem con nombre, dando de alta en el
// catálogo los que no existan. Frequency vacía o desconocida queda as-needed;
// Timing sólo se usa como horario si todas sus partes son HH:MM, si no va a
// las notas junto con Duration.
func (s *Service) Import(ctx context.Context, userID string, in ImportInput) ([]Tracked, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: no medicines provided", ErrInvalidInput)
	}

	now := s.clock()
	meds := make([]Medication, 0, len(in.Items))
	for _, it := range in.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		id, canonical, err := s.medicines.EnsureByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve medicine %q: %w", name, err)
		}
		meds = append(meds, s.importedMedication(userID, id, canonical, it, in, now))
	}
	if len(meds) == 0 {
		return nil, fmt.Errorf("%w: no valid medicines found", ErrInvalidInput)
	}

	// Sin transacción entre ítems: si falla uno, los anteriores quedan guardados.
	out := make([]Tracked, 0, len(meds))
	for _, m := range meds {
		if err := s.repo.Create(ctx, m); err != nil {
			return nil, err
		}
		out = append(out, Tracked{Medication: m, MedicineName: m.MedicineName})
	}

	s.log.Info("prescription imported", map[string]any{
		"user_id": userID,
		"count":   len(out),
	})
	return out, nil
}

func (s *Service) importedMedication(userID, medicineID, name string, it PrescriptionItem, in ImportInput, now time.Time) Medication {
	notes := make([]string, 0, 4)
	if n := strings.TrimSpace(in.Notes); n != "" {
		notes = append(notes, n)
	}

	freq, ok := parseFrequency(it.Frequency)
	if !ok {
		notes = append(notes, "Frequency: "+strings.TrimSpace(it.Frequency))
	}
	timing := strings.TrimSpace(it.Timing)
	times, ok := parseTiming(timing)
	if !ok && timing != "" {
		notes = append(notes, "Timing: "+timing)
	}
	if d := strings.TrimSpace(it.Duration); d != "" {
		notes = append(notes, "Duration: "+d)
	}

	m := Medication{
		ID:           uuid.NewString(),
		UserID:       userID,
		MedicineID:   medicineID,
		MedicineName: name,
		Dosage:       strings.TrimSpace(it.Dosage),
		Frequency:    freq,
		Times:        times,
		StartDate:    DateOf(now),
		IsActive:     true,
		Notes:        strings.Join(notes, "\n"),
		Source:       SourcePrescription,
		RawText:      strings.TrimSpace(in.RawText),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.refreshNextDose(&m, now)
	return m
}

// parseFrequency acepta "twice daily", "Twice_Daily", etc. ok=false si había
// texto que no corresponde a ninguna frecuencia conocida.
func parseFrequency(raw string) (Frequency, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return FrequencyAsNeeded, true
	}
	f := Frequency(strings.NewReplacer(" ", "-", "_", "-").Replace(raw))
	if f.Valid() {
		return f, true
	}
	return FrequencyAsNeeded, false
}

// parseTiming convierte "08:00, 20:00" en horarios. Cualquier parte que no
// sea HH:MM invalida todo el texto.
func parseTiming(raw string) ([]string, bool) {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '/'
	})
	if len(parts) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		c, err := ParseClock(p)
		if err != nil {
			return nil, false
		}
		out = append(out, c.String())
	}
	return out, true
}
