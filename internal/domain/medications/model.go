package medications

import (
	"fmt"
	"time"
)

// Frequency es informativa; el horario real lo define Times.
type Frequency string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyTwiceDaily  Frequency = "twice-daily"
	FrequencyThriceDaily Frequency = "thrice-daily"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyAsNeeded    Frequency = "as-needed"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyTwiceDaily, FrequencyThriceDaily, FrequencyWeekly, FrequencyAsNeeded:
		return true
	}
	return false
}

// Source indica cómo se dio de alta la medicación.
type Source string

const (
	SourceManual       Source = "manual"
	SourcePrescription Source = "prescription"
)

// Dismissal marca una ocurrencia (día + hora) como salteada para siempre.
type Dismissal struct {
	Date        Date
	Time        string
	DismissedAt time.Time
}

// Medication es un medicamento en seguimiento de un usuario.
type Medication struct {
	ID     string
	UserID string

	// MedicineID referencia una entrada del catálogo; puede quedar colgada si se borra.
	MedicineID string
	// Nombre guardado al alta, se usa si el catálogo ya no resuelve la referencia.
	MedicineName string

	Dosage    string
	Frequency Frequency
	Times     []string

	StartDate Date
	EndDate   *Date

	IsActive  bool
	LastTaken *time.Time
	NextDose  *time.Time

	DismissedReminders []Dismissal

	Notes string

	Source Source
	// RawText es el texto de la receta tal como llegó del lector.
	RawText string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveOn indica si day cae dentro de [StartDate, EndDate].
func (m Medication) ActiveOn(day Date) bool {
	if day.Before(m.StartDate) {
		return false
	}
	if m.EndDate != nil && day.After(*m.EndDate) {
		return false
	}
	return true
}

// Occurrence es una toma programada: (medicación, día, hora).
type Occurrence struct {
	MedicationID string
	Day          Date
	Time         string
	At           time.Time
}

// Key identifica la ocurrencia de forma estable (p.ej. para deduplicar envíos).
func (o Occurrence) Key() string {
	return fmt.Sprintf("%s|%s|%s", o.MedicationID, o.Day, o.Time)
}

// Clone devuelve una copia profunda; los repos entregan snapshots que no
// comparten slices ni punteros con lo almacenado.
func (m Medication) Clone() Medication {
	out := m
	if m.Times != nil {
		out.Times = append([]string(nil), m.Times...)
	}
	if m.DismissedReminders != nil {
		out.DismissedReminders = append([]Dismissal(nil), m.DismissedReminders...)
	}
	if m.EndDate != nil {
		d := *m.EndDate
		out.EndDate = &d
	}
	if m.LastTaken != nil {
		t := *m.LastTaken
		out.LastTaken = &t
	}
	if m.NextDose != nil {
		t := *m.NextDose
		out.NextDose = &t
	}
	return out
}
