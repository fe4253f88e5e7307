package calendar

import (
	"fmt"
	"strings"
	"time"

	"medication-tracker/internal/domain/medications"
)

const (
	DefaultDays   = 30
	EventDuration = 15 * time.Minute
)

// Avisos antes de cada toma.
var defaultAlarms = []time.Duration{15 * time.Minute, 5 * time.Minute}

// Event es una toma futura proyectada para exportar.
type Event struct {
	UID          string
	MedicationID string
	Title        string
	Description  string
	Start        time.Time
	End          time.Time
	Alarms       []time.Duration
}

// BuildEvents proyecta las tomas de los próximos days días calendario (hoy
// incluido) a partir de from. Respeta la ventana start/end de cada medicación
// y descarta instantes ya pasados. No mira tomas registradas ni descartes.
func BuildEvents(r *medications.Resolver, tracked []medications.Tracked, from time.Time, days int) []Event {
	if days <= 0 {
		days = DefaultDays
	}
	loc := from.Location()
	today := medications.DateOf(from)

	out := make([]Event, 0)
	for _, t := range tracked {
		if !t.IsActive {
			continue
		}
		for offset := 0; offset < days; offset++ {
			for _, o := range r.OccurrencesOn(t.Medication, today.AddDays(offset), loc) {
				if o.At.Before(from) {
					continue
				}
				out = append(out, newEvent(t, o))
			}
		}
	}
	return out
}

func newEvent(t medications.Tracked, o medications.Occurrence) Event {
	dosage := strings.TrimSpace(t.Dosage)
	if dosage == "" {
		dosage = "As prescribed"
	}
	desc := "Dosage: " + dosage
	if notes := strings.TrimSpace(t.Notes); notes != "" {
		desc += "\nNotes: " + notes
	}

	return Event{
		UID:          fmt.Sprintf("%s-%s-%s@medtrack", o.MedicationID, o.Day, strings.ReplaceAll(o.Time, ":", "")),
		MedicationID: o.MedicationID,
		Title:        "Take " + t.MedicineName,
		Description:  desc,
		Start:        o.At,
		End:          o.At.Add(EventDuration),
		Alarms:       append([]time.Duration(nil), defaultAlarms...),
	}
}
