package medications

import (
	"sort"
	"time"

	"medication-tracker/internal/platform/logger"
)

// Resolver es el motor de resolución de horarios. No lee el reloj: todas las
// operaciones reciben el instante de referencia, y su Location define el día
// calendario (zona canónica única).
type Resolver struct {
	log logger.Logger
}

func NewResolver(log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{log: log}
}

// slots devuelve las entradas válidas de Times en el orden guardado.
// Las inválidas se loguean y se saltan; nunca abortan la medicación.
func (r *Resolver) slots(m Medication) []slot {
	out := make([]slot, 0, len(m.Times))
	for _, raw := range m.Times {
		c, err := ParseClock(raw)
		if err != nil {
			r.log.Warn("skipping malformed dose time", map[string]any{
				"medication_id": m.ID,
				"time":          raw,
				"error":         err,
			})
			continue
		}
		out = append(out, slot{raw: raw, clock: c})
	}
	return out
}

// NextOccurrence devuelve la próxima toma en o después de ref.
//
// Si StartDate es posterior al día de ref, es la primera hora listada en
// StartDate. Si no, la más temprana de hoy estrictamente posterior a ref; si
// no queda ninguna, la primera hora listada de mañana. Un candidato posterior
// a EndDate significa que no hay más tomas.
func (r *Resolver) NextOccurrence(m Medication, ref time.Time) (Occurrence, bool) {
	if !m.IsActive {
		return Occurrence{}, false
	}
	slots := r.slots(m)
	if len(slots) == 0 {
		return Occurrence{}, false
	}

	loc := ref.Location()
	today := DateOf(ref)

	var next Occurrence
	switch {
	case m.StartDate.After(today):
		next = occurrenceOf(m, m.StartDate, slots[0], loc)
	default:
		candidates := make([]Occurrence, 0, len(slots))
		for _, s := range slots {
			o := occurrenceOf(m, today, s, loc)
			if o.At.After(ref) {
				candidates = append(candidates, o)
			}
		}
		if len(candidates) > 0 {
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].At.Before(candidates[j].At)
			})
			next = candidates[0]
		} else {
			next = occurrenceOf(m, today.AddDays(1), slots[0], loc)
		}
	}

	if m.EndDate != nil && next.Day.After(*m.EndDate) {
		return Occurrence{}, false
	}
	return next, true
}

// OccurrencesOn devuelve las tomas de day en orden de Times, o nada si day
// queda fuera de la ventana activa.
func (r *Resolver) OccurrencesOn(m Medication, day Date, loc *time.Location) []Occurrence {
	if !m.ActiveOn(day) {
		return nil
	}
	slots := r.slots(m)
	out := make([]Occurrence, 0, len(slots))
	for _, s := range slots {
		out = append(out, occurrenceOf(m, day, s, loc))
	}
	return out
}

func occurrenceOf(m Medication, day Date, s slot, loc *time.Location) Occurrence {
	return Occurrence{
		MedicationID: m.ID,
		Day:          day,
		Time:         s.raw,
		At:           day.At(s.clock, loc),
	}
}
