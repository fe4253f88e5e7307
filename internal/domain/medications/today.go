package medications

import (
	"math"
	"sort"
	"time"
)

type DueStatus string

const (
	DueStatusUpcoming DueStatus = "upcoming"
	DueStatusOverdue  DueStatus = "overdue"
)

// Ventana "due now" para superficies de aviso: hasta 15 min antes y hasta 30 min tarde.
const (
	DueNowEarliestMinutes = -30
	DueNowLatestMinutes   = 15
)

// DueItem es la próxima toma pendiente de una medicación.
type DueItem struct {
	Medication   Medication
	Occurrence   Occurrence
	DueTime      time.Time
	TimeStr      string
	Status       DueStatus
	MinutesUntil int
}

// IsDueNow aplica el filtro -30 <= minutesUntil <= 15.
func (d DueItem) IsDueNow() bool {
	return d.MinutesUntil >= DueNowEarliestMinutes && d.MinutesUntil <= DueNowLatestMinutes
}

// TodaysDue devuelve, por cada medicación activa y vigente hoy, la toma más
// temprana del día que no esté ni satisfecha ni descartada. Las medicaciones
// sin tomas pendientes no aparecen. Orden ascendente por DueTime.
func (r *Resolver) TodaysDue(meds []Medication, now time.Time) []DueItem {
	today := DateOf(now)
	out := make([]DueItem, 0, len(meds))

	for _, m := range meds {
		if !m.IsActive || len(m.Times) == 0 {
			continue
		}
		next, ok := r.earliestPendingOn(m, today, now.Location())
		if !ok {
			continue
		}
		out = append(out, newDueItem(m, next, now))
	}

	sortDueItems(out)
	return out
}

// DueNow filtra TodaysDue con la ventana de aviso.
func (r *Resolver) DueNow(meds []Medication, now time.Time) []DueItem {
	items := r.TodaysDue(meds, now)
	out := make([]DueItem, 0, len(items))
	for _, it := range items {
		if it.IsDueNow() {
			out = append(out, it)
		}
	}
	return out
}

// DueSoon devuelve las tomas en (now, now+lookahead], sin las ya satisfechas ni
// las descartadas. Puede haber más de un ítem por medicación. Si la ventana
// cruza la medianoche también mira el día siguiente.
func (r *Resolver) DueSoon(meds []Medication, now time.Time, lookahead time.Duration) []DueItem {
	if lookahead <= 0 {
		return nil
	}
	loc := now.Location()
	until := now.Add(lookahead)

	days := []Date{DateOf(now)}
	if last := DateOf(until); !last.Equal(days[0]) {
		days = append(days, last)
	}

	out := make([]DueItem, 0)
	for _, m := range meds {
		if !m.IsActive || len(m.Times) == 0 {
			continue
		}
		for _, day := range days {
			for _, o := range r.OccurrencesOn(m, day, loc) {
				if !o.At.After(now) || o.At.After(until) {
					continue
				}
				if IsDismissed(m, o.Day, o.Time) || IsSatisfied(m, o) {
					continue
				}
				out = append(out, newDueItem(m, o, now))
			}
		}
	}

	sortDueItems(out)
	return out
}

// TodayDueCount cuenta medicaciones distintas con al menos una toma pendiente hoy.
func (r *Resolver) TodayDueCount(meds []Medication, now time.Time) int {
	today := DateOf(now)
	n := 0
	for _, m := range meds {
		if !m.IsActive || len(m.Times) == 0 {
			continue
		}
		if _, ok := r.earliestPendingOn(m, today, now.Location()); ok {
			n++
		}
	}
	return n
}

func (r *Resolver) earliestPendingOn(m Medication, day Date, loc *time.Location) (Occurrence, bool) {
	var (
		best  Occurrence
		found bool
	)
	for _, o := range r.OccurrencesOn(m, day, loc) {
		if IsDismissed(m, o.Day, o.Time) {
			continue
		}
		if IsSatisfied(m, o) {
			continue
		}
		// Con empate gana la primera listada.
		if !found || o.At.Before(best.At) {
			best = o
			found = true
		}
	}
	return best, found
}

func newDueItem(m Medication, o Occurrence, now time.Time) DueItem {
	status := DueStatusUpcoming
	if !o.At.After(now) {
		status = DueStatusOverdue
	}
	return DueItem{
		Medication:   m,
		Occurrence:   o,
		DueTime:      o.At,
		TimeStr:      o.Time,
		Status:       status,
		MinutesUntil: minutesBetween(now, o.At),
	}
}

// minutesBetween redondea a minuto entero (.5 hacia +inf).
func minutesBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Minutes() + 0.5))
}

func sortDueItems(items []DueItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueTime.Before(items[j].DueTime)
	})
}
