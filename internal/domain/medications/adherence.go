package medications

import (
	"math"
	"time"
)

const DefaultAdherenceWindowDays = 7

// Adherence calcula el porcentaje (0-100) de tomas cubiertas en los últimos
// windowDays días calendario, hoy incluido.
//
// El crédito es por día: si lastTaken cae en un día, ese día suma todas sus
// tomas como satisfechas, sin verificar cada horario.
func (r *Resolver) Adherence(meds []Medication, now time.Time, windowDays int) int {
	if windowDays <= 0 {
		windowDays = DefaultAdherenceWindowDays
	}
	today := DateOf(now)

	expected, satisfied := 0, 0
	for _, m := range meds {
		if !m.IsActive || len(m.Times) == 0 {
			continue
		}
		perDay := len(m.Times)

		var takenDay *Date
		if m.LastTaken != nil {
			d := DateOf(m.LastTaken.In(now.Location()))
			takenDay = &d
		}

		for offset := 0; offset < windowDays; offset++ {
			day := today.AddDays(-offset)
			if !m.ActiveOn(day) {
				continue
			}
			expected += perDay
			if takenDay != nil && takenDay.Equal(day) {
				satisfied += perDay
			}
		}
	}

	if expected == 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(satisfied) / float64(expected)))
	if pct > 100 {
		pct = 100
	}
	return pct
}
