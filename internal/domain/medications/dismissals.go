package medications

import (
	"strings"
	"time"
)

// IsDismissed: match exacto de (día, string de hora). Sin ventanas.
func IsDismissed(m Medication, day Date, timeStr string) bool {
	for _, d := range m.DismissedReminders {
		if d.Time == "" || d.Date.IsZero() {
			continue
		}
		if d.Date.Equal(day) && d.Time == timeStr {
			return true
		}
	}
	return false
}

// AddDismissal agrega la dismissal si no existe. Devuelve false si ya estaba.
func AddDismissal(m *Medication, day Date, timeStr string, at time.Time) bool {
	timeStr = strings.TrimSpace(timeStr)
	if IsDismissed(*m, day, timeStr) {
		return false
	}
	m.DismissedReminders = append(m.DismissedReminders, Dismissal{
		Date:        day,
		Time:        timeStr,
		DismissedAt: at,
	})
	return true
}
