package reminders

import (
	"context"

	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/domain/users"
	"medication-tracker/internal/platform/logger"
)

// Notifier entrega los avisos de un usuario. El scanner no deduplica entre
// ticks; si hace falta exactamente-una-vez, el Notifier lleva su propio
// registro usando Occurrence.Key().
type Notifier interface {
	Notify(ctx context.Context, u users.User, due []medications.Due) error
}

// LogNotifier sólo deja los avisos en el log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, u users.User, due []medications.Due) error {
	for _, d := range due {
		n.log.Info("medication due soon", map[string]any{
			"user_id":        u.ID,
			"medication_id":  d.Medication.ID,
			"medicine":       d.MedicineName,
			"dosage":         d.Medication.Dosage,
			"time":           d.TimeStr,
			"minutes_until":  d.MinutesUntil,
			"occurrence_key": d.Occurrence.Key(),
		})
	}
	return nil
}
