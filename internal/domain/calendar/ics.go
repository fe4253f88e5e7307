package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//medication-tracker//EN"

// Render serializa los eventos como iCalendar (RFC 5545).
func Render(events []Event, name string, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		ev := cal.AddEvent(e.UID)
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(e.Start.UTC())
		ev.SetEndAt(e.End.UTC())
		ev.SetSummary(e.Title)
		ev.SetDescription(e.Description)
		ev.SetStatus(ics.ObjectStatusConfirmed)

		for _, before := range e.Alarms {
			a := ev.AddAlarm()
			a.SetAction(ics.ActionDisplay)
			a.SetTrigger(trigger(before))
			a.SetProperty(ics.ComponentPropertyDescription, e.Title)
		}
	}

	return cal.Serialize()
}

// trigger arma la duración negativa, p.ej. 15m => -PT15M.
func trigger(before time.Duration) string {
	return fmt.Sprintf("-PT%dM", int(before/time.Minute))
}
