package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/domain/users"
)

var (
	loc   = time.FixedZone("ART", -3*60*60)
	today = medications.Date{Year: 2025, Month: time.March, Day: 10}
)

type fakeMeds struct {
	tracked []medications.Tracked
	now     time.Time
	err     error
}

func (f fakeMeds) ListActive(ctx context.Context, userID string) ([]medications.Tracked, error) {
	return f.tracked, f.err
}

func (f fakeMeds) Resolver() *medications.Resolver { return medications.NewResolver(nil) }

func (f fakeMeds) Now() time.Time { return f.now }

type fakeProfiles map[string]users.User

func (p fakeProfiles) GetByID(ctx context.Context, id string) (users.User, error) {
	u, ok := p[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func ibuprofen() medications.Tracked {
	return medications.Tracked{
		Medication: medications.Medication{
			ID:        "med-1",
			UserID:    "user-1",
			Dosage:    "200mg",
			Times:     []string{"08:00", "20:00"},
			StartDate: today,
			IsActive:  true,
			Notes:     "with food",
		},
		MedicineName: "Ibuprofen",
	}
}

func TestBuildEvents_SkipsPastAndRespectsWindow(t *testing.T) {
	r := medications.NewResolver(nil)
	from := today.At(medications.Clock{Hour: 12}, loc)

	events := BuildEvents(r, []medications.Tracked{ibuprofen()}, from, 3)

	// hoy 20:00 + 2 días completos
	require.Len(t, events, 5)
	assert.True(t, events[0].Start.Equal(today.At(medications.Clock{Hour: 20}, loc)))
	assert.Equal(t, EventDuration, events[0].End.Sub(events[0].Start))
	assert.Equal(t, "Take Ibuprofen", events[0].Title)
	assert.Equal(t, "Dosage: 200mg\nNotes: with food", events[0].Description)
	assert.Equal(t, []time.Duration{15 * time.Minute, 5 * time.Minute}, events[0].Alarms)

	end := today.AddDays(1)
	bounded := ibuprofen()
	bounded.EndDate = &end
	assert.Len(t, BuildEvents(r, []medications.Tracked{bounded}, from, 3), 3)
}

func TestBuildEvents_IgnoresDismissalsAndTaken(t *testing.T) {
	r := medications.NewResolver(nil)
	from := today.At(medications.Clock{Hour: 7}, loc)

	m := ibuprofen()
	medications.AddDismissal(&m.Medication, today, "20:00", from)
	taken := from
	m.LastTaken = &taken

	assert.Len(t, BuildEvents(r, []medications.Tracked{m}, from, 1), 2)
}

func TestBuildEvents_DefaultDosageAndUniqueIDs(t *testing.T) {
	r := medications.NewResolver(nil)
	m := ibuprofen()
	m.Dosage = ""
	m.Notes = ""

	events := BuildEvents(r, []medications.Tracked{m}, today.In(loc), 0)

	require.Len(t, events, 2*DefaultDays)
	assert.Equal(t, "Dosage: As prescribed", events[0].Description)

	seen := map[string]bool{}
	for _, e := range events {
		assert.False(t, seen[e.UID], "duplicate uid %s", e.UID)
		seen[e.UID] = true
	}
}

func TestRender_ContainsEventsAndAlarms(t *testing.T) {
	r := medications.NewResolver(nil)
	from := today.At(medications.Clock{Hour: 12}, loc)
	events := BuildEvents(r, []medications.Tracked{ibuprofen()}, from, 1)

	out := Render(events, "Medications - Ana", from)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Take Ibuprofen")
	assert.Contains(t, out, "STATUS:CONFIRMED")
	assert.Contains(t, out, "TRIGGER:-PT15M")
	assert.Contains(t, out, "TRIGGER:-PT5M")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VALARM"))
}

func TestService_Export(t *testing.T) {
	now := today.At(medications.Clock{Hour: 12}, loc)
	svc := NewService(
		fakeMeds{tracked: []medications.Tracked{ibuprofen()}, now: now},
		fakeProfiles{"user-1": {ID: "user-1", Name: "Ana María"}},
		2, nil,
	)

	exp, err := svc.Export(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "medications-ana-mar-a.ics", exp.Filename)
	assert.Equal(t, 3, exp.Events)
	assert.Contains(t, string(exp.Body), "BEGIN:VCALENDAR")
}

func TestService_Export_NoEvents(t *testing.T) {
	now := today.At(medications.Clock{Hour: 12}, loc)
	svc := NewService(fakeMeds{now: now}, fakeProfiles{}, 30, nil)

	_, err := svc.Export(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestService_Export_PropagatesSourceError(t *testing.T) {
	svc := NewService(fakeMeds{err: medications.ErrUserNotFound}, fakeProfiles{}, 30, nil)

	_, err := svc.Export(context.Background(), "ghost")
	assert.True(t, errors.Is(err, medications.ErrUserNotFound))
}
