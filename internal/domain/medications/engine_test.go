package medications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("ART", -3*60*60)

func at(day Date, hh, mm int) time.Time {
	return time.Date(day.Year, day.Month, day.Day, hh, mm, 0, 0, testLoc)
}

var today = Date{Year: 2025, Month: time.March, Day: 10}

func twiceDaily() Medication {
	return Medication{
		ID:        "med-1",
		UserID:    "user-1",
		Frequency: FrequencyTwiceDaily,
		Times:     []string{"08:00", "20:00"},
		StartDate: today,
		IsActive:  true,
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "08:00", want: Clock{8, 0}},
		{in: "8:05", want: Clock{8, 5}},
		{in: "23:59", want: Clock{23, 59}},
		{in: "00:00", want: Clock{0, 0}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "0800", wantErr: true},
		{in: "08:00:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidTimeFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTodaysDue_ScenarioA_UpcomingBeforeFirstDose(t *testing.T) {
	r := NewResolver(nil)

	items := r.TodaysDue([]Medication{twiceDaily()}, at(today, 7, 50))

	require.Len(t, items, 1)
	assert.True(t, items[0].DueTime.Equal(at(today, 8, 0)))
	assert.Equal(t, "08:00", items[0].TimeStr)
	assert.Equal(t, DueStatusUpcoming, items[0].Status)
	assert.Equal(t, 10, items[0].MinutesUntil)
}

func TestTodaysDue_ScenarioB_OverdueWithoutTaken(t *testing.T) {
	r := NewResolver(nil)

	items := r.TodaysDue([]Medication{twiceDaily()}, at(today, 8, 20))

	require.Len(t, items, 1)
	assert.Equal(t, DueStatusOverdue, items[0].Status)
	assert.Equal(t, -20, items[0].MinutesUntil)
}

func TestTodaysDue_ScenarioC_TakenSatisfiesEarlierSlotOnly(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	taken := at(today, 8, 5)
	m.LastTaken = &taken

	items := r.TodaysDue([]Medication{m}, at(today, 8, 20))

	require.Len(t, items, 1)
	assert.Equal(t, "20:00", items[0].TimeStr)
	assert.Equal(t, DueStatusUpcoming, items[0].Status)
	assert.Equal(t, 700, items[0].MinutesUntil)
}

func TestTodaysDue_ScenarioD_DismissedLastSlotLeavesNothing(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	taken := at(today, 8, 5)
	m.LastTaken = &taken
	AddDismissal(&m, today, "20:00", at(today, 19, 0))

	items := r.TodaysDue([]Medication{m}, at(today, 20, 30))

	assert.Empty(t, items)
}

func TestNextOccurrence_ScenarioE_FutureStartUsesFirstListedTime(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	m.Times = []string{"20:00", "08:00"}
	m.StartDate = today.AddDays(1)

	for _, now := range []time.Time{at(today, 0, 1), at(today, 12, 0), at(today, 23, 59)} {
		o, ok := r.NextOccurrence(m, now)
		require.True(t, ok)
		assert.True(t, o.At.Equal(at(today.AddDays(1), 20, 0)), "now=%s got=%s", now, o.At)
	}
}

func TestNextOccurrence_EarliestLaterToday(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	m.Times = []string{"20:00", "08:00", "13:00"}

	o, ok := r.NextOccurrence(m, at(today, 9, 0))

	require.True(t, ok)
	assert.Equal(t, "13:00", o.Time)
	assert.Equal(t, today, o.Day)
}

func TestNextOccurrence_StrictlyAfterReference(t *testing.T) {
	r := NewResolver(nil)

	o, ok := r.NextOccurrence(twiceDaily(), at(today, 8, 0))

	require.True(t, ok)
	assert.Equal(t, "20:00", o.Time)
}

func TestNextOccurrence_WrapsToTomorrowFirstListed(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	m.Times = []string{"20:00", "08:00"}

	o, ok := r.NextOccurrence(m, at(today, 21, 0))

	require.True(t, ok)
	assert.Equal(t, today.AddDays(1), o.Day)
	assert.Equal(t, "20:00", o.Time)
}

func TestNextOccurrence_NoneAfterEndDate(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	end := today
	m.EndDate = &end

	_, ok := r.NextOccurrence(m, at(today, 21, 0))
	assert.False(t, ok)

	o, ok := r.NextOccurrence(m, at(today, 9, 0))
	require.True(t, ok)
	assert.Equal(t, "20:00", o.Time)
}

func TestNextOccurrence_InactiveOrNoValidTimes(t *testing.T) {
	r := NewResolver(nil)

	inactive := twiceDaily()
	inactive.IsActive = false
	_, ok := r.NextOccurrence(inactive, at(today, 9, 0))
	assert.False(t, ok)

	empty := twiceDaily()
	empty.Times = nil
	_, ok = r.NextOccurrence(empty, at(today, 9, 0))
	assert.False(t, ok)

	broken := twiceDaily()
	broken.Times = []string{"25:00", "nope"}
	_, ok = r.NextOccurrence(broken, at(today, 9, 0))
	assert.False(t, ok)
}

func TestNextOccurrence_SkipsMalformedEntries(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	m.Times = []string{"bad", "09:30"}
	m.StartDate = today.AddDays(2)

	o, ok := r.NextOccurrence(m, at(today, 9, 0))

	require.True(t, ok)
	assert.Equal(t, "09:30", o.Time)
	assert.Equal(t, today.AddDays(2), o.Day)
}

func TestNextOccurrence_NeverBeforeReference(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	m.Times = []string{"06:15", "12:00", "23:45"}
	m.StartDate = today.AddDays(-3)

	for minute := 0; minute < 24*60; minute += 7 {
		now := at(today, 0, 0).Add(time.Duration(minute) * time.Minute)
		o, ok := r.NextOccurrence(m, now)
		require.True(t, ok)
		assert.False(t, o.At.Before(now), "now=%s got=%s", now, o.At)
		assert.Contains(t, m.Times, o.Time)
		assert.True(t, o.Day.Equal(today) || o.Day.Equal(today.AddDays(1)))
	}
}

func TestAddDismissal_Idempotent(t *testing.T) {
	m := twiceDaily()

	assert.True(t, AddDismissal(&m, today, "20:00", at(today, 9, 0)))
	once := m.Clone()
	assert.False(t, AddDismissal(&m, today, "20:00", at(today, 10, 0)))

	assert.Equal(t, once.DismissedReminders, m.DismissedReminders)
	assert.True(t, IsDismissed(m, today, "20:00"))
	assert.False(t, IsDismissed(m, today, "08:00"))
	assert.False(t, IsDismissed(m, today.AddDays(1), "20:00"))
}

func TestIsSatisfied_SameDayMonotonic(t *testing.T) {
	m := twiceDaily()
	o := Occurrence{MedicationID: m.ID, Day: today, Time: "08:00", At: at(today, 8, 0)}

	before := at(today, 7, 59)
	m.LastTaken = &before
	assert.False(t, IsSatisfied(m, o))

	for _, lt := range []time.Time{at(today, 8, 0), at(today, 8, 1), at(today, 23, 59)} {
		lt := lt
		m.LastTaken = &lt
		assert.True(t, IsSatisfied(m, o), "lastTaken=%s", lt)
	}

	tomorrow := at(today.AddDays(1), 8, 0)
	m.LastTaken = &tomorrow
	assert.False(t, IsSatisfied(m, o))
}

func TestTodaysDue_OrderingAndOmission(t *testing.T) {
	r := NewResolver(nil)

	late := twiceDaily()
	late.ID = "late"
	late.Times = []string{"18:00"}

	early := twiceDaily()
	early.ID = "early"
	early.Times = []string{"09:00"}

	notStarted := twiceDaily()
	notStarted.ID = "future"
	notStarted.StartDate = today.AddDays(1)

	ended := twiceDaily()
	ended.ID = "ended"
	end := today.AddDays(-1)
	ended.StartDate = today.AddDays(-5)
	ended.EndDate = &end

	items := r.TodaysDue([]Medication{late, early, notStarted, ended}, at(today, 7, 0))

	require.Len(t, items, 2)
	assert.Equal(t, "early", items[0].Medication.ID)
	assert.Equal(t, "late", items[1].Medication.ID)
}

func TestDueNow_Window(t *testing.T) {
	r := NewResolver(nil)
	meds := []Medication{twiceDaily()}

	cases := []struct {
		now  time.Time
		want bool
	}{
		{at(today, 7, 44), false},
		{at(today, 7, 45), true},
		{at(today, 8, 20), true},
		{at(today, 8, 30), true},
		{at(today, 8, 31), false},
	}
	for _, tc := range cases {
		got := r.DueNow(meds, tc.now)
		assert.Equal(t, tc.want, len(got) == 1, "now=%s", tc.now.Format("15:04"))
	}
}

func TestDueSoon_WindowAndExclusions(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	m.Times = []string{"08:00", "08:10", "08:30"}
	AddDismissal(&m, today, "08:10", at(today, 7, 0))

	items := r.DueSoon([]Medication{m}, at(today, 7, 55), 15*time.Minute)

	require.Len(t, items, 1)
	assert.Equal(t, "08:00", items[0].TimeStr)
	assert.Equal(t, 5, items[0].MinutesUntil)

	// ventana (now, now+lookahead]: el borde superior entra, now no
	items = r.DueSoon([]Medication{m}, at(today, 8, 0), 30*time.Minute)
	require.Len(t, items, 1)
	assert.Equal(t, "08:30", items[0].TimeStr)
}

func TestDueSoon_CrossesMidnight(t *testing.T) {
	r := NewResolver(nil)
	m := twiceDaily()
	m.Times = []string{"00:05"}

	items := r.DueSoon([]Medication{m}, at(today, 23, 55), 15*time.Minute)

	require.Len(t, items, 1)
	assert.Equal(t, today.AddDays(1), items[0].Occurrence.Day)
	assert.Equal(t, 10, items[0].MinutesUntil)
}

func TestTodayDueCount(t *testing.T) {
	r := NewResolver(nil)

	pending := twiceDaily()
	done := twiceDaily()
	done.ID = "med-2"
	done.Times = []string{"08:00"}
	taken := at(today, 9, 0)
	done.LastTaken = &taken

	assert.Equal(t, 1, r.TodayDueCount([]Medication{pending, done}, at(today, 10, 0)))
}

func TestAdherence(t *testing.T) {
	r := NewResolver(nil)
	now := at(today, 12, 0)

	t.Run("no expected doses", func(t *testing.T) {
		assert.Equal(t, 0, r.Adherence(nil, now, 7))

		future := twiceDaily()
		future.StartDate = today.AddDays(3)
		assert.Equal(t, 0, r.Adherence([]Medication{future}, now, 7))
	})

	t.Run("taken today credits full day", func(t *testing.T) {
		m := twiceDaily()
		taken := at(today, 8, 5)
		m.LastTaken = &taken
		assert.Equal(t, 100, r.Adherence([]Medication{m}, now, 7))
	})

	t.Run("window clipped by start date", func(t *testing.T) {
		m := twiceDaily()
		m.StartDate = today.AddDays(-6)
		taken := at(today, 8, 5)
		m.LastTaken = &taken
		// 2 de 14
		assert.Equal(t, 14, r.Adherence([]Medication{m}, now, 7))
	})

	t.Run("default window", func(t *testing.T) {
		m := twiceDaily()
		m.StartDate = today.AddDays(-30)
		taken := at(today.AddDays(-1), 8, 5)
		m.LastTaken = &taken
		assert.Equal(t, r.Adherence([]Medication{m}, now, 7), r.Adherence([]Medication{m}, now, 0))
	})

	t.Run("bounded", func(t *testing.T) {
		meds := []Medication{twiceDaily(), twiceDaily()}
		taken := at(today, 23, 0)
		meds[0].LastTaken = &taken
		got := r.Adherence(meds, now, 7)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	})
}

func TestMinutesBetween_RoundsHalfUp(t *testing.T) {
	base := at(today, 8, 0)

	assert.Equal(t, 1, minutesBetween(base, base.Add(30*time.Second)))
	assert.Equal(t, 0, minutesBetween(base, base.Add(29*time.Second)))
	assert.Equal(t, 0, minutesBetween(base, base.Add(-30*time.Second)))
	assert.Equal(t, -1, minutesBetween(base, base.Add(-31*time.Second)))
}
