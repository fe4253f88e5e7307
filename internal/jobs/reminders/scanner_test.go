package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/domain/users"
	"medication-tracker/internal/platform/logger"
)

type fakeUsers struct {
	list []users.User
	err  error
}

func (f fakeUsers) ListNotifiable(ctx context.Context) ([]users.User, error) {
	return f.list, f.err
}

type dueFunc func(ctx context.Context, userID string) ([]medications.Due, int, error)

type fakeDue struct {
	byUser map[string]dueFunc
}

func (f fakeDue) ScanDueSoon(ctx context.Context, userID string, now time.Time, lookahead time.Duration, maxMeds int) ([]medications.Due, int, error) {
	fn, ok := f.byUser[userID]
	if !ok {
		return nil, 0, medications.ErrUserNotFound
	}
	return fn(ctx, userID)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string]int
}

func (n *recordingNotifier) Notify(ctx context.Context, u users.User, due []medications.Due) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[string]int{}
	}
	n.sent[u.ID] += len(due)
	return nil
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]any
}

// recordingLogger guarda cada entrada para inspeccionarla en los tests.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) With(map[string]any) logger.Logger { return l }

func (l *recordingLogger) record(level, msg string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, f map[string]any) { l.record("debug", msg, f) }
func (l *recordingLogger) Info(msg string, f map[string]any)  { l.record("info", msg, f) }
func (l *recordingLogger) Warn(msg string, f map[string]any)  { l.record("warn", msg, f) }
func (l *recordingLogger) Error(msg string, f map[string]any) { l.record("error", msg, f) }

func (l *recordingLogger) find(msg string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

func dueItems(n int) []medications.Due {
	out := make([]medications.Due, n)
	for i := range out {
		out[i].TimeStr = "08:00"
	}
	return out
}

func TestScan_IsolatesUserFailures(t *testing.T) {
	us := fakeUsers{list: []users.User{{ID: "ok"}, {ID: "broken"}, {ID: "panics"}, {ID: "ghost"}, {ID: "ok-2"}}}
	due := fakeDue{byUser: map[string]dueFunc{
		"ok": func(context.Context, string) ([]medications.Due, int, error) {
			return dueItems(2), 0, nil
		},
		"broken": func(context.Context, string) ([]medications.Due, int, error) {
			return nil, 0, errors.New("boom")
		},
		"panics": func(context.Context, string) ([]medications.Due, int, error) {
			panic("bad record")
		},
		"ok-2": func(context.Context, string) ([]medications.Due, int, error) {
			return dueItems(1), 0, nil
		},
	}}
	n := &recordingNotifier{}
	s := New(us, due, n, Options{})

	rep := s.Scan(context.Background(), time.Now())

	assert.False(t, rep.Skipped)
	assert.Equal(t, 5, rep.Users)
	assert.Equal(t, 3, rep.Failed)
	assert.Equal(t, 3, rep.DueSoon)
	assert.Equal(t, map[string]int{"ok": 2, "ok-2": 1}, n.sent)
	assert.Equal(t, StateIdle, s.State())
}

func TestScan_PerUserTimeout(t *testing.T) {
	us := fakeUsers{list: []users.User{{ID: "slow"}, {ID: "ok"}}}
	due := fakeDue{byUser: map[string]dueFunc{
		"slow": func(ctx context.Context, _ string) ([]medications.Due, int, error) {
			<-ctx.Done()
			return nil, 0, ctx.Err()
		},
		"ok": func(context.Context, string) ([]medications.Due, int, error) {
			return dueItems(1), 0, nil
		},
	}}
	s := New(us, due, &recordingNotifier{}, Options{UserTimeout: 10 * time.Millisecond})

	rep := s.Scan(context.Background(), time.Now())

	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.DueSoon)
}

func TestScan_SkipsWhenAlreadyScanning(t *testing.T) {
	s := New(fakeUsers{}, fakeDue{}, &recordingNotifier{}, Options{})
	s.state.Store(int32(StateScanning))

	rep := s.Scan(context.Background(), time.Now())

	assert.True(t, rep.Skipped)
	assert.Equal(t, StateScanning, s.State())
}

func TestScan_CountsTruncatedUsers(t *testing.T) {
	us := fakeUsers{list: []users.User{{ID: "big"}}}
	due := fakeDue{byUser: map[string]dueFunc{
		"big": func(context.Context, string) ([]medications.Due, int, error) {
			return dueItems(1), 40, nil
		},
	}}
	s := New(us, due, &recordingNotifier{}, Options{MaxMedications: 10})

	rep := s.Scan(context.Background(), time.Now())

	assert.Equal(t, 1, rep.Truncated)
	assert.Equal(t, 0, rep.Failed)
}

func TestScan_ListFailureEndsIdle(t *testing.T) {
	s := New(fakeUsers{err: errors.New("db down")}, fakeDue{}, &recordingNotifier{}, Options{})

	rep := s.Scan(context.Background(), time.Now())

	assert.Equal(t, 0, rep.Users)
	assert.Equal(t, StateIdle, s.State())
}

func TestStart_RejectsInvalidSchedule(t *testing.T) {
	s := New(fakeUsers{}, fakeDue{}, nil, Options{Schedule: "not a cron"})

	require.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := New(fakeUsers{}, fakeDue{}, nil, Options{})

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestScan_LogsUserFailuresAtError(t *testing.T) {
	us := fakeUsers{list: []users.User{{ID: "ok"}, {ID: "broken"}}}
	due := fakeDue{byUser: map[string]dueFunc{
		"ok": func(context.Context, string) ([]medications.Due, int, error) {
			return dueItems(1), 0, nil
		},
		"broken": func(context.Context, string) ([]medications.Due, int, error) {
			return nil, 0, errors.New("boom")
		},
	}}
	log := &recordingLogger{}
	s := New(us, due, &recordingNotifier{}, Options{Logger: log})

	rep := s.Scan(context.Background(), time.Now())
	require.Equal(t, 1, rep.Failed)

	failures := log.find("user scan failed")
	require.Len(t, failures, 1)
	assert.Equal(t, "error", failures[0].level)
	assert.Equal(t, "broken", failures[0].fields["user_id"])
}
