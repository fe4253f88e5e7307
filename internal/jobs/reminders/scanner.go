package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/domain/users"
	"medication-tracker/internal/platform/logger"
)

const (
	DefaultSchedule    = "*/5 * * * *"
	DefaultLookahead   = 15 * time.Minute
	DefaultUserTimeout = 2 * time.Second
)

var ErrAlreadyStarted = errors.New("scanner already started")

type State int32

const (
	StateIdle State = iota
	StateScanning
)

func (s State) String() string {
	if s == StateScanning {
		return "scanning"
	}
	return "idle"
}

// UserSource lista los usuarios con avisos en segundo plano habilitados.
type UserSource interface {
	ListNotifiable(ctx context.Context) ([]users.User, error)
}

// DueSource lo implementa medications.Service.
type DueSource interface {
	ScanDueSoon(ctx context.Context, userID string, now time.Time, lookahead time.Duration, maxMeds int) ([]medications.Due, int, error)
}

type Options struct {
	Schedule       string
	Lookahead      time.Duration
	UserTimeout    time.Duration
	MaxMedications int
	Location       *time.Location
	Logger         logger.Logger
}

// Report resume un tick.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	// Skipped: ya había un barrido en curso.
	Skipped bool
	Users   int
	Failed  int
	DueSoon int
	// Truncated cuenta usuarios a los que se les aplicó el tope de medicaciones.
	Truncated int
}

type Scanner struct {
	users    UserSource
	due      DueSource
	notifier Notifier
	opts     Options
	log      logger.Logger

	state atomic.Int32
	cron  *cron.Cron
	now   func() time.Time
}

func New(us UserSource, due DueSource, notifier Notifier, opts Options) *Scanner {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultLookahead
	}
	if opts.UserTimeout <= 0 {
		opts.UserTimeout = DefaultUserTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(opts.Logger)
	}
	return &Scanner{
		users:    us,
		due:      due,
		notifier: notifier,
		opts:     opts,
		log:      opts.Logger.With(map[string]any{"component": "reminder_scanner"}),
		now:      time.Now,
	}
}

func (s *Scanner) State() State {
	return State(s.state.Load())
}

// Start agenda el barrido; no bloquea.
func (s *Scanner) Start() error {
	if s.cron != nil {
		return ErrAlreadyStarted
	}

	cl := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.opts.Schedule, func() {
		s.Scan(context.Background(), s.now())
	}); err != nil {
		return fmt.Errorf("invalid scan schedule %q: %w", s.opts.Schedule, err)
	}

	s.cron = c
	c.Start()
	s.log.Info("reminder scanner started", map[string]any{
		"schedule":  s.opts.Schedule,
		"lookahead": s.opts.Lookahead.String(),
	})
	return nil
}

// Stop frena el cron y espera al tick en curso o a que venza ctx.
func (s *Scanner) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scan corre un barrido completo evaluado en now. Un error en un usuario no
// corta el resto.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (rep Report) {
	rep.StartedAt = now
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) {
		rep.Skipped = true
		scanRuns.WithLabelValues("skipped").Inc()
		return rep
	}
	defer s.state.Store(int32(StateIdle))

	timer := time.Now()
	defer func() {
		rep.Duration = time.Since(timer)
		scanDuration.Observe(rep.Duration.Seconds())
	}()

	list, err := s.users.ListNotifiable(ctx)
	if err != nil {
		scanRuns.WithLabelValues("error").Inc()
		s.log.Error("list notifiable users failed", map[string]any{"error": err})
		return rep
	}

	now = now.In(s.opts.Location)
	for _, u := range list {
		if ctx.Err() != nil {
			break
		}
		rep.Users++

		due, truncated, err := s.scanUser(ctx, u, now)
		if err != nil {
			rep.Failed++
			userFailures.Inc()
			s.log.Error("user scan failed", map[string]any{"user_id": u.ID, "error": err})
			continue
		}
		if truncated > 0 {
			rep.Truncated++
		}
		rep.DueSoon += due
	}

	dueSoonFound.Add(float64(rep.DueSoon))
	scanRuns.WithLabelValues("ok").Inc()
	s.log.Info("reminder scan finished", map[string]any{
		"users":    rep.Users,
		"failed":   rep.Failed,
		"due_soon": rep.DueSoon,
	})
	return rep
}

func (s *Scanner) scanUser(ctx context.Context, u users.User, now time.Time) (n int, truncated int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opts.UserTimeout)
	defer cancel()

	due, truncated, err := s.due.ScanDueSoon(ctx, u.ID, now, s.opts.Lookahead, s.opts.MaxMedications)
	if err != nil {
		return 0, 0, err
	}
	if truncated > 0 {
		s.log.Warn("medication cap reached, scan truncated", map[string]any{
			"user_id": u.ID,
			"skipped": truncated,
			"cap":     s.opts.MaxMedications,
		})
	}
	if len(due) == 0 {
		return 0, truncated, nil
	}
	if err := s.notifier.Notify(ctx, u, due); err != nil {
		return 0, truncated, fmt.Errorf("notify: %w", err)
	}
	return len(due), truncated, nil
}

// cronLogger adapta logger.Logger a cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kv(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	f := kv(keysAndValues)
	f["error"] = err
	l.log.Error("cron: "+msg, f)
}

func kv(pairs []interface{}) map[string]any {
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[fmt.Sprint(pairs[i])] = pairs[i+1]
	}
	return out
}
