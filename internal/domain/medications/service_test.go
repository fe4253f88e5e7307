package medications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// -------------------------
// Fakes
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Medication
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Medication{}}
}

func (r *testRepo) Create(ctx context.Context, m Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[m.ID] = m.Clone()
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, userID, id string) (Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.UserID != userID {
		return Medication{}, ErrMedicationNotFound
	}
	return m.Clone(), nil
}

func (r *testRepo) ListByUser(ctx context.Context, userID string) ([]Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Medication, 0)
	for _, m := range r.byID {
		if m.UserID == userID {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *testRepo) Apply(ctx context.Context, userID, id string, fn func(*Medication) error) (Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.UserID != userID {
		return Medication{}, ErrMedicationNotFound
	}
	next := m.Clone()
	if err := fn(&next); err != nil {
		return Medication{}, err
	}
	r.byID[id] = next.Clone()
	return next, nil
}

func (r *testRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.UserID != userID {
		return ErrMedicationNotFound
	}
	delete(r.byID, id)
	return nil
}

type testUsers map[string]bool

func (u testUsers) Exists(ctx context.Context, userID string) (bool, error) {
	return u[userID], nil
}

type testCatalog map[string]string

func (c testCatalog) NameOf(ctx context.Context, id string) (string, error) {
	name, ok := c[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCatalogEntryMissing, id)
	}
	return name, nil
}

func (c testCatalog) EnsureByName(ctx context.Context, name string) (string, string, error) {
	for id, n := range c {
		if strings.EqualFold(n, name) {
			return id, n, nil
		}
	}
	id := "rx-" + strings.ToLower(name)
	c[id] = name
	return id, name, nil
}

var errCatalogDown = errors.New("catalog: connection refused")

// downCatalog simula un catálogo caído.
type downCatalog struct{}

func (downCatalog) NameOf(ctx context.Context, id string) (string, error) {
	return "", errCatalogDown
}

func (downCatalog) EnsureByName(ctx context.Context, name string) (string, string, error) {
	return "", "", errCatalogDown
}

func newTestService(now time.Time) (*Service, *testRepo, testCatalog) {
	repo := newTestRepo()
	cat := testCatalog{"ibu": "Ibuprofen", "para": "Paracetamol"}
	svc := NewService(repo, testUsers{"user-1": true}, cat, Options{Location: testLoc})
	svc.now = func() time.Time { return now }
	return svc, repo, cat
}

// -------------------------
// Tests
// -------------------------

func TestService_Add_NormalizesTimesAndSetsNextDose(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))

	got, err := svc.Add(context.Background(), "user-1", AddInput{
		MedicineID: "ibu",
		Dosage:     " 200mg ",
		Times:      []string{"8:00", " 20:00", ""},
	})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if got.MedicineName != "Ibuprofen" {
		t.Fatalf("expected resolved name, got %q", got.MedicineName)
	}
	if len(got.Times) != 2 || got.Times[0] != "08:00" || got.Times[1] != "20:00" {
		t.Fatalf("expected normalized times, got %#v", got.Times)
	}
	if got.Frequency != FrequencyDaily {
		t.Fatalf("expected default frequency daily, got %s", got.Frequency)
	}
	if got.Dosage != "200mg" {
		t.Fatalf("expected trimmed dosage, got %q", got.Dosage)
	}
	if !got.StartDate.Equal(today) {
		t.Fatalf("expected start today, got %s", got.StartDate)
	}
	if got.NextDose == nil || !got.NextDose.Equal(at(today, 8, 0)) {
		t.Fatalf("expected next dose 08:00 today, got %v", got.NextDose)
	}
}

func TestService_Add_Validation(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))
	ctx := context.Background()

	if _, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu", Times: []string{"25:00"}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad time, got %v", err)
	}
	if _, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for no times, got %v", err)
	}
	if _, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "nope", Times: []string{"08:00"}}); !errors.Is(err, ErrCatalogEntryMissing) {
		t.Fatalf("expected ErrCatalogEntryMissing, got %v", err)
	}
	if _, err := svc.Add(ctx, "ghost", AddInput{MedicineID: "ibu", Times: []string{"08:00"}}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	end := today.AddDays(-1)
	if _, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu", Times: []string{"08:00"}, EndDate: &end}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for end before start, got %v", err)
	}
}

func TestService_RecordTaken_MovesNextDose(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))
	ctx := context.Background()

	m, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu", Times: []string{"08:00", "20:00"}})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	svc.now = func() time.Time { return at(today, 8, 5) }
	got, err := svc.RecordTaken(ctx, "user-1", m.ID)
	if err != nil {
		t.Fatalf("RecordTaken error: %v", err)
	}
	if got.LastTaken == nil || !got.LastTaken.Equal(at(today, 8, 5)) {
		t.Fatalf("expected lastTaken 08:05, got %v", got.LastTaken)
	}
	if got.NextDose == nil || !got.NextDose.Equal(at(today, 20, 0)) {
		t.Fatalf("expected next dose 20:00, got %v", got.NextDose)
	}

	svc.now = func() time.Time { return at(today, 8, 20) }
	due, err := svc.Today(ctx, "user-1")
	if err != nil {
		t.Fatalf("Today error: %v", err)
	}
	if len(due) != 1 || due[0].TimeStr != "20:00" {
		t.Fatalf("expected 20:00 due, got %#v", due)
	}
}

func TestService_RecordTaken_UnknownMedication(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))

	_, err := svc.RecordTaken(context.Background(), "user-1", "missing")
	if !errors.Is(err, ErrMedicationNotFound) {
		t.Fatalf("expected ErrMedicationNotFound, got %v", err)
	}
}

func TestService_RecordDismissal_IdempotentAndNormalized(t *testing.T) {
	svc, repo, _ := newTestService(at(today, 7, 50))
	ctx := context.Background()

	m, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu", Times: []string{"08:00", "20:00"}})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.RecordDismissal(ctx, "user-1", m.ID, today, "8:00"); err != nil {
			t.Fatalf("RecordDismissal #%d error: %v", i+1, err)
		}
	}

	stored, _ := repo.GetByID(ctx, "user-1", m.ID)
	if len(stored.DismissedReminders) != 1 {
		t.Fatalf("expected one dismissal, got %d", len(stored.DismissedReminders))
	}
	if stored.DismissedReminders[0].Time != "08:00" {
		t.Fatalf("expected normalized time 08:00, got %q", stored.DismissedReminders[0].Time)
	}

	due, err := svc.Today(ctx, "user-1")
	if err != nil {
		t.Fatalf("Today error: %v", err)
	}
	if len(due) != 1 || due[0].TimeStr != "20:00" {
		t.Fatalf("expected dismissed 08:00 skipped, got %#v", due)
	}

	if err := svc.RecordDismissal(ctx, "user-1", m.ID, today, "nope"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad time, got %v", err)
	}
}

func TestService_Today_FallbackNameWhenCatalogEntryDeleted(t *testing.T) {
	svc, _, cat := newTestService(at(today, 7, 50))
	ctx := context.Background()

	if _, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "para", Times: []string{"09:00"}}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	delete(cat, "para")

	due, err := svc.Today(ctx, "user-1")
	if err != nil {
		t.Fatalf("Today error: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected medication still due, got %d", len(due))
	}
	if due[0].MedicineName != "Paracetamol" {
		t.Fatalf("expected stored fallback name, got %q", due[0].MedicineName)
	}
}

func TestService_DisplayName_UnknownWhenNothingStored(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))

	got := svc.displayName(context.Background(), Medication{ID: "x", MedicineID: "gone"})
	if got != fallbackMedicineName {
		t.Fatalf("expected %q, got %q", fallbackMedicineName, got)
	}
}

func TestService_Update_ClearEndAndDeactivate(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))
	ctx := context.Background()

	end := today.AddDays(5)
	m, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu", Times: []string{"08:00"}, EndDate: &end})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	got, err := svc.Update(ctx, "user-1", m.ID, UpdateInput{ClearEnd: true, Times: []string{"9:15"}})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.EndDate != nil {
		t.Fatalf("expected end date cleared")
	}
	if got.NextDose == nil || !got.NextDose.Equal(at(today, 9, 15)) {
		t.Fatalf("expected next dose recomputed to 09:15, got %v", got.NextDose)
	}

	inactive := false
	got, err = svc.Update(ctx, "user-1", m.ID, UpdateInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.NextDose != nil {
		t.Fatalf("expected no next dose when inactive")
	}

	stats, err := svc.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.TotalMedications != 0 || stats.TodayDueCount != 0 || stats.Adherence != 0 {
		t.Fatalf("expected empty stats for inactive medication, got %#v", stats)
	}
}

func TestService_Stats(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))
	ctx := context.Background()

	a, _ := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu", Times: []string{"08:00", "20:00"}})
	if _, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "para", Times: []string{"21:00"}}); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	svc.now = func() time.Time { return at(today, 8, 5) }
	if _, err := svc.RecordTaken(ctx, "user-1", a.ID); err != nil {
		t.Fatalf("RecordTaken error: %v", err)
	}

	stats, err := svc.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.TotalMedications != 2 {
		t.Fatalf("expected 2 medications, got %d", stats.TotalMedications)
	}
	if stats.TodayDueCount != 2 {
		t.Fatalf("expected 2 due today, got %d", stats.TodayDueCount)
	}
	// 2 de 3 tomas esperadas hoy
	if stats.Adherence != 67 {
		t.Fatalf("expected adherence 67, got %d", stats.Adherence)
	}
}

func TestService_ScanDueSoon_CapsMedications(t *testing.T) {
	svc, _, _ := newTestService(at(today, 7, 50))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Add(ctx, "user-1", AddInput{MedicineID: "ibu", Times: []string{"08:00"}}); err != nil {
			t.Fatalf("Add error: %v", err)
		}
	}

	due, skipped, err := svc.ScanDueSoon(ctx, "user-1", at(today, 7, 50), 15*time.Minute, 2)
	if err != nil {
		t.Fatalf("ScanDueSoon error: %v", err)
	}
	if len(due) != 2 || skipped != 1 {
		t.Fatalf("expected 2 due and 1 skipped, got %d and %d", len(due), skipped)
	}

	if _, _, err := svc.ScanDueSoon(ctx, "ghost", at(today, 7, 50), 15*time.Minute, 0); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_Add_CatalogFailureIsNotMissingEntry(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, testUsers{"user-1": true}, downCatalog{}, Options{Location: testLoc})
	svc.now = func() time.Time { return at(today, 7, 50) }

	_, err := svc.Add(context.Background(), "user-1", AddInput{MedicineID: "ibu", Times: []string{"08:00"}})
	if !errors.Is(err, errCatalogDown) {
		t.Fatalf("expected catalog error to propagate, got %v", err)
	}
	if errors.Is(err, ErrCatalogEntryMissing) || errors.Is(err, ErrInvalidInput) {
		t.Fatalf("catalog outage must not read as a client error, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestService_Import_CreatesCatalogEntriesAndMedications(t *testing.T) {
	svc, repo, cat := newTestService(at(today, 7, 50))
	ctx := context.Background()

	got, err := svc.Import(ctx, "user-1", ImportInput{
		Notes:   "after meals",
		RawText: "Rx: ibuprofen 200mg bid",
		Items: []PrescriptionItem{
			{Name: "ibuprofen", Dosage: "200mg", Frequency: "Twice Daily", Timing: "08:00, 20:00"},
			{Name: "  "},
			{Name: "Cetirizine", Frequency: "when itchy", Timing: "before bed", Duration: "5 days"},
		},
	})
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 imported, got %d", len(got))
	}

	ibu := got[0]
	if ibu.MedicineID != "ibu" || ibu.MedicineName != "Ibuprofen" {
		t.Fatalf("expected existing catalog entry reused, got %s %q", ibu.MedicineID, ibu.MedicineName)
	}
	if ibu.Frequency != FrequencyTwiceDaily {
		t.Fatalf("expected twice-daily, got %s", ibu.Frequency)
	}
	if len(ibu.Times) != 2 || ibu.Times[0] != "08:00" || ibu.Times[1] != "20:00" {
		t.Fatalf("expected timing parsed into times, got %#v", ibu.Times)
	}
	if ibu.NextDose == nil || !ibu.NextDose.Equal(at(today, 8, 0)) {
		t.Fatalf("expected next dose 08:00, got %v", ibu.NextDose)
	}
	if ibu.Source != SourcePrescription || ibu.RawText != "Rx: ibuprofen 200mg bid" || ibu.Notes != "after meals" {
		t.Fatalf("unexpected provenance %q %q %q", ibu.Source, ibu.RawText, ibu.Notes)
	}

	cet := got[1]
	if _, ok := cat[cet.MedicineID]; !ok {
		t.Fatalf("expected new catalog entry for Cetirizine")
	}
	if cet.Frequency != FrequencyAsNeeded || len(cet.Times) != 0 || cet.NextDose != nil {
		t.Fatalf("expected unscheduled as-needed medication, got %#v", cet.Medication)
	}
	want := "after meals\nFrequency: when itchy\nTiming: before bed\nDuration: 5 days"
	if cet.Notes != want {
		t.Fatalf("expected notes %q, got %q", want, cet.Notes)
	}

	if len(repo.byID) != 2 {
		t.Fatalf("expected 2 stored medications, got %d", len(repo.byID))
	}

	// sin horarios no cuenta para hoy
	svc.now = func() time.Time { return at(today, 7, 55) }
	due, err := svc.Today(ctx, "user-1")
	if err != nil {
		t.Fatalf("Today error: %v", err)
	}
	if len(due) != 1 || due[0].MedicineName != "Ibuprofen" {
		t.Fatalf("expected only ibuprofen due, got %#v", due)
	}
}

func TestService_Import_Validation(t *testing.T) {
	svc, repo, _ := newTestService(at(today, 7, 50))
	ctx := context.Background()

	if _, err := svc.Import(ctx, "user-1", ImportInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput with no items, got %v", err)
	}
	if _, err := svc.Import(ctx, "user-1", ImportInput{Items: []PrescriptionItem{{Name: " "}}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput with only blank names, got %v", err)
	}
	if _, err := svc.Import(ctx, "ghost", ImportInput{Items: []PrescriptionItem{{Name: "Ibuprofen"}}}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(repo.byID))
	}
}
