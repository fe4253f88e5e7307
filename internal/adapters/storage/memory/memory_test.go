package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"medication-tracker/internal/domain/catalog"
	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/domain/users"
)

var day = medications.Date{Year: 2025, Month: time.March, Day: 10}

func seedMedication(t *testing.T, repo medications.Repository) medications.Medication {
	t.Helper()
	m := medications.Medication{
		ID:        "med-1",
		UserID:    "user-1",
		Times:     []string{"08:00"},
		StartDate: day,
		IsActive:  true,
	}
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return m
}

func TestMedicationRepo_ApplyIsAtomic(t *testing.T) {
	repo := NewMedicationRepo()
	m := seedMedication(t, repo)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Apply(ctx, m.UserID, m.ID, func(m *medications.Medication) error {
				medications.AddDismissal(m, day, fmt.Sprintf("%02d:%02d", i/60, i%60), time.Now())
				return nil
			})
			if err != nil {
				t.Errorf("Apply error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, m.UserID, m.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if len(got.DismissedReminders) != n {
		t.Fatalf("expected %d dismissals, got %d", n, len(got.DismissedReminders))
	}
}

func TestMedicationRepo_ApplyErrorLeavesStateUntouched(t *testing.T) {
	repo := NewMedicationRepo()
	m := seedMedication(t, repo)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := repo.Apply(ctx, m.UserID, m.ID, func(m *medications.Medication) error {
		m.Times = append(m.Times, "20:00")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	got, _ := repo.GetByID(ctx, m.UserID, m.ID)
	if len(got.Times) != 1 {
		t.Fatalf("expected stored times untouched, got %#v", got.Times)
	}
}

func TestMedicationRepo_SnapshotsAreIsolated(t *testing.T) {
	repo := NewMedicationRepo()
	m := seedMedication(t, repo)
	ctx := context.Background()

	got, _ := repo.GetByID(ctx, m.UserID, m.ID)
	got.Times[0] = "23:00"

	again, _ := repo.GetByID(ctx, m.UserID, m.ID)
	if again.Times[0] != "08:00" {
		t.Fatalf("expected stored record unaffected by caller mutation, got %q", again.Times[0])
	}
}

func TestMedicationRepo_ScopedByUser(t *testing.T) {
	repo := NewMedicationRepo()
	m := seedMedication(t, repo)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "other", m.ID); !errors.Is(err, medications.ErrMedicationNotFound) {
		t.Fatalf("expected ErrMedicationNotFound for other user, got %v", err)
	}
	if err := repo.Delete(ctx, "other", m.ID); !errors.Is(err, medications.ErrMedicationNotFound) {
		t.Fatalf("expected ErrMedicationNotFound deleting as other user, got %v", err)
	}
	list, _ := repo.ListByUser(ctx, "other")
	if len(list) != 0 {
		t.Fatalf("expected empty list for other user")
	}
}

func TestUserRepo_ListWithPushEnabled(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	_ = repo.Create(ctx, users.User{ID: "b", Notifications: users.NotificationPreferences{Push: true}})
	_ = repo.Create(ctx, users.User{ID: "a", Notifications: users.NotificationPreferences{Push: true}})
	_ = repo.Create(ctx, users.User{ID: "c"})

	list, err := repo.ListWithPushEnabled(ctx)
	if err != nil {
		t.Fatalf("ListWithPushEnabled error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected list %#v", list)
	}
}

func TestCatalogRepo_ListFiltersByNameOrSymptom(t *testing.T) {
	repo := NewCatalogRepo()
	ctx := context.Background()

	_ = repo.Create(ctx, catalog.Medicine{ID: "1", Name: "Ibuprofen", Symptoms: []string{"Headache"}})
	_ = repo.Create(ctx, catalog.Medicine{ID: "2", Name: "Loratadine", Symptoms: []string{"allergy"}})

	byName, _ := repo.List(ctx, "IBU")
	if len(byName) != 1 || byName[0].ID != "1" {
		t.Fatalf("unexpected name filter result %#v", byName)
	}
	bySymptom, _ := repo.List(ctx, "allerg")
	if len(bySymptom) != 1 || bySymptom[0].ID != "2" {
		t.Fatalf("unexpected symptom filter result %#v", bySymptom)
	}
	all, _ := repo.List(ctx, "")
	if len(all) != 2 || all[0].Name != "Ibuprofen" {
		t.Fatalf("expected all sorted by name, got %#v", all)
	}
}

func TestCatalogRepo_FindByNameIgnoresCaseAndPrefersOldest(t *testing.T) {
	repo := NewCatalogRepo()
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_ = repo.Create(ctx, catalog.Medicine{ID: "2", Name: "IBUPROFEN", CreatedAt: t0.Add(time.Hour)})
	_ = repo.Create(ctx, catalog.Medicine{ID: "1", Name: "Ibuprofen", CreatedAt: t0})
	_ = repo.Create(ctx, catalog.Medicine{ID: "3", Name: "Ibuprofen Forte", CreatedAt: t0})

	m, err := repo.FindByName(ctx, " ibuprofen ")
	if err != nil {
		t.Fatalf("FindByName error: %v", err)
	}
	if m.ID != "1" {
		t.Fatalf("expected oldest exact match, got %#v", m)
	}
	if _, err := repo.FindByName(ctx, "ibu"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for partial name, got %v", err)
	}
}

func TestUserRepo_HealthProfileIsolated(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	w := 70.0
	u := users.User{ID: "a", Health: users.HealthProfile{WeightKg: &w, Allergies: []string{"penicillin"}}}
	_ = repo.Create(ctx, u)

	*u.Health.WeightKg = 90
	u.Health.Allergies[0] = "changed"

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if *got.Health.WeightKg != 70 || got.Health.Allergies[0] != "penicillin" {
		t.Fatalf("stored profile shares memory with caller: %#v", got.Health)
	}
}
