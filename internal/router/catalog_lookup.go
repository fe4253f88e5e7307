package router

import (
	"context"
	"errors"
	"fmt"

	"medication-tracker/internal/domain/catalog"
	"medication-tracker/internal/domain/medications"
)

const importedMedicineDescription = "Imported from prescription"

// catalogLookup adapta catalog.Service a medications.MedicineLookup y
// traduce el not-found del catálogo al error que entiende el tracker.
type catalogLookup struct {
	svc *catalog.Service
}

func (l catalogLookup) NameOf(ctx context.Context, id string) (string, error) {
	name, err := l.svc.NameOf(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", medications.ErrCatalogEntryMissing, id)
	}
	return name, err
}

func (l catalogLookup) EnsureByName(ctx context.Context, name string) (string, string, error) {
	m, _, err := l.svc.FindOrCreate(ctx, name, importedMedicineDescription)
	if err != nil {
		return "", "", err
	}
	return m.ID, m.Name, nil
}
