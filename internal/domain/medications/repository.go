package medications

import "context"

// Repository es el colaborador de persistencia. Todas las mutaciones de una
// medicación pasan por Apply, que es atómico sobre la colección del usuario.
type Repository interface {
	Create(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, userID, id string) (Medication, error)
	ListByUser(ctx context.Context, userID string) ([]Medication, error)
	Apply(ctx context.Context, userID, id string, fn func(*Medication) error) (Medication, error)
	Delete(ctx context.Context, userID, id string) error
}

// UserLookup evita importar el paquete users.
type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// MedicineLookup es el catálogo visto desde el tracker. Si la entrada no
// existe NameOf devuelve un error que envuelve ErrCatalogEntryMissing.
type MedicineLookup interface {
	NameOf(ctx context.Context, medicineID string) (string, error)
	// EnsureByName busca por nombre exacto sin distinguir mayúsculas y, si no
	// hay, da de alta la entrada. Devuelve el id y el nombre guardado.
	EnsureByName(ctx context.Context, name string) (id, canonical string, err error)
}
