package catalog

import "time"

// Medicine es una entrada del catálogo compartido (no pertenece a un usuario).
type Medicine struct {
	ID          string
	Name        string
	Description string
	Symptoms    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
