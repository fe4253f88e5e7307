package catalog

import "context"

type Repository interface {
	Create(ctx context.Context, m Medicine) error
	GetByID(ctx context.Context, id string) (Medicine, error)
	// FindByName compara el nombre exacto sin distinguir mayúsculas.
	FindByName(ctx context.Context, name string) (Medicine, error)
	// List filtra por nombre o síntoma (case-insensitive); query vacía = todo.
	List(ctx context.Context, query string) ([]Medicine, error)
	Update(ctx context.Context, m Medicine) error
	Delete(ctx context.Context, id string) error
}
