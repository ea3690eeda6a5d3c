package animals

import "context"

// ListFilter acota List. Species es obligatorio (las rutas son por especie).
type ListFilter struct {
	Species Species
	Gender  Gender // opcional
	Status  Status // opcional; vacío = todos
	Sort    string // "asc" | "desc" por birth_date; vacío = created_at asc
}

type Repository interface {
	Create(ctx context.Context, a Animal) error
	Update(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	List(ctx context.Context, filter ListFilter) ([]Animal, error)

	// Delete borra físicamente. Devuelve ErrConflict (del adapter) si el
	// animal está referenciado por ventas.
	Delete(ctx context.Context, id string) error

	// ListChildren devuelve crías activas (mother_id o father_id = id).
	ListChildren(ctx context.Context, id string) ([]ChildRef, error)
}
