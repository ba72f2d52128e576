package users

import "context"

type Repository interface {
	UpsertUser(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)

	// UpsertPlace reemplaza por clave única (owner, label).
	UpsertPlace(ctx context.Context, p Place) error
	GetPlace(ctx context.Context, owner, label string) (Place, error)
	ListPlaces(ctx context.Context, owner string) ([]Place, error)
}
