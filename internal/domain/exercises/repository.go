package exercises

import "context"

type Repository interface {
	List(ctx context.Context) ([]Exercise, error)
	GetByID(ctx context.Context, id string) (Exercise, error)
}
