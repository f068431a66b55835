package catalog

import "context"

type Repository interface {
	Create(ctx context.Context, e Entry) error
	Upsert(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
}
