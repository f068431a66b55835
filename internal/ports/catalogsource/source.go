package catalogsource

import (
	"context"

	"cad-care-tracker/internal/domain/catalog"
)

// Source es una fuente externa de definiciones de medicamentos con la que se
// siembra/actualiza el catálogo local al arrancar.
type Source interface {
	FetchMedicines(ctx context.Context) ([]catalog.Entry, error)
}
