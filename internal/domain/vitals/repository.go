package vitals

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, rd Reading) error
	GetByID(ctx context.Context, id string) (Reading, error)
	ListByPatient(ctx context.Context, patientID string, filter ListFilter) ([]Reading, error)
}

type ListFilter struct {
	Types []VitalType
	From  *time.Time
	To    *time.Time
	Limit int
}
