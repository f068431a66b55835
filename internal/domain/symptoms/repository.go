package symptoms

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	ListByPatient(ctx context.Context, patientID string, filter ListFilter) ([]Entry, error)
	Void(ctx context.Context, id string, voidedAt time.Time) error
}

type ListFilter struct {
	Severities    []Severity
	From          *time.Time
	To            *time.Time
	Query         string
	IncludeVoided bool
	Limit         int
}
