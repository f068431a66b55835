package exercises

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Exercise, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Exercise, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Exercise{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}
