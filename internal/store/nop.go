package store

import (
	"context"

	"github.com/anmolkh/internradar/internal/model"
)

// NopStore admits everything and persists nothing. Used by dry-run polling.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Upsert(_ context.Context, _ model.Job) (model.Outcome, error) {
	return model.OutcomeInserted, nil
}

func (s *NopStore) Recent(_ context.Context, _ int) ([]model.Job, error) {
	return nil, nil
}
