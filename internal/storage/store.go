package storage

import (
	"context"

	"neuralnet/internal/model"
)

// Store defines transaction-like persistence operations for networks and
// their training runs.
type Store interface {
	Init(ctx context.Context) error
	SaveNetwork(ctx context.Context, snapshot model.NetworkSnapshot) error
	GetNetwork(ctx context.Context, id string) (model.NetworkSnapshot, bool, error)
	SaveTrainingHistory(ctx context.Context, runID string, history []float64) error
	GetTrainingHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns every run ordered by creation time, oldest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
}
