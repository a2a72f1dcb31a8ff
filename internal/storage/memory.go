package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"neuralnet/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	networks    map[string]model.NetworkSnapshot
	history     map[string][]float64
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.networks = make(map[string]model.NetworkSnapshot)
	s.history = make(map[string][]float64)
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveNetwork(_ context.Context, snapshot model.NetworkSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.networks[snapshot.ID] = cloneSnapshot(snapshot)
	return nil
}

func (s *MemoryStore) GetNetwork(_ context.Context, id string) (model.NetworkSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.networks[id]
	if !ok {
		return model.NetworkSnapshot{}, false, nil
	}
	return cloneSnapshot(snapshot), true, nil
}

func (s *MemoryStore) SaveTrainingHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := append([]float64(nil), history...)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetTrainingHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := append([]float64(nil), history...)
	return copied, true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	slices.SortFunc(runs, func(a, b model.RunRecord) int {
		if c := strings.Compare(a.CreatedAtUTC, b.CreatedAtUTC); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return runs, nil
}

func cloneSnapshot(snapshot model.NetworkSnapshot) model.NetworkSnapshot {
	copied := snapshot
	copied.Options.LayerSizes = append([]int(nil), snapshot.Options.LayerSizes...)
	copied.Layers = make([]model.LayerRecord, len(snapshot.Layers))
	for i, layer := range snapshot.Layers {
		copied.Layers[i] = layer
		copied.Layers[i].Neurons = append([]model.NeuronRecord(nil), layer.Neurons...)
	}
	copied.Connections = append([]model.ConnectionRecord(nil), snapshot.Connections...)
	return copied
}
