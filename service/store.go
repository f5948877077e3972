package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/config"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
)

// EvaluationStore is an in-memory store for evaluations
// In production, this should be replaced with a database
type EvaluationStore struct {
	evaluations    map[string]*model.Evaluation
	mu             sync.RWMutex
	maxEvaluations int // Maximum evaluations to keep, 0 = unlimited
}

var (
	globalStore *EvaluationStore
	storeOnce   sync.Once
)

// InitEvaluationStore initializes the global evaluation store with configuration
func InitEvaluationStore(cfg *config.StoreConfig) {
	storeOnce.Do(func() {
		maxEvaluations := cfg.MaxEvaluations
		if maxEvaluations < 0 {
			maxEvaluations = 0
		}
		globalStore = &EvaluationStore{
			evaluations:    make(map[string]*model.Evaluation),
			maxEvaluations: maxEvaluations,
		}
		slog.Info("evaluation store initialized", "max_evaluations", maxEvaluations)
	})
}

// GetEvaluationStore returns the global evaluation store
func GetEvaluationStore() *EvaluationStore {
	if globalStore == nil {
		// Fallback initialization with default settings
		globalStore = &EvaluationStore{
			evaluations:    make(map[string]*model.Evaluation),
			maxEvaluations: 100, // Default: keep 100 evaluations
		}
	}
	return globalStore
}

func (s *EvaluationStore) Save(eval *model.Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eval.UpdatedAt = time.Now()
	s.evaluations[eval.ID] = eval

	// Cleanup if exceeds max
	s.cleanupIfNeeded()
}

func (s *EvaluationStore) Get(id string) *model.Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evaluations[id]
}

func (s *EvaluationStore) GetByTenant(tenant string) []*model.Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Evaluation
	for _, e := range s.evaluations {
		if e.Tenant == tenant {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *EvaluationStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.evaluations, id)
}

func (s *EvaluationStore) SetFailed(id, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.evaluations[id]; ok {
		e.Status = model.StatusFailed
		e.ErrorMsg = errMsg
		e.UpdatedAt = time.Now()
	}
}

func (s *EvaluationStore) SetReport(id string, report *model.ComplianceReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.evaluations[id]; ok {
		e.Report = report
		e.Status = model.StatusCompleted
		e.UpdatedAt = time.Now()
	}
}

// cleanupIfNeeded removes oldest evaluations if store exceeds maxEvaluations
// Must be called with lock held
func (s *EvaluationStore) cleanupIfNeeded() {
	if s.maxEvaluations <= 0 {
		return // Unlimited
	}

	if len(s.evaluations) <= s.maxEvaluations {
		return
	}

	// Sort evaluations by creation time
	evaluations := make([]*model.Evaluation, 0, len(s.evaluations))
	for _, e := range s.evaluations {
		evaluations = append(evaluations, e)
	}
	sort.Slice(evaluations, func(i, j int) bool {
		return evaluations[i].CreatedAt.Before(evaluations[j].CreatedAt)
	})

	// Remove oldest evaluations
	removeCount := len(evaluations) - s.maxEvaluations
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old evaluation",
			"evaluation_id", evaluations[i].ID,
			"created_at", evaluations[i].CreatedAt,
		)
		delete(s.evaluations, evaluations[i].ID)
	}
}

// Count returns the number of evaluations in the store
func (s *EvaluationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.evaluations)
}
