package service

import (
	"testing"
	"time"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
)

func newTestStore(maxEvaluations int) *EvaluationStore {
	return &EvaluationStore{
		evaluations:    make(map[string]*model.Evaluation),
		maxEvaluations: maxEvaluations,
	}
}

func TestEvaluationStoreSaveAndGet(t *testing.T) {
	store := newTestStore(100)

	eval := &model.Evaluation{
		ID:           "test-id-1",
		Filename:     "test_plan.docx",
		Tenant:       "tenant1",
		DocumentKind: model.KindDocx,
		Status:       model.StatusPending,
		CreatedAt:    time.Now(),
	}

	store.Save(eval)

	// Test Get
	retrieved := store.Get("test-id-1")
	if retrieved == nil {
		t.Fatal("Expected to retrieve evaluation")
	}
	if retrieved.Filename != "test_plan.docx" {
		t.Errorf("Expected filename test_plan.docx, got %s", retrieved.Filename)
	}

	// Test Get non-existent
	notFound := store.Get("non-existent")
	if notFound != nil {
		t.Error("Expected nil for non-existent evaluation")
	}
}

func TestEvaluationStoreGetByTenant(t *testing.T) {
	store := newTestStore(100)

	// Add evaluations for different tenants
	store.Save(&model.Evaluation{ID: "1", Tenant: "tenant1", CreatedAt: time.Now().Add(-2 * time.Hour)})
	store.Save(&model.Evaluation{ID: "2", Tenant: "tenant1", CreatedAt: time.Now()})
	store.Save(&model.Evaluation{ID: "3", Tenant: "tenant2", CreatedAt: time.Now()})

	// Test GetByTenant
	tenant1Evals := store.GetByTenant("tenant1")
	if len(tenant1Evals) != 2 {
		t.Errorf("Expected 2 evaluations for tenant1, got %d", len(tenant1Evals))
	}
	// Newest first
	if len(tenant1Evals) == 2 && tenant1Evals[0].ID != "2" {
		t.Errorf("Expected newest evaluation first, got %s", tenant1Evals[0].ID)
	}

	tenant2Evals := store.GetByTenant("tenant2")
	if len(tenant2Evals) != 1 {
		t.Errorf("Expected 1 evaluation for tenant2, got %d", len(tenant2Evals))
	}

	tenant3Evals := store.GetByTenant("tenant3")
	if len(tenant3Evals) != 0 {
		t.Errorf("Expected 0 evaluations for tenant3, got %d", len(tenant3Evals))
	}
}

func TestEvaluationStoreDelete(t *testing.T) {
	store := newTestStore(100)

	store.Save(&model.Evaluation{ID: "delete-me", CreatedAt: time.Now()})

	if store.Get("delete-me") == nil {
		t.Fatal("Expected evaluation to exist before delete")
	}

	store.Delete("delete-me")

	if store.Get("delete-me") != nil {
		t.Error("Expected evaluation to be deleted")
	}
}

func TestEvaluationStoreSetReport(t *testing.T) {
	store := newTestStore(100)

	store.Save(&model.Evaluation{
		ID:        "report-test",
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	})

	report := &model.ComplianceReport{
		ScorePercent:  80,
		OverallStatus: model.Compliant,
	}
	store.SetReport("report-test", report)

	eval := store.Get("report-test")
	if eval.Status != model.StatusCompleted {
		t.Errorf("Expected status completed, got %s", eval.Status)
	}
	if eval.Report == nil || eval.Report.ScorePercent != 80 {
		t.Error("Expected report to be attached")
	}
}

func TestEvaluationStoreSetFailed(t *testing.T) {
	store := newTestStore(100)

	store.Save(&model.Evaluation{
		ID:        "failed-test",
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	})

	store.SetFailed("failed-test", "document extraction failed")

	eval := store.Get("failed-test")
	if eval.Status != model.StatusFailed {
		t.Errorf("Expected status failed, got %s", eval.Status)
	}
	if eval.ErrorMsg != "document extraction failed" {
		t.Errorf("Unexpected error message: %s", eval.ErrorMsg)
	}
}

func TestEvaluationStoreCleanup(t *testing.T) {
	store := newTestStore(3)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		store.Save(&model.Evaluation{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	if store.Count() != 3 {
		t.Errorf("Expected store trimmed to 3 evaluations, got %d", store.Count())
	}

	// Oldest evaluations are removed first
	if store.Get("a") != nil || store.Get("b") != nil {
		t.Error("Expected oldest evaluations to be evicted")
	}
	if store.Get("e") == nil {
		t.Error("Expected newest evaluation to survive eviction")
	}
}

func TestEvaluationStoreUnlimited(t *testing.T) {
	store := newTestStore(0)

	for i := 0; i < 150; i++ {
		store.Save(&model.Evaluation{
			ID:        string(rune(i)),
			CreatedAt: time.Now(),
		})
	}

	if store.Count() != 150 {
		t.Errorf("Expected unlimited store to keep all 150, got %d", store.Count())
	}
}
