package graph

import (
	"errors"
	"testing"

	"github.com/pandulabs/pandu/pkg/models"
)

func node(id string, deps ...string) *models.SubqueryNode {
	return &models.SubqueryNode{
		ID:       id,
		Question: "question for " + id,
		Category: models.CategoryInformationSeeking,
		DependsOn: deps,
	}
}

func TestBuildEmpty(t *testing.T) {
	g := New()
	if err := g.Build(nil); err != nil {
		t.Fatalf("build empty graph: %v", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("topological order: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected empty order, got %v", order)
	}
}

func TestTopologicalOrderLinear(t *testing.T) {
	g := New()
	err := g.Build([]*models.SubqueryNode{
		node("Subquery-2", "Subquery-1"),
		node("Subquery-1"),
		node("Subquery-3", "Subquery-2"),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("topological order: %v", err)
	}

	want := []string{"Subquery-1", "Subquery-2", "Subquery-3"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("position %d: expected %s, got %s (order %v)", i, id, order[i], order)
		}
	}
}

func TestTopologicalOrderDeterministic(t *testing.T) {
	build := func() *DependencyGraph {
		g := New()
		if err := g.Build([]*models.SubqueryNode{
			node("Subquery-3", "Subquery-1"),
			node("Subquery-2"),
			node("Subquery-1"),
		}); err != nil {
			t.Fatalf("build: %v", err)
		}
		return g
	}

	first, err := build().TopologicalOrder()
	if err != nil {
		t.Fatalf("topological order: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := build().TopologicalOrder()
		if err != nil {
			t.Fatalf("topological order: %v", err)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("non-deterministic order: %v vs %v", first, again)
			}
		}
	}
}

func TestCycleDetection(t *testing.T) {
	g := New()
	err := g.Build([]*models.SubqueryNode{
		node("Subquery-1", "Subquery-2"),
		node("Subquery-2", "Subquery-1"),
		node("Subquery-3"),
	})
	if err == nil {
		t.Fatal("expected cycle error")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Unresolved) != 2 {
		t.Errorf("expected 2 unresolved nodes, got %v", cycleErr.Unresolved)
	}
}

func TestUndefinedDependency(t *testing.T) {
	g := New()
	err := g.Build([]*models.SubqueryNode{
		node("Subquery-1", "Subquery-9"),
	})
	if err == nil {
		t.Fatal("expected undefined dependency error")
	}

	var depErr *UndefinedDependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected *UndefinedDependencyError, got %T: %v", err, err)
	}
	if depErr.NodeID != "Subquery-1" || depErr.DepID != "Subquery-9" {
		t.Errorf("unexpected error detail: %+v", depErr)
	}
}

func TestReadyAndMarkComplete(t *testing.T) {
	g := New()
	if err := g.Build([]*models.SubqueryNode{
		node("Subquery-1"),
		node("Subquery-2", "Subquery-1"),
		node("Subquery-3", "Subquery-1"),
		node("Subquery-4", "Subquery-2", "Subquery-3"),
	}); err != nil {
		t.Fatalf("build: %v", err)
	}

	ready := g.Ready()
	if len(ready) != 1 || ready[0] != "Subquery-1" {
		t.Fatalf("expected only Subquery-1 ready, got %v", ready)
	}

	g.MarkComplete("Subquery-1")
	ready = g.Ready()
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready nodes after Subquery-1, got %v", ready)
	}

	g.MarkComplete("Subquery-2")
	g.MarkComplete("Subquery-3")
	ready = g.Ready()
	if len(ready) != 1 || ready[0] != "Subquery-4" {
		t.Fatalf("expected only Subquery-4 ready, got %v", ready)
	}
}
