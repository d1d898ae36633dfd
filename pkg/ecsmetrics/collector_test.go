package ecsmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecsygo/ecsy/pkg/ecs"
)

func TestRecorderCollectsWorldStats(t *testing.T) {
	world := ecs.NewWorld(ecs.Config{})
	foo := world.RegisterComponentType("Foo", ecs.Schema{}, ecs.RegisterOptions{})
	e := world.CreateEntity("")
	e.AddComponent(foo, nil)

	reg := prometheus.NewRegistry()
	recorder := NewRecorder(world)
	reg.MustRegister(recorder)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one metric family")
	}

	var sawEntityCount, sawPoolUsed bool
	for _, fam := range families {
		switch fam.GetName() {
		case "ecsy_entity_count":
			sawEntityCount = true
			if got := fam.GetMetric()[0].GetGauge().GetValue(); got != 1 {
				t.Fatalf("expected entity count 1, got %v", got)
			}
		case "ecsy_pool_used":
			sawPoolUsed = true
		}
	}
	if !sawEntityCount {
		t.Fatal("expected ecsy_entity_count family")
	}
	if !sawPoolUsed {
		t.Fatal("expected ecsy_pool_used family")
	}
}

func TestRecorderCountsLifecycleEvents(t *testing.T) {
	world := ecs.NewWorld(ecs.Config{})
	foo := world.RegisterComponentType("Foo", ecs.Schema{}, ecs.RegisterOptions{})

	reg := prometheus.NewRegistry()
	recorder := NewRecorder(world)
	reg.MustRegister(recorder)

	e := world.CreateEntity("")
	e.AddComponent(foo, nil)
	e.RemoveComponent(foo, true)
	e.Remove(true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	counts := map[string]float64{}
	for _, fam := range families {
		switch fam.GetName() {
		case "ecsy_entities_created_total", "ecsy_entities_removed_total",
			"ecsy_components_added_total", "ecsy_components_removed_total":
			counts[fam.GetName()] = fam.GetMetric()[0].GetCounter().GetValue()
		}
	}

	if counts["ecsy_entities_created_total"] != 1 {
		t.Fatalf("expected 1 entity created, got %v", counts["ecsy_entities_created_total"])
	}
	if counts["ecsy_entities_removed_total"] != 1 {
		t.Fatalf("expected 1 entity removed, got %v", counts["ecsy_entities_removed_total"])
	}
	if counts["ecsy_components_added_total"] != 1 {
		t.Fatalf("expected 1 component added, got %v", counts["ecsy_components_added_total"])
	}
	if counts["ecsy_components_removed_total"] != 1 {
		t.Fatalf("expected 1 component removed, got %v", counts["ecsy_components_removed_total"])
	}
}
