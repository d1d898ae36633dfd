package ecs

import "testing"

type scenarioASystem struct {
	fooType              ComponentTypeID
	removedStillReadable bool
	// added and removed hold what Execute observed; the scheduler clears
	// the buffers as soon as Execute returns.
	added   []*Entity
	removed []*Entity
}

func (s *scenarioASystem) Describe() SystemSpec {
	return SystemSpec{
		Queries: map[string]QueryDescriptor{
			"q": {Components: []Term{T(0), Not(1)}, Listen: ListenOptions{Added: true, Removed: true}},
		},
	}
}

func (s *scenarioASystem) Execute(queries map[string]*BoundQuery, delta, time float64) {
	s.removedStillReadable = false
	s.added = append([]*Entity(nil), queries["q"].Added()...)
	s.removed = append([]*Entity(nil), queries["q"].Removed()...)
	for _, e := range queries["q"].Removed() {
		if _, ok := e.GetRemoved(s.fooType); ok {
			s.removedStillReadable = true
		}
	}
}

// TestScenarioAReactiveAddRemoveVisibility exercises spec.md §8 Scenario A:
// reactive added/removed visibility across consecutive ticks, including the
// deferred-removal observation window.
func TestScenarioAReactiveAddRemoveVisibility(t *testing.T) {
	world := NewWorld(Config{})
	foo := world.RegisterComponentType("Foo", Schema{}, RegisterOptions{})
	world.RegisterComponentType("Bar", Schema{}, RegisterOptions{})

	sys := &scenarioASystem{fooType: foo}
	name := world.RegisterSystem(sys)

	e1 := world.CreateEntity("")
	e1.AddComponent(foo, nil)

	world.Execute(0.016, 1)
	rs := world.scheduler.byName[name]
	q := rs.queries["q"]
	if len(q.Entities()) != 1 || q.Entities()[0] != e1 {
		t.Fatalf("expected tick1 results=[E1], got %v", q.Entities())
	}
	if len(sys.added) != 1 || sys.added[0] != e1 {
		t.Fatalf("expected tick1 added=[E1], got %v", sys.added)
	}
	if len(sys.removed) != 0 {
		t.Fatalf("expected tick1 removed=[], got %v", sys.removed)
	}

	e1.RemoveComponent(foo, false)
	world.Execute(0.016, 2)
	if len(q.Entities()) != 0 {
		t.Fatalf("expected tick2 results=[], got %v", q.Entities())
	}
	if len(sys.added) != 0 {
		t.Fatalf("expected tick2 added=[], got %v", sys.added)
	}
	if len(sys.removed) != 1 || sys.removed[0] != e1 {
		t.Fatalf("expected tick2 removed=[E1], got %v", sys.removed)
	}
	if !sys.removedStillReadable {
		t.Fatal("expected getRemovedComponent(Foo) to still return the prior instance during tick2's execute, before the end-of-tick flush")
	}
	if _, ok := e1.GetRemoved(foo); ok {
		t.Fatal("expected pending instance released once tick2's processDeferredRemoval has run")
	}

	world.Execute(0.016, 3)
	if len(q.Entities()) != 0 || len(sys.added) != 0 || len(sys.removed) != 0 {
		t.Fatalf("expected tick3 fully quiescent, got entities=%v added=%v removed=%v", q.Entities(), sys.added, sys.removed)
	}
}

// TestScenarioCGhostEntityLifecycle exercises spec.md §8 Scenario C.
func TestScenarioCGhostEntityLifecycle(t *testing.T) {
	world := NewWorld(Config{})
	foo := world.RegisterComponentType("Foo", Schema{}, RegisterOptions{})
	state := world.RegisterComponentType("S", Schema{}, RegisterOptions{SystemState: true})

	e := world.CreateEntity("")
	e.AddComponent(foo, nil)
	e.AddComponent(state, nil)

	e.Remove(true)
	if e.Alive {
		t.Fatal("expected entity non-alive immediately")
	}
	if e.Has(foo, false) {
		t.Fatal("expected Foo released on remove")
	}
	if !e.Has(state, false) {
		t.Fatal("expected S to survive remove")
	}
	if _, ok := world.GetEntity(e.ID); !ok {
		t.Fatal("expected ghost entity to remain in the store")
	}

	e.RemoveComponent(state, true)
	if _, ok := world.GetEntity(e.ID); ok {
		t.Fatal("expected entity reclaimed after last state component removed")
	}
}

// TestScenarioDPoolReusePreservesSchemaDefaults exercises spec.md §8
// Scenario D.
func TestScenarioDPoolReusePreservesSchemaDefaults(t *testing.T) {
	world := NewWorld(Config{})
	foo := world.RegisterComponentType("Foo", fooSchema(), RegisterOptions{})

	e1 := world.CreateEntity("")
	e1.AddComponent(foo, nil)
	c1, _ := e1.Get(foo, false)
	if c1.Get("x") != float64(7) {
		t.Fatalf("expected default x=7, got %v", c1.Get("x"))
	}
	xs1 := c1.Get("xs").([]any)
	if xs1[0] != float64(1) || xs1[1] != float64(2) || xs1[2] != float64(3) {
		t.Fatalf("expected default xs=[1,2,3], got %v", xs1)
	}

	c1.Set("x", float64(99))
	e1.RemoveComponent(foo, true)

	e2 := world.CreateEntity("")
	e2.AddComponent(foo, nil)
	c2, _ := e2.Get(foo, false)
	if c2.Get("x") != float64(7) {
		t.Fatalf("expected reused instance default x=7, got %v", c2.Get("x"))
	}
	xs2 := c2.Get("xs").([]any)
	if xs2[0] != float64(1) {
		t.Fatalf("expected reused instance default xs[0]=1, got %v", xs2[0])
	}
}

func TestDuplicateComponentTypeRegistrationYieldsSameID(t *testing.T) {
	world := NewWorld(Config{})
	a := world.RegisterComponentType("Foo", fooSchema(), RegisterOptions{})
	b := world.RegisterComponentType("Foo", fooSchema(), RegisterOptions{})
	if a != b {
		t.Fatalf("expected same type-id for duplicate registration, got %d and %d", a, b)
	}
}

func TestMutableAccessorNotifiesChanged(t *testing.T) {
	world := NewWorld(Config{})
	foo := world.RegisterComponentType("Foo", fooSchema(), RegisterOptions{})

	bound := world.queryIndex.Subscribe(QueryDescriptor{
		Components: []Term{T(foo)},
		Listen:     ListenOptions{Changed: &ChangedSpec{}},
	})

	e := world.CreateEntity("")
	e.AddComponent(foo, nil)

	c, ok := world.Mutable().Get(e, foo)
	if !ok {
		t.Fatal("expected mutable accessor to find the component")
	}
	c.Set("x", float64(123))

	if len(bound.Changed()) != 1 {
		t.Fatalf("expected one changed entry, got %d", len(bound.Changed()))
	}
}

// TestMutableAccessorOnlyNotifiesQueriesIncludingTheChangedType covers an
// entity matching two queries over disjoint included types: taking a
// mutable view of one type must not feed the other query's changed buffer.
func TestMutableAccessorOnlyNotifiesQueriesIncludingTheChangedType(t *testing.T) {
	world := NewWorld(Config{})
	foo := world.RegisterComponentType("Foo", fooSchema(), RegisterOptions{})
	bar := world.RegisterComponentType("Bar", fooSchema(), RegisterOptions{})

	boundFoo := world.queryIndex.Subscribe(QueryDescriptor{
		Components: []Term{T(foo)},
		Listen:     ListenOptions{Changed: &ChangedSpec{}},
	})
	boundBar := world.queryIndex.Subscribe(QueryDescriptor{
		Components: []Term{T(bar)},
		Listen:     ListenOptions{Changed: &ChangedSpec{}},
	})

	e := world.CreateEntity("")
	e.AddComponent(foo, nil)
	e.AddComponent(bar, nil)

	c, ok := world.Mutable().Get(e, bar)
	if !ok {
		t.Fatal("expected mutable accessor to find Bar")
	}
	c.Set("x", float64(1))

	if len(boundBar.Changed()) != 1 {
		t.Fatalf("expected Bar's query to see one changed entry, got %d", len(boundBar.Changed()))
	}
	if len(boundFoo.Changed()) != 0 {
		t.Fatalf("expected Foo's query to see no changed entries from a Bar write, got %d", len(boundFoo.Changed()))
	}
}

func TestWorldStatsFoldsInQueriesPoolsAndEventCounters(t *testing.T) {
	world := NewWorld(Config{})
	foo := world.RegisterComponentType("Foo", fooSchema(), RegisterOptions{})
	world.queryIndex.GetOrCreate(QueryDescriptor{Components: []Term{T(foo)}})

	e := world.CreateEntity("")
	e.AddComponent(foo, nil)
	e.RemoveComponent(foo, true)
	e.Remove(true)

	stats := world.Stats()
	if len(stats.Queries) != 1 {
		t.Fatalf("expected one query entry, got %d", len(stats.Queries))
	}
	if _, ok := stats.Pools["Foo"]; !ok {
		t.Fatal("expected a pool entry for \"Foo\"")
	}
	if stats.Events.EntitiesCreated != 1 {
		t.Fatalf("expected 1 entity created, got %d", stats.Events.EntitiesCreated)
	}
	if stats.Events.EntitiesRemoved != 1 {
		t.Fatalf("expected 1 entity removed, got %d", stats.Events.EntitiesRemoved)
	}
	if stats.Events.ComponentsAdded != 1 {
		t.Fatalf("expected 1 component added, got %d", stats.Events.ComponentsAdded)
	}
	if stats.Events.ComponentsRemoved != 1 {
		t.Fatalf("expected 1 component removed, got %d", stats.Events.ComponentsRemoved)
	}
}
