package ecs

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config configures a World at construction. The zero value is usable: no
// logging, a fresh random instance id, default pool sizing, and
// production-mode (non-panicking) component views.
type Config struct {
	// EntityPoolSize pre-warms the entity free-list with this many fresh
	// Entity records.
	EntityPoolSize int
	// EntityFactory overrides how fresh Entity records are constructed.
	// Nil uses the built-in constructor.
	EntityFactory func() *Entity
	// Logger, if set, receives debug/warn diagnostics from every
	// subsystem under a "world" field plus this instance's id.
	Logger *logrus.Entry
	// DevMode enables the write-guard on components obtained through an
	// ImmutableAccessor.
	DevMode bool
}

// EventCounters tracks cumulative counts of the four world-level lifecycle
// events since the World was constructed.
type EventCounters struct {
	EntitiesCreated   uint64
	EntitiesRemoved   uint64
	ComponentsAdded   uint64
	ComponentsRemoved uint64
}

// World is the façade over the component registry, entity store, query
// index, and scheduler that make up one independent ECS runtime instance.
type World struct {
	id uuid.UUID

	registry   *ComponentRegistry
	store      *EntityStore
	queryIndex *QueryIndex
	scheduler  *Scheduler
	events     *EventEmitter
	counters   EventCounters

	mutable   *MutableAccessor
	immutable *ImmutableAccessor

	logger *logrus.Entry
}

// NewWorld constructs a World, wiring the EntityStore and QueryIndex
// together (the EntityStore is built first, then the QueryIndex over it,
// then the EntityStore is bound back to the QueryIndex it needs to notify).
func NewWorld(cfg Config) *World {
	id := uuid.New()

	logger := cfg.Logger
	if logger != nil {
		logger = logger.WithFields(logrus.Fields{"world": id.String()})
	}

	events := NewEventEmitter()
	registry := NewComponentRegistry(logger)
	store := NewEntityStore(registry, cfg, events, logger)
	queryIndex := NewQueryIndex(store, registry, logger)
	store.bindQueryIndex(queryIndex)
	scheduler := NewScheduler(store, queryIndex, logger)

	w := &World{
		id:         id,
		registry:   registry,
		store:      store,
		queryIndex: queryIndex,
		scheduler:  scheduler,
		events:     events,
		mutable:    NewMutableAccessor(store),
		immutable:  NewImmutableAccessor(cfg.DevMode),
		logger:     logger,
	}

	w.events.OnEntityCreated(func(EntityEvent) { w.counters.EntitiesCreated++ })
	w.events.OnEntityRemoved(func(EntityEvent) { w.counters.EntitiesRemoved++ })
	w.events.OnComponentAdded(func(ComponentEvent) { w.counters.ComponentsAdded++ })
	w.events.OnComponentRemove(func(ComponentEvent) { w.counters.ComponentsRemoved++ })

	if w.logger != nil {
		w.logger.Debug("world created")
	}
	return w
}

// ID returns the world's instance identifier, stable for its lifetime.
func (w *World) ID() uuid.UUID { return w.id }

// Events returns the world's lifecycle event emitter.
func (w *World) Events() *EventEmitter { return w.events }

// RegisterComponentType registers name with schema, returning its dense
// type-id. See ComponentRegistry.Register.
func (w *World) RegisterComponentType(name string, schema Schema, opts RegisterOptions) ComponentTypeID {
	return w.registry.Register(name, schema, opts)
}

// HasRegisteredComponentType reports whether name has been registered.
func (w *World) HasRegisteredComponentType(name string) bool {
	return w.registry.HasRegistered(name)
}

// ComponentTypeID returns the type-id registered for name.
func (w *World) ComponentTypeID(name string) (ComponentTypeID, bool) {
	return w.registry.IDFor(name)
}

// CreateEntity creates a new entity, optionally named.
func (w *World) CreateEntity(name string) *Entity {
	return w.store.CreateEntity(name)
}

// GetEntity returns the live entity with id.
func (w *World) GetEntity(id uint64) (*Entity, bool) {
	return w.store.Get(id)
}

// GetEntityByName returns the live entity registered under name.
func (w *World) GetEntityByName(name string) (*Entity, bool) {
	return w.store.GetByName(name)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.store.Count()
}

// Mutable returns the accessor for writing components; reads through it
// notify reactive queries of the change.
func (w *World) Mutable() *MutableAccessor { return w.mutable }

// Immutable returns the accessor for reading components without
// triggering reactive Changed notifications.
func (w *World) Immutable() *ImmutableAccessor { return w.immutable }

// RegisterSystem resolves sys's queries, initializes it, and (if it has an
// Execute method) schedules it for every future tick.
func (w *World) RegisterSystem(sys System) string {
	return w.scheduler.RegisterSystem(sys)
}

// UnregisterSystem removes a previously registered system by name.
func (w *World) UnregisterSystem(name string) {
	w.scheduler.UnregisterSystem(name)
}

// GetWorldSystem returns the registered system named name, type-asserted to T.
func GetWorldSystem[T System](w *World, name string) (T, bool) {
	return GetSystem[T](w.scheduler, name)
}

// GetSystems returns every registered system's name.
func (w *World) GetSystems() []string {
	return w.scheduler.GetSystems()
}

// Play re-enables a previously stopped system.
func (w *World) Play(name string) { w.scheduler.Play(name) }

// Stop disables a system without unregistering it.
func (w *World) Stop(name string) { w.scheduler.Stop(name) }

// Execute runs one scheduler tick with the given delta and absolute time,
// in seconds, then flushes deferred entity and component removal.
func (w *World) Execute(delta, time float64) []SystemStats {
	return w.scheduler.Execute(delta, time)
}

// Stats summarizes the world's current size and activity for monitoring:
// entity/component-type counts, the most recent tick's per-system
// measurements, every constructed query's matched-entity count, every
// component type's pool accounting, and cumulative lifecycle event totals.
type Stats struct {
	EntityCount    int
	ComponentTypes int
	Systems        []SystemStats
	Queries        map[string]int
	Pools          map[string]PoolStat
	Events         EventCounters
}

// Stats reports the world's current entity count, registered component
// type count, the most recent tick's per-system measurements, per-query
// matched counts, per-pool used/free accounting, and cumulative event
// counters, in one call.
func (w *World) Stats() Stats {
	return Stats{
		EntityCount:    w.store.Count(),
		ComponentTypes: len(w.registry.RegisteredTypes()),
		Systems:        w.scheduler.LastRun(),
		Queries:        w.queryIndex.Stats(),
		Pools:          w.registry.PoolStats(),
		Events:         w.counters,
	}
}
