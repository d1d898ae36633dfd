package ecs

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sirupsen/logrus"
)

// Entity is an identity with a stable numeric id, an alive flag, and the
// set of components currently (or pending-removal) attached to it. Entity
// is owned by the EntityStore's pool: while in use it owns its component
// instances; while pooled it is reset.
type Entity struct {
	ID    uint64
	Name  string
	Alive bool

	attached           *roaring.Bitmap
	components         map[ComponentTypeID]*Component
	pendingAttached    *roaring.Bitmap
	pendingComponents  map[ComponentTypeID]*Component
	queries            []*Query
	numStateComponents int

	store *EntityStore
}

func newEntity() *Entity {
	return &Entity{
		attached:          roaring.New(),
		components:        make(map[ComponentTypeID]*Component),
		pendingAttached:   roaring.New(),
		pendingComponents: make(map[ComponentTypeID]*Component),
	}
}

func (e *Entity) reset() {
	e.ID = 0
	e.Name = ""
	e.Alive = false
	e.attached.Clear()
	for k := range e.components {
		delete(e.components, k)
	}
	e.pendingAttached.Clear()
	for k := range e.pendingComponents {
		delete(e.pendingComponents, k)
	}
	e.queries = e.queries[:0]
	e.numStateComponents = 0
	e.store = nil
}

// Has reports whether typeID is currently attached (includeRemoved also
// matches pending-removal components).
func (e *Entity) Has(typeID ComponentTypeID, includeRemoved bool) bool {
	if e.attached.ContainsInt(int(typeID)) {
		return true
	}
	return includeRemoved && e.pendingAttached.ContainsInt(int(typeID))
}

// HasAll reports whether every type in types is currently attached.
func (e *Entity) HasAll(types []ComponentTypeID) bool {
	for _, t := range types {
		if !e.attached.ContainsInt(int(t)) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one type in types is currently attached.
func (e *Entity) HasAny(types []ComponentTypeID) bool {
	for _, t := range types {
		if e.attached.ContainsInt(int(t)) {
			return true
		}
	}
	return false
}

// Get returns the attached component instance for typeID (or the
// pending-removal instance if includeRemoved is set and it is pending).
func (e *Entity) Get(typeID ComponentTypeID, includeRemoved bool) (*Component, bool) {
	if c, ok := e.components[typeID]; ok {
		return c, true
	}
	if includeRemoved {
		if c, ok := e.pendingComponents[typeID]; ok {
			return c, true
		}
	}
	return nil, false
}

// GetRemoved returns the pending-removal component instance for typeID, if
// any.
func (e *Entity) GetRemoved(typeID ComponentTypeID) (*Component, bool) {
	c, ok := e.pendingComponents[typeID]
	return c, ok
}

// ComponentTypes returns the type-ids currently attached to the entity.
func (e *Entity) ComponentTypes() []ComponentTypeID {
	out := make([]ComponentTypeID, 0, len(e.components))
	for id := range e.components {
		out = append(out, id)
	}
	return out
}

// Components returns the currently attached component instances.
func (e *Entity) Components() []*Component {
	out := make([]*Component, 0, len(e.components))
	for _, c := range e.components {
		out = append(out, c)
	}
	return out
}

// ComponentsToRemove returns the pending-removal component instances.
func (e *Entity) ComponentsToRemove() []*Component {
	out := make([]*Component, 0, len(e.pendingComponents))
	for _, c := range e.pendingComponents {
		out = append(out, c)
	}
	return out
}

// AddComponent attaches typeID to the entity via its owning EntityStore.
func (e *Entity) AddComponent(typeID ComponentTypeID, initValues map[string]any) {
	e.store.AttachComponent(e, typeID, initValues)
}

// RemoveComponent detaches typeID from the entity via its owning
// EntityStore.
func (e *Entity) RemoveComponent(typeID ComponentTypeID, immediate bool) {
	e.store.DetachComponent(e, typeID, immediate)
}

// RemoveAllComponents detaches every attached component except system-state
// ones, which must be removed explicitly.
func (e *Entity) RemoveAllComponents(immediate bool) {
	e.store.DetachAllComponents(e, immediate)
}

// Remove logically removes the entity via its owning EntityStore.
func (e *Entity) Remove(immediate bool) {
	e.store.RemoveEntity(e, immediate)
}

// CopyFrom overwrites this entity's attached components from other's,
// attaching each of other's types (an instance already attached here is
// reused) and copying its fields. The
// pending-removal set of other is not preserved: the copy is a snapshot of
// attached components only (per spec.md §9 Open Questions).
func (e *Entity) CopyFrom(other *Entity) {
	for typeID, src := range other.components {
		e.store.AttachComponent(e, typeID, nil)
		dst := e.components[typeID]
		dst.copyFrom(src)
	}
}

// Clone creates a new entity in the same store with a snapshot of this
// entity's attached components.
func (e *Entity) Clone() *Entity {
	clone := e.store.CreateEntity("")
	clone.CopyFrom(e)
	return clone
}

// entityPool is the free-list of reusable Entity records owned by
// EntityStore.
type entityPool struct {
	free    []*Entity
	factory func() *Entity
}

func newEntityPool(factory func() *Entity) *entityPool {
	if factory == nil {
		factory = newEntity
	}
	return &entityPool{factory: factory}
}

func (p *entityPool) acquire() *Entity {
	if len(p.free) == 0 {
		return p.factory()
	}
	last := len(p.free) - 1
	e := p.free[last]
	p.free = p.free[:last]
	return e
}

func (p *entityPool) release(e *Entity) {
	e.reset()
	p.free = append(p.free, e)
}

// EntityStore owns the set of live entities: it creates, tracks, and
// releases them, attaches and detaches components, and coordinates with the
// QueryIndex and the deferred-removal queues.
type EntityStore struct {
	registry   *ComponentRegistry
	queryIndex *QueryIndex
	events     *EventEmitter
	pool       *entityPool
	nextID     uint64
	live       map[uint64]*Entity
	names      map[string]uint64

	entitiesToRemove              []*Entity
	entitiesWithPendingComponents []*Entity
	pendingQueueSet               map[uint64]bool

	deferredDisabled bool
	logger           *logrus.Entry
}

// NewEntityStore constructs an EntityStore backed by registry, pre-warming
// its entity pool to cfg.EntityPoolSize.
func NewEntityStore(registry *ComponentRegistry, cfg Config, events *EventEmitter, logger *logrus.Entry) *EntityStore {
	s := &EntityStore{
		registry:        registry,
		events:          events,
		pool:            newEntityPool(cfg.EntityFactory),
		live:            make(map[uint64]*Entity),
		names:           make(map[string]uint64),
		pendingQueueSet: make(map[uint64]bool),
		logger:          logger,
	}
	for i := 0; i < cfg.EntityPoolSize; i++ {
		s.pool.free = append(s.pool.free, s.pool.factory())
	}
	return s
}

func (s *EntityStore) bindQueryIndex(qi *QueryIndex) {
	s.queryIndex = qi
}

// SetDeferredRemovalDisabled lets tests disable end-of-tick reclamation to
// observe pending state directly.
func (s *EntityStore) SetDeferredRemovalDisabled(disabled bool) {
	s.deferredDisabled = disabled
}

// Get returns the live entity with the given id.
func (s *EntityStore) Get(id uint64) (*Entity, bool) {
	e, ok := s.live[id]
	return e, ok
}

// GetByName returns the live entity registered under name.
func (s *EntityStore) GetByName(name string) (*Entity, bool) {
	id, ok := s.names[name]
	if !ok {
		return nil, false
	}
	return s.Get(id)
}

// Live returns every currently live entity. The returned slice is a fresh
// copy; callers may retain it across mutations.
func (s *EntityStore) Live() []*Entity {
	out := make([]*Entity, 0, len(s.live))
	for _, e := range s.live {
		out = append(out, e)
	}
	return out
}

// Count returns the number of live entities.
func (s *EntityStore) Count() int {
	return len(s.live)
}

// CreateEntity acquires an entity from the pool, assigns it the next
// monotonic id, registers name if given, and emits EntityCreated.
func (s *EntityStore) CreateEntity(name string) *Entity {
	e := s.pool.acquire()
	e.ID = s.nextID
	s.nextID++
	e.Alive = true
	e.store = s

	if name != "" {
		if _, exists := s.names[name]; exists {
			if s.logger != nil {
				s.logger.WithField("name", name).Warn("duplicate entity name ignored, first binding wins")
			}
		} else {
			s.names[name] = e.ID
			e.Name = name
		}
	}

	s.live[e.ID] = e

	if s.logger != nil && s.logger.Logger.GetLevel() >= logrus.DebugLevel {
		s.logger.WithField("entityID", e.ID).Debug("entity created")
	}
	s.events.emitEntityCreated(e)
	return e
}

// AttachComponent attaches typeID to entity. Already-attached is a warn-only
// no-op (DuplicateAttachment). initValues, if non-nil, seeds the fresh
// instance's fields via the field types' Copy.
func (s *EntityStore) AttachComponent(entity *Entity, typeID ComponentTypeID, initValues map[string]any) {
	if entity.attached.ContainsInt(int(typeID)) {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"entityID": entity.ID, "typeID": typeID}).Warn("duplicate component attachment ignored")
		}
		return
	}

	pool := s.registry.GetPool(typeID)
	instance := pool.Acquire()
	if initValues != nil {
		instance.copyFromValues(initValues)
	}

	entity.components[typeID] = instance
	entity.attached.AddInt(int(typeID))

	if s.registry.GetType(typeID).SystemState {
		entity.numStateComponents++
	}

	s.queryIndex.onEntityAttach(entity, typeID)
	s.events.emitComponentAdded(entity, typeID)
}

// DetachComponent detaches typeID from entity. Missing components are a
// no-op. If immediate, the instance is released to its pool synchronously;
// otherwise it moves to the pending-removal map and is released at the next
// ProcessDeferredRemoval, remaining readable via GetRemoved until then.
func (s *EntityStore) DetachComponent(entity *Entity, typeID ComponentTypeID, immediate bool) {
	isSystemState := s.registry.GetType(typeID).SystemState

	instance, ok := entity.components[typeID]
	if !ok {
		return
	}

	s.events.emitComponentRemove(entity, typeID)

	if immediate {
		delete(entity.components, typeID)
		entity.attached.RemoveInt(int(typeID))
		pool := s.registry.GetPool(typeID)
		pool.Release(instance)
		s.queryIndex.onEntityDetach(entity, typeID)

		if isSystemState && entity.numStateComponents > 0 {
			entity.numStateComponents--
		}
		if isSystemState && !entity.Alive && entity.numStateComponents == 0 {
			s.events.emitEntityRemoved(entity)
			s.queryIndex.onEntityRemoved(entity)
			s.reclaim(entity)
		}
		return
	}

	delete(entity.components, typeID)
	entity.attached.RemoveInt(int(typeID))
	entity.pendingComponents[typeID] = instance
	entity.pendingAttached.AddInt(int(typeID))

	if !s.pendingQueueSet[entity.ID] {
		s.pendingQueueSet[entity.ID] = true
		s.entitiesWithPendingComponents = append(s.entitiesWithPendingComponents, entity)
	}

	s.queryIndex.onEntityDetach(entity, typeID)

	if isSystemState && entity.numStateComponents > 0 {
		entity.numStateComponents--
	}
	if isSystemState && !entity.Alive && entity.numStateComponents == 0 {
		s.events.emitEntityRemoved(entity)
		s.queryIndex.onEntityRemoved(entity)
		s.scheduleReclaim(entity)
	}
}

// DetachAllComponents detaches every currently attached component except
// system-state ones, which must be removed explicitly.
func (s *EntityStore) DetachAllComponents(entity *Entity, immediate bool) {
	types := entity.attached.ToArray()
	for i := len(types) - 1; i >= 0; i-- {
		typeID := ComponentTypeID(types[i])
		if s.registry.GetType(typeID).SystemState {
			continue
		}
		s.DetachComponent(entity, typeID, immediate)
	}
}

// RemoveEntity logically removes entity: it becomes non-alive and loses its
// non-system-state components. If it has no system-state components left,
// it is reclaimed (immediately or at end-of-tick per immediate); otherwise
// it persists as a ghost until its last system-state component is detached.
func (s *EntityStore) RemoveEntity(entity *Entity, immediate bool) {
	if _, ok := s.live[entity.ID]; !ok {
		raise(ErrEntityNotInStore, "entity %d is not owned by this store", entity.ID)
	}

	entity.Alive = false
	s.DetachAllComponents(entity, immediate)

	if entity.numStateComponents == 0 {
		s.events.emitEntityRemoved(entity)
		s.queryIndex.onEntityRemoved(entity)
		if immediate {
			s.reclaim(entity)
		} else {
			s.scheduleReclaim(entity)
		}
	}
}

func (s *EntityStore) scheduleReclaim(entity *Entity) {
	s.entitiesToRemove = append(s.entitiesToRemove, entity)
}

func (s *EntityStore) reclaim(entity *Entity) {
	delete(s.live, entity.ID)
	if entity.Name != "" {
		delete(s.names, entity.Name)
	}
	for typeID, instance := range entity.pendingComponents {
		s.registry.GetPool(typeID).Release(instance)
	}
	delete(s.pendingQueueSet, entity.ID)
	s.pool.release(entity)
}

// ProcessDeferredRemoval flushes the two deferred-removal queues: entities
// scheduled for reclamation are released to the pool, and entities with
// pending-removal components have those instances released to their pools.
// Disabled via SetDeferredRemovalDisabled for tests that need to inspect
// pending state directly.
func (s *EntityStore) ProcessDeferredRemoval() {
	if s.deferredDisabled {
		return
	}

	for _, entity := range s.entitiesToRemove {
		if !entity.Alive {
			s.reclaim(entity)
		}
	}
	s.entitiesToRemove = s.entitiesToRemove[:0]

	for _, entity := range s.entitiesWithPendingComponents {
		types := entity.pendingAttached.ToArray()
		for _, t := range types {
			typeID := ComponentTypeID(t)
			instance, ok := entity.pendingComponents[typeID]
			if !ok {
				continue
			}
			pool := s.registry.GetPool(typeID)
			pool.Release(instance)
			delete(entity.pendingComponents, typeID)
		}
		entity.pendingAttached.Clear()
		delete(s.pendingQueueSet, entity.ID)
	}
	s.entitiesWithPendingComponents = s.entitiesWithPendingComponents[:0]
}
