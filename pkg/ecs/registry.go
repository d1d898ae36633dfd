package ecs

import "github.com/sirupsen/logrus"

// PoolMode selects how a registered component type is backed.
type PoolMode int

const (
	// UseDefaultPool backs the type with a fresh ObjectPool (the zero
	// value, and the default when RegisterOptions is omitted).
	UseDefaultPool PoolMode = iota
	// PoolDisabled backs the type with a DummyPool: no reuse, every
	// acquire allocates.
	PoolDisabled
	// CustomPool backs the type with RegisterOptions.CustomPool.
	CustomPool
)

// RegisterOptions configures how ComponentRegistry.Register backs a newly
// registered component type.
type RegisterOptions struct {
	Pool            PoolMode
	CustomPool      Pool
	SystemState     bool
	Tag             bool
	InitialPoolSize int
}

type registryEntry struct {
	Type ComponentType
	Pool Pool
}

// ComponentRegistry assigns a dense type-id to each component type on first
// registration, stores its schema, creates its pool, and provides lookup
// from type-id.
type ComponentRegistry struct {
	nextID  ComponentTypeID
	byName  map[string]ComponentTypeID
	entries map[ComponentTypeID]*registryEntry
	logger  *logrus.Entry
}

// NewComponentRegistry constructs an empty registry.
func NewComponentRegistry(logger *logrus.Entry) *ComponentRegistry {
	return &ComponentRegistry{
		byName:  make(map[string]ComponentTypeID),
		entries: make(map[ComponentTypeID]*registryEntry),
		logger:  logger,
	}
}

// Register assigns name a dense type-id, validates its schema, and backs it
// with the pool described by opts. Re-registering the same name is
// idempotent: it logs a warning and returns the existing id without
// changing any state (DuplicateRegistration, §7).
func (r *ComponentRegistry) Register(name string, schema Schema, opts RegisterOptions) ComponentTypeID {
	if id, ok := r.byName[name]; ok {
		if r.logger != nil {
			r.logger.WithField("component", name).Warn("duplicate component type registration ignored")
		}
		return id
	}
	if !schema.validate() {
		raise(ErrInvalidSchema, "component %q declares a field with no usable FieldType", name)
	}

	id := r.nextID
	r.nextID++

	var pool Pool
	switch opts.Pool {
	case PoolDisabled:
		pool = NewDummyPool(id, schema)
	case CustomPool:
		pool = opts.CustomPool
	default:
		pool = NewObjectPool(id, schema, opts.InitialPoolSize, r.logger)
	}

	r.byName[name] = id
	r.entries[id] = &registryEntry{
		Type: ComponentType{
			ID:          id,
			Name:        name,
			Schema:      schema,
			SystemState: opts.SystemState,
			Tag:         opts.Tag,
		},
		Pool: pool,
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"component": name, "typeID": id}).Debug("component type registered")
	}
	return id
}

// HasRegistered reports whether name has been registered.
func (r *ComponentRegistry) HasRegistered(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// IDFor returns the type-id registered for name.
func (r *ComponentRegistry) IDFor(name string) (ComponentTypeID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// GetType returns the registered descriptor for typeID, raising
// UnregisteredComponentType if it was never registered.
func (r *ComponentRegistry) GetType(typeID ComponentTypeID) ComponentType {
	entry, ok := r.entries[typeID]
	if !ok {
		raise(ErrUnregisteredComponentType, "component type %d is not registered in this world", typeID)
	}
	return entry.Type
}

// GetPool returns the pool backing typeID, raising UnregisteredComponentType
// if it was never registered.
func (r *ComponentRegistry) GetPool(typeID ComponentTypeID) Pool {
	entry, ok := r.entries[typeID]
	if !ok {
		raise(ErrUnregisteredComponentType, "component type %d is not registered in this world", typeID)
	}
	return entry.Pool
}

// RegisteredTypes returns every registered descriptor, keyed by type-id.
func (r *ComponentRegistry) RegisteredTypes() map[ComponentTypeID]ComponentType {
	out := make(map[ComponentTypeID]ComponentType, len(r.entries))
	for id, entry := range r.entries {
		out[id] = entry.Type
	}
	return out
}

// PoolStat reports one component type's pool accounting.
type PoolStat struct {
	Used int
	Free int
}

// PoolStats returns every registered type's pool accounting, keyed by its
// registered name.
func (r *ComponentRegistry) PoolStats() map[string]PoolStat {
	out := make(map[string]PoolStat, len(r.entries))
	for _, entry := range r.entries {
		out[entry.Type.Name] = PoolStat{Used: entry.Pool.TotalUsed(), Free: entry.Pool.TotalFree()}
	}
	return out
}
