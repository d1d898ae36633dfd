package ecs

// MutableAccessor is how a system reaches into an entity's component for
// writing. Taking a mutable view notifies every Query containing entity
// whose included types contain typeID that typeID changed, feeding their
// Changed reactive buffers.
type MutableAccessor struct {
	store *EntityStore
}

// NewMutableAccessor wraps store for mutable component access.
func NewMutableAccessor(store *EntityStore) *MutableAccessor {
	return &MutableAccessor{store: store}
}

// Get returns entity's component instance for typeID for writing, and
// notifies every query containing entity whose included types contain
// typeID of the change. Missing components
// return (nil, false) without notifying.
func (m *MutableAccessor) Get(entity *Entity, typeID ComponentTypeID) (*Component, bool) {
	c, ok := entity.Get(typeID, false)
	if !ok {
		return nil, false
	}
	for _, q := range entity.queries {
		q.notifyChanged(entity, typeID)
	}
	return c, true
}

// ImmutableAccessor is the read-only counterpart: it never triggers Changed
// events. devMode wraps every returned Component in a write-guard so a
// system that accidentally mutates a value read through this accessor
// panics immediately instead of producing a silent reactive-event mismatch.
type ImmutableAccessor struct {
	devMode bool
}

// NewImmutableAccessor constructs an accessor; devMode enables the
// write-guard wrapper.
func NewImmutableAccessor(devMode bool) *ImmutableAccessor {
	return &ImmutableAccessor{devMode: devMode}
}

// Get returns entity's component instance for typeID without notifying any
// query.
func (a *ImmutableAccessor) Get(entity *Entity, typeID ComponentTypeID) (*Component, bool) {
	c, ok := entity.Get(typeID, false)
	if !ok {
		return nil, false
	}
	if a.devMode {
		return guardedComponent(c), true
	}
	return c, true
}

// guardedComponent returns a Component whose Set panics, used in
// development mode to catch a read-only accessor being used for a write
// the reactive system would never observe.
func guardedComponent(c *Component) *Component {
	guarded := *c
	guarded.guard = true
	return &guarded
}
