package ecs

// ComponentTypeID is the dense small-integer identifier assigned to a
// component type on first registration. IDs are unique per World and
// stable for the World's lifetime.
type ComponentTypeID uint32

// FieldSpec describes one schema field: its FieldType and an optional
// default value overriding FieldType.Default().
type FieldSpec struct {
	Type    FieldType
	Default any
}

// Schema maps field name to its FieldSpec. Every registered component type
// carries one; it governs reset, copy, and clone for instances of that
// type.
type Schema map[string]FieldSpec

// validate reports whether every field in the schema names a usable
// FieldType (Copy, Clone, and Default all set).
func (s Schema) validate() bool {
	for _, spec := range s {
		if spec.Type.Copy == nil || spec.Type.Clone == nil || spec.Type.Default == nil {
			return false
		}
	}
	return true
}

// ComponentType is the registered descriptor for a component: its display
// name, dense type-id, schema, and the SystemState/Tag marker subkinds.
type ComponentType struct {
	ID          ComponentTypeID
	Name        string
	Schema      Schema
	SystemState bool
	Tag         bool
}

// Component is an instance of a registered ComponentType. Every instance
// carries a back-reference to its owning pool, or nil if pooling is
// disabled for its type.
type Component struct {
	typeID ComponentTypeID
	schema Schema
	fields map[string]any
	pool   Pool
	guard  bool
}

func newComponent(typeID ComponentTypeID, schema Schema, pool Pool) *Component {
	c := &Component{
		typeID: typeID,
		schema: schema,
		fields: make(map[string]any, len(schema)),
		pool:   pool,
	}
	c.reset()
	return c
}

// TypeID returns the component-type this instance belongs to.
func (c *Component) TypeID() ComponentTypeID {
	return c.typeID
}

// Get returns the current value of a schema field.
func (c *Component) Get(field string) any {
	return c.fields[field]
}

// Set overwrites a schema field's value directly, bypassing the field
// type's copy semantics. Used by callers that already hold a value in the
// field's native representation.
func (c *Component) Set(field string, value any) {
	if c.guard {
		raise(ErrReadOnlyComponent, "component %d field %q written through an immutable view", c.typeID, field)
	}
	c.fields[field] = value
}

// reset restores every schema field to its default, per the field type's
// clone semantics so that defaults sharing a mutable representation (e.g.
// Array) are never aliased across instances.
func (c *Component) reset() {
	for name, spec := range c.schema {
		if spec.Default != nil {
			c.fields[name] = spec.Type.Clone(spec.Default)
			continue
		}
		c.fields[name] = spec.Type.Clone(spec.Type.Default())
	}
}

// copyFromValues overwrites the named fields present in values, passing
// each through its field type's Copy, leaving unnamed fields untouched.
// Used by attachComponent's optional initValues argument.
func (c *Component) copyFromValues(values map[string]any) {
	for name, value := range values {
		spec, ok := c.schema[name]
		if !ok {
			continue
		}
		c.fields[name] = spec.Type.Copy(c.fields[name], value)
	}
}

// copyFrom overwrites every schema field from src, passing each through its
// field type's Copy.
func (c *Component) copyFrom(src *Component) {
	for name, spec := range c.schema {
		c.fields[name] = spec.Type.Copy(c.fields[name], src.fields[name])
	}
}

// clone returns a new, independent Component of the same type with every
// field passed through its field type's Clone. The clone has no pool
// back-reference; it is a detached snapshot.
func (c *Component) clone() *Component {
	out := &Component{
		typeID: c.typeID,
		schema: c.schema,
		fields: make(map[string]any, len(c.schema)),
	}
	for name, spec := range c.schema {
		out.fields[name] = spec.Type.Clone(c.fields[name])
	}
	return out
}

// Equal reports whether c and other have the same type and field values,
// comparing via Go's built-in equality (suitable for Number/Boolean/String/
// Ref fields). Uncomparable values such as the slices of Array fields, or
// maps and slices held in JSON fields, always compare unequal, so two
// components with such a field are never Equal.
func (c *Component) Equal(other *Component) bool {
	if other == nil || c.typeID != other.typeID {
		return false
	}
	if len(c.fields) != len(other.fields) {
		return false
	}
	for name, v := range c.fields {
		ov, ok := other.fields[name]
		if !ok {
			return false
		}
		if !shallowEqual(v, ov) {
			return false
		}
	}
	return true
}

func shallowEqual(a, b any) bool {
	defer func() { recover() }()
	return a == b
}
