package ecs

import "testing"

func fooSchema() Schema {
	return Schema{
		"x":  {Type: NumberType, Default: float64(7)},
		"xs": {Type: ArrayType, Default: []any{float64(1), float64(2), float64(3)}},
	}
}

func TestComponentResetDoesNotAliasSchemaDefault(t *testing.T) {
	schema := fooSchema()
	pool := NewObjectPool(0, schema, 1, nil)

	c1 := pool.Acquire()
	if c1.Get("x") != float64(7) {
		t.Fatalf("expected x=7, got %v", c1.Get("x"))
	}
	xs1 := c1.Get("xs").([]any)
	xs1[0] = float64(99)

	c1.Set("x", float64(99))
	pool.Release(c1)

	c2 := pool.Acquire()
	if c2.Get("x") != float64(7) {
		t.Fatalf("expected fresh default x=7 after reuse, got %v", c2.Get("x"))
	}
	xs2 := c2.Get("xs").([]any)
	if xs2[0] != float64(1) {
		t.Fatalf("expected fresh default xs[0]=1 after reuse, got %v", xs2[0])
	}
}

func TestComponentCopyFromValues(t *testing.T) {
	schema := fooSchema()
	c := newComponent(0, schema, nil)
	c.copyFromValues(map[string]any{"x": float64(42)})
	if c.Get("x") != float64(42) {
		t.Fatalf("expected x=42, got %v", c.Get("x"))
	}
	xs := c.Get("xs").([]any)
	if xs[0] != float64(1) {
		t.Fatalf("expected xs untouched, got %v", xs)
	}
}

func TestComponentCloneIsDetachedSnapshot(t *testing.T) {
	schema := fooSchema()
	c := newComponent(0, schema, nil)
	c.Set("x", float64(5))

	clone := c.clone()
	clone.Set("x", float64(9))

	if c.Get("x") != float64(5) {
		t.Fatalf("expected original untouched by clone mutation, got %v", c.Get("x"))
	}
	if clone.pool != nil {
		t.Fatal("expected clone to have no pool back-reference")
	}
}

func TestComponentEqual(t *testing.T) {
	// Equal compares scalar fields directly; Array/JSON fields are never
	// equal across distinct instances since slices/maps are uncomparable
	// through a bare interface comparison, so this schema sticks to
	// Number to exercise the scalar path.
	schema := Schema{"x": {Type: NumberType, Default: float64(7)}}
	a := newComponent(0, schema, nil)
	b := newComponent(0, schema, nil)
	if !a.Equal(b) {
		t.Fatal("expected fresh components with identical defaults to be equal")
	}
	b.Set("x", float64(123))
	if a.Equal(b) {
		t.Fatal("expected components to differ after mutation")
	}
}

func TestComponentEqualArrayFieldNeverEqual(t *testing.T) {
	schema := fooSchema()
	a := newComponent(0, schema, nil)
	b := newComponent(0, schema, nil)
	if a.Equal(b) {
		t.Fatal("expected components with an Array field to never compare equal, even with identical contents")
	}
}

func TestSchemaValidateRejectsIncompleteFieldType(t *testing.T) {
	bad := Schema{"broken": {Type: FieldType{Name: "broken"}}}
	if bad.validate() {
		t.Fatal("expected schema with incomplete field type to fail validation")
	}
}
