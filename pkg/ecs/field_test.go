package ecs

import "testing"

func TestNewFieldTypeRejectsIncompleteDefinition(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for incomplete field type definition")
		}
	}()
	NewFieldType("broken", nil, nil, nil)
}

func TestArrayTypeCopyDoesNotAliasSource(t *testing.T) {
	src := []any{1, 2, 3}
	dest := ArrayType.Copy(nil, src)
	destSlice := dest.([]any)
	destSlice[0] = 99
	if src[0] != 1 {
		t.Fatalf("expected source untouched, got %v", src)
	}
}

func TestJSONTypeDeepCopy(t *testing.T) {
	src := map[string]any{"a": float64(1), "b": []any{"x", "y"}}
	out := JSONType.Clone(src)
	cloned, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", out)
	}
	clonedList := cloned["b"].([]any)
	clonedList[0] = "z"
	srcList := src["b"].([]any)
	if srcList[0] != "x" {
		t.Fatalf("expected source unaffected by mutation of clone, got %v", srcList)
	}
}

func TestRefTypeCopiesByIdentity(t *testing.T) {
	type handle struct{ id int }
	h := &handle{id: 7}
	out := RefType.Copy(nil, h)
	if out != h {
		t.Fatalf("expected identity copy, got %v", out)
	}
}
