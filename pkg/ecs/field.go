package ecs

import "encoding/json"

// FieldType is the quad of {name, default, copy, clone} every component
// field is described by. Built-in kinds cover Number, Boolean, String,
// Array, Ref, and JSON; hosts may register additional kinds that implement
// the same contract (see NewFieldType).
//
// Copy(dest, src) writes src's value into dest's storage and returns the
// resulting value (it may replace dest's contents element-by-element, as
// for Array, or overwrite it wholesale, as for Number). clone(src) returns
// a new, independent value equal to src.
type FieldType struct {
	Name    string
	Default func() any
	Copy    func(dest, src any) any
	Clone   func(src any) any
}

// NewFieldType constructs a FieldType, rejecting definitions missing any of
// the four required members. This is the only supported way to add a field
// kind beyond the built-ins.
func NewFieldType(name string, def func() any, copyFn func(dest, src any) any, cloneFn func(src any) any) FieldType {
	if name == "" || def == nil || copyFn == nil || cloneFn == nil {
		raise(ErrInvalidFieldTypeDefinition, "field type %q is missing one of {name, default, copy, clone}", name)
	}
	return FieldType{Name: name, Default: def, Copy: copyFn, Clone: cloneFn}
}

// NumberType copies and clones by value; its default is 0.
var NumberType = FieldType{
	Name:    "number",
	Default: func() any { return float64(0) },
	Copy:    func(_, src any) any { return src },
	Clone:   func(src any) any { return src },
}

// BooleanType copies and clones by value; its default is false.
var BooleanType = FieldType{
	Name:    "boolean",
	Default: func() any { return false },
	Copy:    func(_, src any) any { return src },
	Clone:   func(src any) any { return src },
}

// StringType copies and clones by value; its default is "".
var StringType = FieldType{
	Name:    "string",
	Default: func() any { return "" },
	Copy:    func(_, src any) any { return src },
	Clone:   func(src any) any { return src },
}

// ArrayType copies by replacing dest's contents element-by-element and
// clones by taking a shallow copy of the slice; its default is an empty
// slice.
var ArrayType = FieldType{
	Name:    "array",
	Default: func() any { return []any{} },
	Copy: func(dest, src any) any {
		srcSlice, _ := src.([]any)
		destSlice, _ := dest.([]any)
		return append(destSlice[:0], srcSlice...)
	},
	Clone: func(src any) any {
		srcSlice, _ := src.([]any)
		out := make([]any, len(srcSlice))
		copy(out, srcSlice)
		return out
	},
}

// RefType copies and clones an opaque reference by identity; its default is
// nil (undefined).
var RefType = FieldType{
	Name:    "ref",
	Default: func() any { return nil },
	Copy:    func(_, src any) any { return src },
	Clone:   func(src any) any { return src },
}

// JSONType copies and clones via a deep structural round-trip through
// encoding/json; its default is nil. No domain dependency in the example
// corpus offers a general deep-structural-copy primitive for arbitrary
// any values (tidwall/gjson is a read-only path-query library, not a
// round-trip codec), so this single field kind falls back to the standard
// library per DESIGN.md.
var JSONType = FieldType{
	Name:    "json",
	Default: func() any { return nil },
	Copy:    func(_, src any) any { return jsonRoundTrip(src) },
	Clone:   func(src any) any { return jsonRoundTrip(src) },
}

func jsonRoundTrip(src any) any {
	if src == nil {
		return nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
