package charred

// ArrayVisitor and ObjectVisitor are the small materialization interfaces
// from spec.md sections 4.6/4.7/4.9: "tagged behavior bundles" owned by a
// reader, used to build both a JSON array/object and a CSV row without the
// tokenizer committing to any particular Go container type.
type ArrayVisitor interface {
	NewArray() interface{}
	OnValue(acc interface{}, v interface{}) interface{}
	Finalize(acc interface{}) interface{}
}

// ObjectVisitor materializes JSON objects. Keys are always strings at this
// layer (spec.md section 4.8: "Keys in maps must be strings at this layer");
// KeyFn/ValueFn composition to something richer happens above it.
type ObjectVisitor interface {
	NewObject() interface{}
	OnKV(acc interface{}, key string, value interface{}) interface{}
	Finalize(acc interface{}) interface{}
}

// elided is the sentinel a ValueFn returns to omit a key-value pair
// entirely, rather than mapping it to an explicit nil.
type elided struct{}

// Elide is returned by a ValueFn to omit the current key-value pair from the
// materialized object.
var Elide interface{} = elided{}

// Keyword is the namespaced-identifier form a KeyFn may map string object
// keys to, the "construction-free variant" of the canonical string table
// mentioned in spec.md section 4.5 for callers who want symbols instead of
// strings as map keys.
type Keyword struct{ Name string }

func (k Keyword) String() string { return k.Name }

// ToKeyword is a ready-made KeyFn converting a canonicalized string key into
// a Keyword.
func ToKeyword(s string) interface{} { return Keyword{Name: s} }

// ImmutableArrayVisitor builds a fresh []interface{} per array, growing by
// append -- the "persistent sequence" row/array profile.
type ImmutableArrayVisitor struct{}

func (ImmutableArrayVisitor) NewArray() interface{} { return []interface{}(nil) }
func (ImmutableArrayVisitor) OnValue(acc, v interface{}) interface{} {
	return append(acc.([]interface{}), v)
}
func (ImmutableArrayVisitor) Finalize(acc interface{}) interface{} { return acc }

// MutableArrayVisitor reuses a single backing slice across arrays/rows,
// avoiding per-row allocation at the cost of the caller needing to copy
// anything it wants to retain past the next row.
type MutableArrayVisitor struct {
	scratch []interface{}
}

func (v *MutableArrayVisitor) NewArray() interface{} {
	v.scratch = v.scratch[:0]
	return v.scratch
}
func (v *MutableArrayVisitor) OnValue(acc, val interface{}) interface{} {
	v.scratch = append(acc.([]interface{}), val)
	return v.scratch
}
func (v *MutableArrayVisitor) Finalize(acc interface{}) interface{} { return acc }

// KeyFn canonicalizes a decoded JSON object key, e.g. into a Keyword.
type KeyFn func(string) interface{}

// ValueFn post-processes a decoded value before it is stored; returning
// Elide drops the key-value pair.
type ValueFn func(key string, value interface{}) interface{}

// ImmutableObjectVisitor builds a fresh map[interface{}]interface{} per
// object, optionally composing KeyFn/ValueFn.
type ImmutableObjectVisitor struct {
	KeyFn   KeyFn
	ValueFn ValueFn
}

func (v *ImmutableObjectVisitor) NewObject() interface{} {
	return map[interface{}]interface{}{}
}

func (v *ImmutableObjectVisitor) OnKV(acc interface{}, key string, value interface{}) interface{} {
	m := acc.(map[interface{}]interface{})
	if v.ValueFn != nil {
		value = v.ValueFn(key, value)
		if _, ok := value.(elided); ok {
			return m
		}
	}
	var k interface{} = key
	if v.KeyFn != nil {
		k = v.KeyFn(key)
	}
	m[k] = value
	return m
}

func (v *ImmutableObjectVisitor) Finalize(acc interface{}) interface{} { return acc }

// MutableObjectVisitor reuses a single backing map across objects.
type MutableObjectVisitor struct {
	KeyFn   KeyFn
	ValueFn ValueFn
	scratch map[interface{}]interface{}
}

func (v *MutableObjectVisitor) NewObject() interface{} {
	if v.scratch == nil {
		v.scratch = map[interface{}]interface{}{}
	} else {
		for k := range v.scratch {
			delete(v.scratch, k)
		}
	}
	return v.scratch
}

func (v *MutableObjectVisitor) OnKV(acc interface{}, key string, value interface{}) interface{} {
	m := acc.(map[interface{}]interface{})
	if v.ValueFn != nil {
		value = v.ValueFn(key, value)
		if _, ok := value.(elided); ok {
			return m
		}
	}
	var k interface{} = key
	if v.KeyFn != nil {
		k = v.KeyFn(key)
	}
	m[k] = value
	return m
}

func (v *MutableObjectVisitor) Finalize(acc interface{}) interface{} { return acc }
