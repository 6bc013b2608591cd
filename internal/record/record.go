// Package record models the build metadata record: an ordered set of
// fields whose values are either present strings or explicitly absent.
package record

// Value is the outcome of a single metadata lookup. A failed or skipped
// lookup yields an absent Value rather than an error; present values
// never carry a trailing newline.
type Value struct {
	Str string
	OK  bool
}

// Present wraps a resolved lookup value.
func Present(s string) Value {
	return Value{Str: s, OK: true}
}

// Absent marks a lookup that failed or was skipped.
func Absent() Value {
	return Value{}
}

// Field is one key/value pair of the build record.
type Field struct {
	Key   string
	Value Value
}

// Record is the ordered build metadata mapping. Suppressed fields are
// omitted entirely; fields whose lookup failed keep their key with an
// absent value, because generated-file consumers may depend on the key
// being declared.
type Record struct {
	Fields []Field
}

func (r *Record) add(key string, v Value) {
	r.Fields = append(r.Fields, Field{Key: key, Value: v})
}

// Lookup returns the value for key and whether the key is part of the
// record at all.
func (r *Record) Lookup(key string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the field keys in serialization order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}
