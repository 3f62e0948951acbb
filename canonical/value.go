package canonical

// ValueKind discriminates the members of the canonical value tree.
type ValueKind int

const (
	// KindNull is the JSON null literal.
	KindNull ValueKind = iota
	// KindBool is a JSON boolean.
	KindBool
	// KindString is a UTF-8 string.
	KindString
	// KindNumber is a JSON number, kept as its exact source lexeme so
	// canonicalization never reformats it.
	KindNumber
	// KindArray is an ordered sequence; order is always preserved.
	KindArray
	// KindObject is a string-keyed mapping; keys are unique and are
	// serialized in ascending Unicode code point order.
	KindObject
)

// Field is one object member. Insertion order is retained on the Value so
// parsing round-trips, but canonical serialization always sorts by key.
type Field struct {
	Key   string
	Value Value
}

// Value is one node of the canonical value tree.
//
// Values are plain data: copying a Value copies the node, and the shared
// backing slices are never mutated by this package after construction.
type Value struct {
	kind   ValueKind
	str    string // KindString: decoded text; KindNumber: source lexeme
	boolv  bool
	items  []Value
	fields []Field
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolv: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a number value carrying the exact lexeme. The lexeme is
// validated against canonical rules during canonicalization, not here.
func Number(lexeme string) Value { return Value{kind: KindNumber, str: lexeme} }

// Array returns an array value preserving item order.
func Array(items ...Value) Value { return Value{kind: KindArray, items: items} }

// Object returns an object value from fields in insertion order.
// Duplicate keys are not checked here; canonicalization rejects them.
func Object(fields ...Field) Value { return Value{kind: KindObject, fields: fields} }

// F constructs one object field.
func F(key string, v Value) Field { return Field{Key: key, Value: v} }

// Kind reports the node kind.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string content for KindString, or the lexeme for KindNumber.
func (v Value) Str() string { return v.str }

// BoolValue returns the boolean content for KindBool.
func (v Value) BoolValue() bool { return v.boolv }

// Items returns the array items for KindArray.
func (v Value) Items() []Value { return v.items }

// Fields returns the object members for KindObject in insertion order.
func (v Value) Fields() []Field { return v.fields }

// IsObject reports whether the value is an object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// Lookup returns the value for key on an object value.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// StringField returns the string content of a string-valued member.
func (v Value) StringField(key string) (string, bool) {
	child, ok := v.Lookup(key)
	if !ok || child.kind != KindString {
		return "", false
	}
	return child.str, true
}

// WithoutField returns a copy of an object value with the named member
// removed. Non-object values are returned unchanged. The receiver is never
// mutated; event identity computation depends on that.
func (v Value) WithoutField(key string) Value {
	if v.kind != KindObject {
		return v
	}
	fields := make([]Field, 0, len(v.fields))
	for _, f := range v.fields {
		if f.Key == key {
			continue
		}
		fields = append(fields, f)
	}
	return Value{kind: KindObject, fields: fields}
}

// WithField returns a copy of an object value with the named member set,
// replacing any existing member of the same key.
func (v Value) WithField(key string, child Value) Value {
	if v.kind != KindObject {
		return v
	}
	fields := make([]Field, 0, len(v.fields)+1)
	replaced := false
	for _, f := range v.fields {
		if f.Key == key {
			fields = append(fields, Field{Key: key, Value: child})
			replaced = true
			continue
		}
		fields = append(fields, f)
	}
	if !replaced {
		fields = append(fields, Field{Key: key, Value: child})
	}
	return Value{kind: KindObject, fields: fields}
}
