package scene

// Value is the result of reading a property: either one value for the whole
// node (Uniform) or a marker that the property differs across text ranges
// (Mixed).
type Value struct {
	v     any
	mixed bool
}

// Uniform wraps a value that applies to the whole node.
func Uniform(v any) Value { return Value{v: v} }

// Mixed reports a property that varies across character ranges.
func Mixed() Value { return Value{mixed: true} }

// IsMixed reports whether the property varies across ranges.
func (v Value) IsMixed() bool { return v.mixed }

// Get returns the uniform value. ok is false for Mixed values.
func (v Value) Get() (any, bool) {
	if v.mixed {
		return nil, false
	}
	return v.v, true
}

func (v Value) String() string {
	if v.mixed {
		return "mixed"
	}
	return "uniform"
}
