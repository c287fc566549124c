// Package optional provides a value which may or may not be set.
package optional

// Optional holds a T which may be unset. The zero value is unset.
type Optional[T any] struct {
	value T
	set   bool
}

// Of returns an Optional holding v.
func Of[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Set stores v.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Get returns the stored value. It panics when nothing was set.
func (o Optional[T]) Get() T {
	if !o.set {
		panic("optional: Get called on an unset value")
	}
	return o.value
}

// GetOr returns the stored value or def when nothing was set.
func (o Optional[T]) GetOr(def T) T {
	if !o.set {
		return def
	}
	return o.value
}

// HasValue returns true when a value was set.
func (o Optional[T]) HasValue() bool {
	return o.set
}

// Reset unsets the value.
func (o *Optional[T]) Reset() {
	var zero T
	o.value = zero
	o.set = false
}
