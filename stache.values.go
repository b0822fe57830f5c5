package stache

import (
	"iter"

	"github.com/itsatony/go-stache/internal"
)

// Capability interfaces. Values implementing them control how sections and
// interpolations treat them; everything else falls back to the built-in rules.
type (
	// Truthy decides whether {{#x?}} and {{^x?}} render.
	Truthy = internal.Truthy
	// NegativeIterable decides what {{^x}} yields.
	NegativeIterable = internal.NegativeIterable
	// Iterable supplies the elements of {{#x}}.
	Iterable = internal.Iterable
	// Displayer supplies the text of {{x}} and {{{x}}}.
	Displayer = internal.Displayer
	// FieldGetter resolves path segments.
	FieldGetter = internal.FieldGetter
	// Unit is the scope pushed by {{^x}} when x is nil.
	Unit = internal.Unit
)

// Optional holds a value that may be absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Truthy implements Truthy.
func (o Optional[T]) Truthy() bool {
	return o.ok
}

// NegativeIter implements NegativeIterable.
func (o Optional[T]) NegativeIter() (any, bool) {
	if o.ok {
		return nil, false
	}
	return Unit{}, true
}

// Iter implements Iterable. A present value is yielded once.
func (o Optional[T]) Iter() iter.Seq[any] {
	return func(yield func(any) bool) {
		if o.ok {
			yield(o.value)
		}
	}
}

// Result holds either a value or the error that prevented it.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err returns a failed Result. A nil err yields a successful Result holding the zero value.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Get returns the value and error.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Truthy implements Truthy.
func (r Result[T]) Truthy() bool {
	return r.err == nil
}

// NegativeIter implements NegativeIterable. A failure yields its error as scope.
func (r Result[T]) NegativeIter() (any, bool) {
	if r.err == nil {
		return nil, false
	}
	return r.err, true
}

// Iter implements Iterable. A successful value is yielded once.
func (r Result[T]) Iter() iter.Seq[any] {
	return func(yield func(any) bool) {
		if r.err == nil {
			yield(r.value)
		}
	}
}
