package internal

import (
	"fmt"
	"iter"
	"reflect"
	"strconv"
)

// Truthy lets a value decide whether conditional sections render.
type Truthy interface {
	Truthy() bool
}

// NegativeIterable lets a value decide what a negative iteration yields.
// It returns the single value to push as scope and true when the value is absent
// (empty optional, failed result), or false when it is present.
type NegativeIterable interface {
	NegativeIter() (any, bool)
}

// Iterable lets a value supply the elements of an iteration section.
type Iterable interface {
	Iter() iter.Seq[any]
}

// Displayer lets a value supply its interpolation text.
type Displayer interface {
	Display() string
}

// FieldGetter lets a value resolve path segments itself.
type FieldGetter interface {
	Field(name string) (any, bool)
}

// Unit is the value yielded by a negative iteration over nil.
type Unit struct{}

// IsTruthy reports whether v counts as present for conditional sections.
func IsTruthy(v any) (bool, error) {
	if v == nil || isNilPointer(v) {
		return false, nil
	}
	switch t := v.(type) {
	case Truthy:
		return t.Truthy(), nil
	case bool:
		return t, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return IsTruthy(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return rv.Len() > 0, nil
	}
	return false, newCapabilityError(CapabilityTruthiness, v)
}

// NegativeIter returns the value a negative iteration section renders once for,
// and false when the section renders nothing.
func NegativeIter(v any) (any, bool, error) {
	if v == nil || isNilPointer(v) {
		return Unit{}, true, nil
	}
	switch t := v.(type) {
	case NegativeIterable:
		value, absent := t.NegativeIter()
		return value, absent, nil
	case error:
		return t, true, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		switch t := rv.Elem().Interface().(type) {
		case NegativeIterable:
			value, absent := t.NegativeIter()
			return value, absent, nil
		case error:
			return t, true, nil
		}
		return nil, false, nil
	}
	return nil, false, newCapabilityError(CapabilityNegativeIteration, v)
}

// Iterate returns the elements an iteration section renders its body for.
func Iterate(v any) (iter.Seq[any], error) {
	if v == nil || isNilPointer(v) {
		return emptySeq, nil
	}
	switch t := v.(type) {
	case Iterable:
		return t.Iter(), nil
	case iter.Seq[any]:
		return t, nil
	case func(func(any) bool):
		return t, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return Iterate(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return func(yield func(any) bool) {
			for i := 0; i < rv.Len(); i++ {
				if !yield(rv.Index(i).Interface()) {
					return
				}
			}
		}, nil
	}
	return nil, newCapabilityError(CapabilityIteration, v)
}

// Display returns the interpolation text of v.
func Display(v any) (string, error) {
	if v == nil || isNilPointer(v) {
		return StringValueEmpty, newCapabilityError(CapabilityDisplay, v)
	}
	switch t := v.(type) {
	case Displayer:
		return t.Display(), nil
	case fmt.Stringer:
		return t.String(), nil
	case error:
		return t.Error(), nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return Display(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}
	return StringValueEmpty, newCapabilityError(CapabilityDisplay, v)
}

func emptySeq(func(any) bool) {}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// typeName describes v for error messages
func typeName(v any) string {
	if v == nil {
		return TypeNameNil
	}
	return fmt.Sprintf("%T", v)
}

// CapabilityError reports a value that cannot serve the capability a tag needs
type CapabilityError struct {
	Capability string
	Type       string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf(ErrFmtCapability, e.Type, e.Capability)
}

func newCapabilityError(capability string, v any) error {
	return &CapabilityError{
		Capability: capability,
		Type:       typeName(v),
	}
}

// Capability names used in error messages
const (
	CapabilityTruthiness        = "truthiness"
	CapabilityNegativeIteration = "negative iteration"
	CapabilityIteration         = "iteration"
	CapabilityDisplay           = "display"
	TypeNameNil                 = "nil"
	ErrFmtCapability            = "value of type %s does not support %s"
)
