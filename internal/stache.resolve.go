package internal

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// resolveName evaluates name against the scope stack. Names with leading dots address
// the scope len(stack)-dots exactly; names without dots search from the innermost scope
// outward until the first segment resolves, after which the rest of the path is strict.
func resolveName(stack []any, name Name) (any, error) {
	depth := len(stack)

	if name.LeadingDots > 0 {
		idx := depth - name.LeadingDots
		if idx < 0 {
			return nil, &lookupError{Message: ErrMsgTooManyDots}
		}
		return walkPath(stack[idx], name, 0)
	}

	for i := depth - 1; i >= 0; i-- {
		value, found, err := step(stack[i], name, 0)
		if err != nil {
			return nil, err
		}
		if found {
			return walkPath(value, name, 1)
		}
	}
	return nil, &lookupError{Message: ErrMsgMissingSegment, Segment: name.Segments[0]}
}

// walkPath applies segments[from:] to value
func walkPath(value any, name Name, from int) (any, error) {
	for i := from; i < len(name.Segments); i++ {
		next, found, err := step(value, name, i)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, &lookupError{Message: ErrMsgMissingSegment, Segment: name.Segments[i]}
		}
		value = next
	}
	return value, nil
}

// step applies segment i of name to value, invoking it when it is the called final segment
func step(value any, name Name, i int) (any, bool, error) {
	segment := name.Segments[i]
	if name.FunctionCall && i == len(name.Segments)-1 {
		return callMember(value, segment)
	}
	result, found := lookupMember(value, segment)
	return result, found, nil
}

// lookupMember performs field, key or index access on value
func lookupMember(value any, segment string) (any, bool) {
	if getter, ok := value.(FieldGetter); ok {
		return getter.Field(segment)
	}

	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Map:
		key, ok := mapKey(rv.Type().Key(), segment)
		if !ok {
			return nil, false
		}
		entry := rv.MapIndex(key)
		if !entry.IsValid() {
			return nil, false
		}
		return entry.Interface(), true
	case reflect.Struct:
		field, ok := structField(rv, segment)
		if !ok {
			return nil, false
		}
		return field.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, err := strconv.ParseUint(segment, 10, 32)
		if err != nil || int(idx) >= rv.Len() {
			return nil, false
		}
		return rv.Index(int(idx)).Interface(), true
	}
	return nil, false
}

// callMember invokes the zero-argument method or func value named segment
func callMember(value any, segment string) (any, bool, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil, false, nil
	}

	if rv.Kind() == reflect.Pointer && rv.IsNil() && hasValueMethod(rv.Type().Elem(), segment) {
		return nil, true, &lookupError{Message: ErrMsgNilReceiver, Segment: segment}
	}

	if method, ok := findMethod(rv, segment); ok {
		result, err := invoke(method, segment)
		return result, true, err
	}

	member, found := lookupMember(value, segment)
	if !found {
		return nil, false, nil
	}
	fn := reflect.ValueOf(member)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, true, &lookupError{Message: ErrMsgNotCallable, Segment: segment}
	}
	result, err := invoke(fn, segment)
	return result, true, err
}

// findMethod looks up a method by exact or exported name, including pointer-receiver methods
func findMethod(rv reflect.Value, segment string) (reflect.Value, bool) {
	candidates := []reflect.Value{rv}
	switch {
	case rv.Kind() == reflect.Pointer && !rv.IsNil():
		candidates = append(candidates, rv.Elem())
	case rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface:
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		candidates = append(candidates, ptr)
	}

	for _, candidate := range candidates {
		for _, methodName := range memberNames(segment) {
			if method := candidate.MethodByName(methodName); method.IsValid() {
				return method, true
			}
		}
	}
	return reflect.Value{}, false
}

// hasValueMethod reports whether t declares a value-receiver method named segment
func hasValueMethod(t reflect.Type, segment string) bool {
	for _, methodName := range memberNames(segment) {
		if _, ok := t.MethodByName(methodName); ok {
			return true
		}
	}
	return false
}

// invoke calls a zero-argument function returning a value and optionally an error.
// A panic inside the call is reported as a call failure.
func invoke(fn reflect.Value, segment string) (result any, err error) {
	fnType := fn.Type()
	valid := fnType.NumIn() == 0 &&
		(fnType.NumOut() == 1 || (fnType.NumOut() == 2 && fnType.Out(1) == errorType))
	if !valid {
		return nil, &lookupError{Message: ErrMsgNotCallable, Segment: segment}
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &lookupError{
				Message: ErrMsgCallFailed,
				Segment: segment,
				Cause:   fmt.Errorf("%v", r),
			}
		}
	}()

	out := fn.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, &lookupError{
			Message: ErrMsgCallFailed,
			Segment: segment,
			Cause:   out[1].Interface().(error),
		}
	}
	return out[0].Interface(), nil
}

// structField finds a field by positional index, json tag, exact name or exported name
func structField(rv reflect.Value, segment string) (reflect.Value, bool) {
	rt := rv.Type()

	if idx, err := strconv.ParseUint(segment, 10, 32); err == nil {
		if int(idx) >= rt.NumField() || !rt.Field(int(idx)).IsExported() {
			return reflect.Value{}, false
		}
		return rv.Field(int(idx)), true
	}

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(field.Tag.Get(StructTagJSON), ",")
		if tag == segment {
			return rv.Field(i), true
		}
	}

	for _, fieldName := range memberNames(segment) {
		field, ok := rt.FieldByName(fieldName)
		if ok && field.IsExported() {
			value, err := rv.FieldByIndexErr(field.Index)
			if err != nil {
				return reflect.Value{}, false
			}
			return value, true
		}
	}
	return reflect.Value{}, false
}

// mapKey converts segment into a key of the map's key type
func mapKey(keyType reflect.Type, segment string) (reflect.Value, bool) {
	switch keyType.Kind() {
	case reflect.String:
		return reflect.ValueOf(segment).Convert(keyType), true
	case reflect.Interface:
		if keyType.NumMethod() == 0 {
			return reflect.ValueOf(segment), true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(segment, 10, keyType.Bits())
		if err == nil {
			return reflect.ValueOf(n).Convert(keyType), true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(segment, 10, keyType.Bits())
		if err == nil {
			return reflect.ValueOf(n).Convert(keyType), true
		}
	}
	return reflect.Value{}, false
}

// indirect dereferences pointers and interfaces, reporting false on nil
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// memberNames returns segment and, when different, its exported form
func memberNames(segment string) []string {
	r, size := utf8.DecodeRuneInString(segment)
	if r == utf8.RuneError || unicode.IsUpper(r) || !unicode.IsLetter(r) {
		return []string{segment}
	}
	return []string{segment, string(unicode.ToUpper(r)) + segment[size:]}
}

// lookupError describes a failed name resolution step
type lookupError struct {
	Message string
	Segment string
	Cause   error
}

func (e *lookupError) Error() string {
	msg := e.Message
	if e.Segment != StringValueEmpty {
		msg += ": " + strconv.Quote(e.Segment)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *lookupError) Unwrap() error {
	return e.Cause
}

// asLookupError extracts a lookup error from err
func asLookupError(err error) (*lookupError, bool) {
	var le *lookupError
	ok := errors.As(err, &le)
	return le, ok
}

// Resolution error message constants
const (
	ErrMsgTooManyDots    = "too many leading dots"
	ErrMsgMissingSegment = "no such field"
	ErrMsgNotCallable    = "not callable"
	ErrMsgCallFailed     = "call failed"
	ErrMsgNilReceiver    = "method called on nil pointer"
	StructTagJSON        = "json"
)
