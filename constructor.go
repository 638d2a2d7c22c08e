package crann

import (
	"fmt"
	"math"
	"reflect"

	"github.com/muir/reflectutils"
)

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// callableInfo holds metadata about a constructor, factory or bound method.
// Supported signatures:
//   - func(...) T
//   - func(...) (T, error)
//   - func(...) error
//   - func(...)
//
// Extra results between the first and a trailing error are ignored.
type callableInfo struct {
	fn           reflect.Value
	fnType       reflect.Type
	returnsError bool
	returnsValue bool
}

// parseCallable analyzes a function value and extracts metadata.
func parseCallable(fn any) (*callableInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("callable cannot be nil")
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %s", reflectutils.TypeName(fnType))
	}
	if fnValue.IsNil() {
		return nil, fmt.Errorf("function value is nil")
	}

	info := &callableInfo{fn: fnValue, fnType: fnType}

	numOut := fnType.NumOut()
	if numOut > 0 && fnType.Out(numOut-1) == errorInterface {
		info.returnsError = true
		numOut--
	}
	info.returnsValue = numOut > 0

	return info, nil
}

// invoke calls the function with positional arguments converted to its
// parameter types. target names the function in errors.
func (ci *callableInfo) invoke(id, target string, args []any) (result any, err error) {
	params, err := convertArgs(id, target, ci.fnType, args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &CallError{ID: id, Target: target, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	results := ci.fn.Call(params)

	if ci.returnsError {
		errValue := results[len(results)-1]
		if !errValue.IsNil() {
			return nil, &CallError{ID: id, Target: target, Cause: errValue.Interface().(error)}
		}
	}

	if !ci.returnsValue {
		return nil, nil
	}
	return results[0].Interface(), nil
}

// convertArgs converts realized arguments to the parameter types of fnType.
func convertArgs(id, target string, fnType reflect.Type, args []any) ([]reflect.Value, error) {
	numIn := fnType.NumIn()
	fixed := numIn
	if fnType.IsVariadic() {
		fixed = numIn - 1
		if len(args) < fixed {
			return nil, &ArgumentError{ID: id, Target: target, Position: -1,
				Reason: fmt.Sprintf("expected at least %d arguments, got %d", fixed, len(args))}
		}
	} else if len(args) != numIn {
		return nil, &ArgumentError{ID: id, Target: target, Position: -1,
			Reason: fmt.Sprintf("expected %d arguments, got %d", numIn, len(args))}
	}

	params := make([]reflect.Value, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if i < fixed {
			paramType = fnType.In(i)
		} else {
			paramType = fnType.In(numIn - 1).Elem()
		}
		value, err := convertValue(arg, paramType)
		if err != nil {
			return nil, &ArgumentError{ID: id, Target: target, Position: i, Reason: err.Error()}
		}
		params[i] = value
	}
	return params, nil
}

// convertValue converts a realized value to typ. Values coming from the
// configuration front end are untyped ([]any, map[string]any, float64), so
// numbers, slices and maps are converted element-wise.
func convertValue(v any, typ reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(typ), nil
	}

	value := reflect.ValueOf(v)
	valueType := value.Type()

	if valueType.AssignableTo(typ) {
		if valueType == typ {
			return value, nil
		}
		converted := reflect.New(typ).Elem()
		converted.Set(value)
		return converted, nil
	}

	switch {
	case isNumber(valueType.Kind()) && isNumber(typ.Kind()):
		if err := checkRange(value, typ); err != nil {
			return reflect.Value{}, err
		}
		return value.Convert(typ), nil

	case valueType.Kind() == typ.Kind() && (typ.Kind() == reflect.String || typ.Kind() == reflect.Bool):
		return value.Convert(typ), nil

	case valueType.Kind() == reflect.Slice && typ.Kind() == reflect.Slice:
		out := reflect.MakeSlice(typ, value.Len(), value.Len())
		for i := 0; i < value.Len(); i++ {
			item, err := convertValue(value.Index(i).Interface(), typ.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(item)
		}
		return out, nil

	case valueType.Kind() == reflect.Map && typ.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(typ, value.Len())
		iter := value.MapRange()
		for iter.Next() {
			key, err := convertValue(iter.Key().Interface(), typ.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
			}
			item, err := convertValue(iter.Value().Interface(), typ.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
			}
			out.SetMapIndex(key, item)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", reflectutils.TypeName(valueType), reflectutils.TypeName(typ))
}

// checkRange rejects numbers that typ can't hold: out-of-range integers,
// negative values for unsigned types, non-integral floats for integer types
// and floats beyond the range of a narrower float type.
func checkRange(value reflect.Value, typ reflect.Type) error {
	target := reflect.New(typ).Elem()
	overflow := func() error {
		return fmt.Errorf("value %v overflows %s", value.Interface(), reflectutils.TypeName(typ))
	}

	switch {
	case isFloat(value.Kind()):
		f := value.Float()
		if isFloat(typ.Kind()) {
			if target.OverflowFloat(f) {
				return overflow()
			}
			return nil
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("cannot use non-integral %v as %s", f, reflectutils.TypeName(typ))
		}
		limit := math.Ldexp(1, typ.Bits())
		if isSigned(typ.Kind()) {
			limit /= 2
			if f < -limit || f >= limit {
				return overflow()
			}
		} else if f < 0 || f >= limit {
			return overflow()
		}

	case isSigned(value.Kind()):
		i := value.Int()
		switch {
		case isSigned(typ.Kind()):
			if target.OverflowInt(i) {
				return overflow()
			}
		case isInteger(typ.Kind()):
			if i < 0 || target.OverflowUint(uint64(i)) {
				return overflow()
			}
		}

	default:
		u := value.Uint()
		switch {
		case isSigned(typ.Kind()):
			if u > math.MaxInt64 || target.OverflowInt(int64(u)) {
				return overflow()
			}
		case isInteger(typ.Kind()):
			if target.OverflowUint(u) {
				return overflow()
			}
		}
	}
	return nil
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumber(k reflect.Kind) bool {
	return isInteger(k) || isFloat(k)
}

// constructorInfo describes how a class target builds an instance.
type constructorInfo struct {
	name       string
	callable   *callableInfo
	structType reflect.Type
}

// parseConstructor analyzes a class target. A class is either a constructor
// function returning an instance, a reflect.Type of a struct, or a pointer to
// a struct used as a prototype.
func parseConstructor(name string, class any) (*constructorInfo, error) {
	if t, ok := class.(reflect.Type); ok {
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("type %s is not a struct", reflectutils.TypeName(t))
		}
		return &constructorInfo{name: name, structType: t}, nil
	}

	value := reflect.ValueOf(class)
	switch {
	case !value.IsValid():
		return nil, fmt.Errorf("class is nil")
	case value.Kind() == reflect.Func:
		callable, err := parseCallable(class)
		if err != nil {
			return nil, err
		}
		if !callable.returnsValue {
			return nil, fmt.Errorf("constructor %s returns no instance", reflectutils.TypeName(value.Type()))
		}
		return &constructorInfo{name: name, callable: callable}, nil
	case value.Kind() == reflect.Ptr && value.Type().Elem().Kind() == reflect.Struct:
		return &constructorInfo{name: name, structType: value.Type().Elem()}, nil
	}

	return nil, fmt.Errorf("%s is not constructible", reflectutils.TypeName(value.Type()))
}

// construct builds a new instance from positional arguments.
func (ci *constructorInfo) construct(id string, args []any) (any, error) {
	if ci.callable != nil {
		return ci.callable.invoke(id, ci.name, args)
	}

	fields := members.exportedFields(ci.structType)
	if len(args) > len(fields) {
		return nil, &ArgumentError{ID: id, Target: ci.name, Position: -1,
			Reason: fmt.Sprintf("%s has %d exported fields, got %d arguments", reflectutils.TypeName(ci.structType), len(fields), len(args))}
	}

	instance := reflect.New(ci.structType)
	for i, arg := range args {
		value, err := convertValue(arg, fields[i].Type)
		if err != nil {
			return nil, &ArgumentError{ID: id, Target: ci.name, Position: i, Reason: fmt.Sprintf("field %s: %v", fields[i].Name, err)}
		}
		instance.Elem().FieldByIndex(fields[i].Index).Set(value)
	}
	return instance.Interface(), nil
}
