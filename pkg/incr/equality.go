package incr

import "reflect"

// equalAny provides type-appropriate equality checking for node values.
// Uses == for common comparable kinds and reflect.DeepEqual for others.
// Equality is what gates version bumps, so a cheap comparison here is the
// difference between early cutoff and full re-evaluation downstream.
func equalAny(a, b any) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int8:
		bv, ok := b.(int8)
		return ok && av == bv
	case int16:
		bv, ok := b.(int16)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint8:
		bv, ok := b.(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := b.(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := b.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}

// wrapEquals adapts a typed equality function to the type-erased node
// layer. Values always carry the handle's concrete type, so the
// assertions cannot fail for handles created by this package.
func wrapEquals[T any](fn func(T, T) bool) func(any, any) bool {
	return func(a, b any) bool {
		return fn(a.(T), b.(T))
	}
}
