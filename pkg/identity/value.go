package identity

import "github.com/albiondps/meter/pkg/protocol16"

// asInt32 widens any of the integer shapes DecodeValue can produce to
// int32, the entity-id width used throughout this package.
func asInt32(v protocol16.Value) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int16:
		return int32(n), true
	case int64:
		return int32(n), true
	case byte:
		return int32(n), true
	}
	return 0, false
}

func asString(v protocol16.Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asGUID(v protocol16.Value) (protocol16.GUID, bool) {
	g, ok := v.(protocol16.GUID)
	return g, ok
}

func paramInt32(params protocol16.ParamTable, key byte) (int32, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	return asInt32(v)
}

func paramString(params protocol16.ParamTable, key byte) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	return asString(v)
}

func paramGUID(params protocol16.ParamTable, key byte) (protocol16.GUID, bool) {
	v, ok := params[key]
	if !ok {
		return protocol16.GUID{}, false
	}
	return asGUID(v)
}

// paramValues normalizes any of the list-shaped wire values (a
// homogeneous *Array, or the native []int32/[]string DecodeValue
// produces for integer/string arrays) into a slice of Values. It
// returns nil for anything that isn't list-shaped, so callers can use
// the nil-ness to distinguish a list parameter from a scalar one.
func paramValues(v protocol16.Value) []protocol16.Value {
	switch x := v.(type) {
	case *protocol16.Array:
		return x.Items
	case []int32:
		out := make([]protocol16.Value, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out
	case []string:
		out := make([]protocol16.Value, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return nil
}
