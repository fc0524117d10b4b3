package combat

import "github.com/albiondps/meter/pkg/protocol16"

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

func asFloat64(v protocol16.Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func paramInt32(params protocol16.ParamTable, key byte) (int32, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	return asInt32(v)
}

func paramFloat64(params protocol16.ParamTable, key byte) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	return asFloat64(v)
}

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
	}
	return nil
}

func int32Slice(v protocol16.Value) []int32 {
	values := paramValues(v)
	out := make([]int32, 0, len(values))
	for _, item := range values {
		if n, ok := asInt32(item); ok {
			out = append(out, n)
		}
	}
	return out
}

func float64Slice(v protocol16.Value) []float64 {
	values := paramValues(v)
	out := make([]float64, 0, len(values))
	for _, item := range values {
		if n, ok := asFloat64(item); ok {
			out = append(out, n)
		}
	}
	return out
}
