package orchestrator

func paramInt32(params map[byte]interface{}, key byte) (int32, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
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

func paramBool(params map[byte]interface{}, key byte) bool {
	v, ok := params[key]
	if !ok {
		return false
	}
	switch n := v.(type) {
	case bool:
		return n
	case int32:
		return n != 0
	case int16:
		return n != 0
	case byte:
		return n != 0
	}
	return false
}
