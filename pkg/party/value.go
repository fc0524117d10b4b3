package party

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
