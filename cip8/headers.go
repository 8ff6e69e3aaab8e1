package cip8

// HeaderValue looks up label in a decoded CBOR map.
//
// The concrete map type depends on how the map was decoded: generic decoding
// yields map[any]any with uint64 keys for non-negative integers and int64 keys
// for negative ones, while typed callers may hold map[string]any or
// map[int64]any. Integer labels match regardless of their Go integer type.
func HeaderValue(headers any, label any) (any, bool) {
	switch h := headers.(type) {
	case map[any]any:
		if v, ok := h[label]; ok {
			return v, true
		}
		n, ok := toInt64(label)
		if !ok {
			return nil, false
		}
		for k, v := range h {
			if kn, ok := toInt64(k); ok && kn == n {
				return v, true
			}
		}
	case map[string]any:
		if s, ok := label.(string); ok {
			v, ok := h[s]
			return v, ok
		}
	case map[int64]any:
		if n, ok := toInt64(label); ok {
			v, ok := h[n]
			return v, ok
		}
	case map[int]any:
		if n, ok := toInt64(label); ok {
			v, ok := h[int(n)]
			return v, ok
		}
	}
	return nil, false
}

// intValue reads an integer-valued header
func intValue(headers any, label any) (int64, bool) {
	v, ok := HeaderValue(headers, label)
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > 1<<63-1 {
			return 0, false
		}
		return int64(n), true
	case uint:
		if uint64(n) > 1<<63-1 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
