package tree

// Clone returns a deep copy of a document value.
// Records and arrays are copied; scalars are shared.
func Clone(v any) any {
	switch n := v.(type) {
	case map[string]any:
		return cloneRecord(n)
	case []any:
		return cloneArray(n)
	default:
		return v
	}
}

// CloneRecord returns a deep copy of a record.
func CloneRecord(rec map[string]any) map[string]any {
	return cloneRecord(rec)
}

func cloneRecord(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = Clone(v)
	}
	return dst
}

func cloneArray(src []any) []any {
	if src == nil {
		return nil
	}
	dst := make([]any, len(src))
	for i, v := range src {
		dst[i] = Clone(v)
	}
	return dst
}

// ShallowRecord copies the top level of a record.
func ShallowRecord(rec map[string]any) map[string]any {
	dst := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		dst[k] = v
	}
	return dst
}
