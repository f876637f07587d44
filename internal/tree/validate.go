package tree

// Validate checks that every keyed array in v is well formed.
//
// An array that contains at least one record is treated as keyed: all of its
// elements must be records with a non-empty string key, and keys must be
// unique among siblings. Arrays of scalars (for example a list of parameter
// names) are left alone.
func Validate(v any) error {
	return validate(v, nil)
}

func validate(v any, at Path) error {
	switch n := v.(type) {
	case map[string]any:
		for k, child := range n {
			if err := validate(child, at.Join(k)); err != nil {
				return err
			}
		}
	case []any:
		if !hasRecord(n) {
			return nil
		}
		seen := make(map[string]struct{}, len(n))
		for _, elem := range n {
			if _, ok := elem.(map[string]any); !ok {
				return &ValidationError{Path: at, Err: ErrNotRecord}
			}
			key, ok := KeyOf(elem)
			if !ok {
				return &ValidationError{Path: at, Err: ErrMissingKey}
			}
			if _, dup := seen[key]; dup {
				return &ValidationError{Path: at, Key: key, Err: ErrDuplicateKey}
			}
			seen[key] = struct{}{}
			if err := validate(elem, at.Join(key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasRecord(arr []any) bool {
	for _, elem := range arr {
		if _, ok := elem.(map[string]any); ok {
			return true
		}
	}
	return false
}
