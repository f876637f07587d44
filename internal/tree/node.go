package tree

// KeyField is the record field that carries element identity in a keyed array.
const KeyField = "key"

// Kind is the shape of a node.
type Kind int

const (
	// KindAbsent is a missing node.
	KindAbsent Kind = iota

	// KindScalar is any leaf value, including an explicit nil field.
	KindScalar

	// KindRecord is a map[string]any.
	KindRecord

	// KindArray is a []any.
	KindArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// KindOf returns the shape of v. A nil interface is reported as absent.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindAbsent
	case map[string]any:
		return KindRecord
	case []any:
		return KindArray
	default:
		return KindScalar
	}
}

// KeyOf returns the key of a keyed-array element.
func KeyOf(v any) (string, bool) {
	rec, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	key, ok := rec[KeyField].(string)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// IndexOf returns the position of the element keyed key, or -1.
func IndexOf(arr []any, key string) int {
	for i, elem := range arr {
		if k, ok := KeyOf(elem); ok && k == key {
			return i
		}
	}
	return -1
}

// Keys returns the keys of arr in order. Elements without a key are skipped.
func Keys(arr []any) []string {
	keys := make([]string, 0, len(arr))
	for _, elem := range arr {
		if k, ok := KeyOf(elem); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
