package utils

// Get walks a decoded JSON value along the given object keys and returns the
// value found there as T. A missing key, a non-object along the way, or a
// final value of another type all yield the zero value of T.
func Get[T any](v any, path ...string) T {
	var zero T
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return zero
		}
		if cur, ok = m[key]; !ok {
			return zero
		}
	}
	t, ok := cur.(T)
	if !ok {
		return zero
	}
	return t
}

// GetString is Get for strings, defaulting to "".
func GetString(v any, path ...string) string {
	return Get[string](v, path...)
}

// GetSlice is Get for JSON arrays. It never returns nil.
func GetSlice(v any, path ...string) []any {
	s := Get[[]any](v, path...)
	if s == nil {
		return []any{}
	}
	return s
}
