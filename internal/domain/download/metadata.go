package download

// Metadata is the open-ended key/value bag attached to a download record.
// Values mirror decoded JSON: strings, numbers, bools, lists and maps.
type Metadata map[string]any

// Merge combines extra into m without replacing unrelated keys. Keys whose
// new value is nil are removed rather than stored. Neither receiver nor
// argument is mutated.
func (m Metadata) Merge(extra Metadata) Metadata {
	out := make(Metadata, len(m)+len(extra))
	for key, value := range m {
		out[key] = value
	}
	for key, value := range extra {
		if value == nil {
			delete(out, key)
			continue
		}
		out[key] = value
	}
	return out
}

// Clone deep-copies the bag.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for key, value := range m {
		out[key] = cloneValue(value)
	}
	return out
}

// String returns the value under key when it is a non-empty string.
func (m Metadata) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case Metadata:
		out := make(Metadata, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
