package utils

// ToString coerces a decoded JSON value to a string, returning "" for
// anything that is not a string.
func ToString(v any) string {
	s, _ := v.(string)
	return s
}

// FirstNonEmpty returns the first non-empty string in values.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
