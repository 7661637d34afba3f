package utils

// Ptr returns a pointer to v, for building optional values in place.
func Ptr[T any](v T) *T {
	return &v
}
