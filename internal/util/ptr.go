package util

// Ptr returns a pointer to the given value.
// The LSP protocol types use pointers for most optional fields, so this
// helper shows up wherever capabilities and diagnostics are assembled.
func Ptr[T any](v T) *T {
	return &v
}
