// Package ptr has helpers for the optional fields of launch records,
// which are modelled as pointers.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Clone returns a pointer to a copy of *p, or nil when p is nil. The
// result never aliases p.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Value returns *p, or def when p is nil.
func Value[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
