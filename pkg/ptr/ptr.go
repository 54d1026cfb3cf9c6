package ptr

// Ptr возвращает указатель на копию значения
func Ptr[T any](v T) *T {
	return &v
}

// Clone возвращает указатель на копию значения, на которое указывает p
// Для nil возвращает nil
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Deref возвращает значение по указателю или def, если указатель nil
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
