package listquery

// Shape maps every item through fn, preserving order.
func Shape[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

// ShapePage maps the items of p and keeps its total.
func ShapePage[T, R any](p *Page[T], fn func(T) R) *Page[R] {
	if p == nil {
		return nil
	}
	return &Page[R]{Items: Shape(p.Items, fn), Total: p.Total}
}
