package listquery

import "strings"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) valid() bool { return d == Asc || d == Desc }

// Order is a resolved ordering directive. Relation is set when the sort
// field lives on a related entity.
type Order struct {
	Field     string
	Column    string
	Relation  *Relation
	Direction Direction
}

func orderFor(f *resolvedField, dir Direction) Order {
	return Order{Field: f.Name, Column: f.Column, Relation: f.rel, Direction: dir}
}

// ResolveSort parses "field.direction". The trailing segment is taken as
// the direction only when it is "asc" or "desc"; otherwise the whole string
// names the field and the direction is ascending. An empty sort yields the
// schema default.
func (s *Schema) ResolveSort(sortParam string) (Order, error) {
	sortParam = strings.TrimSpace(sortParam)
	if sortParam == "" {
		return s.defaultOrder, nil
	}

	name, dir := splitSort(sortParam)
	f, ok := s.fields[name]
	if !ok || !f.Sort {
		if s.def.Policy == Lenient {
			return s.defaultOrder, nil
		}
		reason := "not sortable"
		if !ok {
			reason = "not a field of " + s.def.Entity
		}
		return Order{}, &FieldError{Field: name, Reason: reason}
	}
	return orderFor(f, dir), nil
}

func splitSort(s string) (string, Direction) {
	if i := strings.LastIndex(s, "."); i > 0 {
		d := Direction(strings.ToLower(s[i+1:]))
		if d.valid() {
			return s[:i], d
		}
	}
	return s, Asc
}
