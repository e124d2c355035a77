package listquery

import (
	"sort"
	"strings"
)

// Builder is the backend a Predicate renders itself into. Conditions added
// directly to a Builder are conjoined; conditions added inside Any are
// disjoined; conditions added inside Related constrain the related row.
type Builder interface {
	In(column string, values []string)
	Contains(column, term string)
	Related(rel Relation, fn func(Builder))
	Any(fn func(Builder))
	OrderBy(o Order)
}

type operator int

const (
	opIn operator = iota
	opContains
)

type condition struct {
	op     operator
	column string
	values []string
}

func (c condition) apply(b Builder) {
	switch c.op {
	case opIn:
		b.In(c.column, c.values)
	case opContains:
		b.Contains(c.column, c.values[0])
	}
}

// term is a conjunction of conditions, optionally scoped to a relation.
type term struct {
	rel   *Relation
	conds []condition
}

func (t term) apply(b Builder) {
	if t.rel == nil {
		for _, c := range t.conds {
			c.apply(b)
		}
		return
	}
	b.Related(*t.rel, func(rb Builder) {
		for _, c := range t.conds {
			c.apply(rb)
		}
	})
}

// clause is either a single term or, when or is set, a disjunction of terms.
type clause struct {
	or    bool
	terms []term
}

// Predicate restricts which rows a list matches. The zero value matches
// every row. Clauses are conjoined; the search clause is an internal
// disjunction.
type Predicate struct {
	clauses []clause
}

// IsEmpty reports whether p places no restriction on rows.
func (p Predicate) IsEmpty() bool { return len(p.clauses) == 0 }

// And returns the conjunction of p and other. Neither operand is modified.
func (p Predicate) And(other Predicate) Predicate {
	out := make([]clause, 0, len(p.clauses)+len(other.clauses))
	out = append(out, p.clauses...)
	out = append(out, other.clauses...)
	return Predicate{clauses: out}
}

// Apply renders p into b.
func (p Predicate) Apply(b Builder) {
	for _, cl := range p.clauses {
		if !cl.or {
			cl.terms[0].apply(b)
			continue
		}
		terms := cl.terms
		b.Any(func(ob Builder) {
			for _, t := range terms {
				t.apply(ob)
			}
		})
	}
}

// Where builds the predicate for normalized filters and a free-text search
// term. Filter fields must be filterable; how unknown fields are treated
// depends on the schema policy.
func (s *Schema) Where(filters Filters, search string) (Predicate, error) {
	return s.where(filters.Normalize(), search, false)
}

func (s *Schema) where(filters Filters, search string, scoping bool) (Predicate, error) {
	var p Predicate

	if needle := strings.TrimSpace(search); needle != "" && len(s.searchable) > 0 {
		cl := clause{or: true}
		for _, f := range s.searchable {
			cl.terms = append(cl.terms, term{
				rel:   f.rel,
				conds: []condition{{op: opContains, column: f.Column, values: []string{needle}}},
			})
		}
		p.clauses = append(p.clauses, cl)
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	// Filters on the same relation constrain one related row together.
	related := map[string]*term{}
	var relOrder []string

	for _, name := range names {
		values := filters[name]
		if len(values) == 0 {
			continue
		}
		f, ok := s.fields[name]
		if !ok {
			if !scoping && s.def.Policy == Lenient {
				continue
			}
			return Predicate{}, &FieldError{Field: name, Reason: "not a field of " + s.def.Entity}
		}
		if !scoping && !f.Filter {
			if s.def.Policy == Lenient {
				continue
			}
			return Predicate{}, &FieldError{Field: name, Reason: "not filterable"}
		}

		c := condition{op: opIn, column: f.Column, values: append([]string(nil), values...)}
		if f.rel == nil {
			p.clauses = append(p.clauses, clause{terms: []term{{conds: []condition{c}}}})
			continue
		}
		t, ok := related[f.rel.Name]
		if !ok {
			t = &term{rel: f.rel}
			related[f.rel.Name] = t
			relOrder = append(relOrder, f.rel.Name)
		}
		t.conds = append(t.conds, c)
	}

	for _, name := range relOrder {
		p.clauses = append(p.clauses, clause{terms: []term{*related[name]}})
	}

	return p, nil
}
