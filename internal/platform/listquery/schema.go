package listquery

import (
	"fmt"
	"strings"
)

// FieldPolicy decides what happens to filter and sort fields that the
// schema does not expose.
type FieldPolicy int

const (
	// Strict rejects unknown fields with an error wrapping ErrUnknownField.
	Strict FieldPolicy = iota
	// Lenient drops unknown filter fields and falls back to the default
	// order for unknown sort fields.
	Lenient
)

// ParsePolicy parses "strict" or "lenient".
func ParsePolicy(s string) (FieldPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("unknown field policy %q", s)
}

func (p FieldPolicy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// Relation describes a one-level relationship from the base table:
// related.ForeignColumn = base.LocalColumn.
type Relation struct {
	Name          string
	Table         string
	Alias         string
	LocalColumn   string
	ForeignColumn string
}

// Field exposes one column to list queries. Relation-scoped fields use a
// dotted name ("user.role") and name the relation they belong to.
type Field struct {
	Name     string
	Column   string
	Relation string
	Filter   bool
	Search   bool
	Sort     bool
}

// OrderDef names the default ordering of an entity.
type OrderDef struct {
	Field     string
	Direction Direction
}

// SchemaDef is the declarative description of an entity's list surface.
type SchemaDef struct {
	Entity       string
	Table        string
	Alias        string
	Key          string
	Columns      string
	Joins        string
	Relations    []Relation
	Fields       []Field
	DefaultOrder OrderDef
	Policy       FieldPolicy
}

type resolvedField struct {
	Field
	rel *Relation
}

// Schema is a validated, immutable whitelist of the fields an entity
// exposes for filtering, searching and sorting.
type Schema struct {
	def          SchemaDef
	relations    map[string]*Relation
	fields       map[string]*resolvedField
	searchable   []*resolvedField
	defaultOrder Order
}

// NewSchema validates def and builds a Schema.
func NewSchema(def SchemaDef) (*Schema, error) {
	if def.Table == "" || def.Alias == "" || def.Key == "" {
		return nil, fmt.Errorf("schema %q: table, alias and key are required", def.Entity)
	}
	if def.Columns == "" {
		return nil, fmt.Errorf("schema %q: columns are required", def.Entity)
	}

	s := &Schema{
		def:       def,
		relations: make(map[string]*Relation, len(def.Relations)),
		fields:    make(map[string]*resolvedField, len(def.Fields)),
	}

	for i := range def.Relations {
		rel := def.Relations[i]
		if rel.Name == "" || rel.Table == "" || rel.Alias == "" || rel.LocalColumn == "" || rel.ForeignColumn == "" {
			return nil, fmt.Errorf("schema %q: relation %q is incomplete", def.Entity, rel.Name)
		}
		if rel.Alias == def.Alias {
			return nil, fmt.Errorf("schema %q: relation %q reuses base alias %q", def.Entity, rel.Name, rel.Alias)
		}
		if _, dup := s.relations[rel.Name]; dup {
			return nil, fmt.Errorf("schema %q: duplicate relation %q", def.Entity, rel.Name)
		}
		s.relations[rel.Name] = &rel
	}

	for _, f := range def.Fields {
		if f.Name == "" || f.Column == "" {
			return nil, fmt.Errorf("schema %q: field name and column are required", def.Entity)
		}
		if _, dup := s.fields[f.Name]; dup {
			return nil, fmt.Errorf("schema %q: duplicate field %q", def.Entity, f.Name)
		}
		rf := &resolvedField{Field: f}
		if f.Relation != "" {
			rel, ok := s.relations[f.Relation]
			if !ok {
				return nil, fmt.Errorf("schema %q: field %q references unknown relation %q", def.Entity, f.Name, f.Relation)
			}
			if !strings.HasPrefix(f.Name, f.Relation+".") {
				return nil, fmt.Errorf("schema %q: field %q must be prefixed with %q", def.Entity, f.Name, f.Relation+".")
			}
			rf.rel = rel
		} else if strings.Contains(f.Name, ".") {
			return nil, fmt.Errorf("schema %q: dotted field %q has no relation", def.Entity, f.Name)
		}
		s.fields[f.Name] = rf
		if f.Search {
			s.searchable = append(s.searchable, rf)
		}
	}

	dir := def.DefaultOrder.Direction
	if dir == "" {
		dir = Desc
	}
	if !dir.valid() {
		return nil, fmt.Errorf("schema %q: invalid default direction %q", def.Entity, dir)
	}
	df, ok := s.fields[def.DefaultOrder.Field]
	if !ok || !df.Sort {
		return nil, fmt.Errorf("schema %q: default order field %q is not sortable", def.Entity, def.DefaultOrder.Field)
	}
	s.defaultOrder = orderFor(df, dir)

	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid definition.
func MustSchema(def SchemaDef) *Schema {
	s, err := NewSchema(def)
	if err != nil {
		panic(err)
	}
	return s
}

// Entity returns the entity name used in logs and metrics.
func (s *Schema) Entity() string { return s.def.Entity }

// Policy returns the schema's unknown-field policy.
func (s *Schema) Policy() FieldPolicy { return s.def.Policy }

// DefaultOrder returns the ordering used when no sort is requested.
func (s *Schema) DefaultOrder() Order { return s.defaultOrder }

// WithPolicy returns a copy of s using policy p.
func (s *Schema) WithPolicy(p FieldPolicy) *Schema {
	if s.def.Policy == p {
		return s
	}
	cp := *s
	cp.def.Policy = p
	return &cp
}

// Restrict builds an equality-in-set predicate over arbitrary schema
// fields, regardless of their Filter flag. It always rejects unknown
// fields; it is meant for server-side scoping, not caller input.
func (s *Schema) Restrict(scope Filters) (Predicate, error) {
	return s.where(scope.Normalize(), "", true)
}
