package db

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/medisys/hms/internal/platform/listquery"
)

// CheckUUIDFilters rejects values of UUID-typed filter fields that
// PostgreSQL would fail to cast.
func CheckUUIDFilters(f listquery.Filters, fields ...string) error {
	for _, name := range fields {
		for _, v := range f[name] {
			if _, err := uuid.Parse(v); err != nil {
				return fmt.Errorf("%w: %s must be a UUID, got %q", listquery.ErrInvalidArgument, name, v)
			}
		}
	}
	return nil
}

// CheckBoolFilters rejects values of boolean filter fields that
// PostgreSQL would fail to cast.
func CheckBoolFilters(f listquery.Filters, fields ...string) error {
	for _, name := range fields {
		for _, v := range f[name] {
			if _, err := strconv.ParseBool(v); err != nil {
				return fmt.Errorf("%w: %s must be true or false, got %q", listquery.ErrInvalidArgument, name, v)
			}
		}
	}
	return nil
}

// Scope builds the restriction predicate for field = id on schema.
func Scope(schema *listquery.Schema, field string, id uuid.UUID) (listquery.Predicate, error) {
	return schema.Restrict(listquery.Filters{field: {id.String()}})
}
