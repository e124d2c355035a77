package hospital

import "github.com/medisys/hms/internal/platform/listquery"

var hospitalRelation = listquery.Relation{
	Name: "hospital", Table: "hospitals", Alias: "h",
	LocalColumn: "hospital_id", ForeignColumn: "id",
}

// HospitalSchema whitelists the fields of the hospital list.
var HospitalSchema = listquery.MustSchema(listquery.SchemaDef{
	Entity:  "hospital",
	Table:   "hospitals",
	Alias:   "h",
	Key:     "id",
	Columns: "h.id, h.name, h.city, h.address, h.phone, h.status, h.created_at, h.updated_at",
	Fields: []listquery.Field{
		{Name: "id", Column: "id"},
		{Name: "name", Column: "name", Search: true, Sort: true},
		{Name: "city", Column: "city", Filter: true, Search: true, Sort: true},
		{Name: "address", Column: "address", Search: true},
		{Name: "status", Column: "status", Filter: true, Sort: true},
		{Name: "createdAt", Column: "created_at", Sort: true},
	},
	DefaultOrder: listquery.OrderDef{Field: "createdAt", Direction: listquery.Desc},
})

// ServiceSchema whitelists the fields of the service list. The page query
// left-joins the owning hospital for its name.
var ServiceSchema = listquery.MustSchema(listquery.SchemaDef{
	Entity: "service",
	Table:  "services",
	Alias:  "s",
	Key:    "id",
	Columns: "s.id, s.hospital_id, COALESCE(hj.name, ''), " +
		"s.name, s.description, s.price_cents, s.created_at, s.updated_at",
	Joins:     "LEFT JOIN hospitals hj ON hj.id = s.hospital_id",
	Relations: []listquery.Relation{hospitalRelation},
	Fields: []listquery.Field{
		{Name: "id", Column: "id"},
		{Name: "name", Column: "name", Search: true, Sort: true},
		{Name: "description", Column: "description", Search: true},
		{Name: "hospitalId", Column: "hospital_id", Filter: true},
		{Name: "priceCents", Column: "price_cents", Sort: true},
		{Name: "createdAt", Column: "created_at", Sort: true},
		{Name: "hospital.name", Column: "name", Relation: "hospital", Search: true, Sort: true},
		{Name: "hospital.city", Column: "city", Relation: "hospital", Filter: true},
	},
	DefaultOrder: listquery.OrderDef{Field: "createdAt", Direction: listquery.Desc},
})
