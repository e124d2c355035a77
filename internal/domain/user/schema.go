package user

import "github.com/medisys/hms/internal/platform/listquery"

// Schema whitelists the fields of the user list.
var Schema = listquery.MustSchema(listquery.SchemaDef{
	Entity: "user",
	Table:  "users",
	Alias:  "u",
	Key:    "id",
	Columns: "u.id, u.name, u.email, u.role, u.hospital_id, COALESCE(hj.name, ''), " +
		"u.active, u.created_at, u.updated_at",
	Joins: "LEFT JOIN hospitals hj ON hj.id = u.hospital_id",
	Relations: []listquery.Relation{
		{Name: "hospital", Table: "hospitals", Alias: "h", LocalColumn: "hospital_id", ForeignColumn: "id"},
	},
	Fields: []listquery.Field{
		{Name: "id", Column: "id"},
		{Name: "name", Column: "name", Search: true, Sort: true},
		{Name: "email", Column: "email", Search: true, Sort: true},
		{Name: "role", Column: "role", Filter: true, Sort: true},
		{Name: "hospitalId", Column: "hospital_id", Filter: true},
		{Name: "active", Column: "active", Filter: true},
		{Name: "createdAt", Column: "created_at", Sort: true},
		{Name: "hospital.name", Column: "name", Relation: "hospital", Search: true, Sort: true},
	},
	DefaultOrder: listquery.OrderDef{Field: "name", Direction: listquery.Asc},
})
