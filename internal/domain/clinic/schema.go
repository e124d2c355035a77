package clinic

import "github.com/medisys/hms/internal/platform/listquery"

func userRelation() listquery.Relation {
	return listquery.Relation{Name: "user", Table: "users", Alias: "u", LocalColumn: "user_id", ForeignColumn: "id"}
}

// PatientSchema whitelists the fields of the patient list.
var PatientSchema = listquery.MustSchema(listquery.SchemaDef{
	Entity: "patient",
	Table:  "patients",
	Alias:  "p",
	Key:    "id",
	Columns: "p.id, p.user_id, p.gender, p.blood_type, p.phone, p.birth_date, p.created_at, p.updated_at, " +
		"uj.name, uj.email, uj.active",
	Joins:     "JOIN users uj ON uj.id = p.user_id",
	Relations: []listquery.Relation{userRelation()},
	Fields: []listquery.Field{
		{Name: "id", Column: "id"},
		{Name: "gender", Column: "gender", Filter: true, Sort: true},
		{Name: "bloodType", Column: "blood_type", Filter: true},
		{Name: "phone", Column: "phone", Search: true},
		{Name: "birthDate", Column: "birth_date", Sort: true},
		{Name: "createdAt", Column: "created_at", Sort: true},
		{Name: "user.name", Column: "name", Relation: "user", Search: true, Sort: true},
		{Name: "user.email", Column: "email", Relation: "user", Search: true, Sort: true},
		{Name: "user.active", Column: "active", Relation: "user", Filter: true},
	},
	DefaultOrder: listquery.OrderDef{Field: "createdAt", Direction: listquery.Desc},
})

// DoctorSchema whitelists the fields of the doctor list.
var DoctorSchema = listquery.MustSchema(listquery.SchemaDef{
	Entity: "doctor",
	Table:  "doctors",
	Alias:  "d",
	Key:    "id",
	Columns: "d.id, d.user_id, d.hospital_id, d.specialty, d.created_at, d.updated_at, " +
		"uj.name, uj.email, uj.role",
	Joins:     "JOIN users uj ON uj.id = d.user_id",
	Relations: []listquery.Relation{userRelation()},
	Fields: []listquery.Field{
		{Name: "id", Column: "id"},
		{Name: "specialty", Column: "specialty", Filter: true, Search: true, Sort: true},
		{Name: "hospitalId", Column: "hospital_id", Filter: true},
		{Name: "createdAt", Column: "created_at", Sort: true},
		{Name: "user.name", Column: "name", Relation: "user", Search: true, Sort: true},
		{Name: "user.role", Column: "role", Relation: "user", Filter: true},
	},
	DefaultOrder: listquery.OrderDef{Field: "createdAt", Direction: listquery.Desc},
})
