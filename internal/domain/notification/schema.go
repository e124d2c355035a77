package notification

import "github.com/medisys/hms/internal/platform/listquery"

// Schema whitelists the fields a notification list may filter, search and
// sort on. The read filter takes a boolean literal.
var Schema = listquery.MustSchema(listquery.SchemaDef{
	Entity:  "notification",
	Table:   "notifications",
	Alias:   "n",
	Key:     "id",
	Columns: "n.id, n.user_id, n.type, n.title, n.message, n.read, n.created_at",
	Relations: []listquery.Relation{
		{Name: "user", Table: "users", Alias: "u", LocalColumn: "user_id", ForeignColumn: "id"},
	},
	Fields: []listquery.Field{
		{Name: "id", Column: "id"},
		{Name: "title", Column: "title", Search: true, Sort: true},
		{Name: "message", Column: "message", Search: true},
		{Name: "type", Column: "type", Filter: true, Sort: true},
		{Name: "read", Column: "read", Filter: true},
		{Name: "userId", Column: "user_id", Filter: true},
		{Name: "createdAt", Column: "created_at", Sort: true},
		{Name: "user.email", Column: "email", Relation: "user", Filter: true},
	},
	DefaultOrder: listquery.OrderDef{Field: "createdAt", Direction: listquery.Desc},
})
