// Package core provides the table model shared by every PlaygroundDB package.
//
// A Table holds its column definitions and its rows. Rows are plain maps from
// column name to value, where a value is nil, float64, bool or string:
//
//	table := core.Table{
//	    ID:   core.NewTableID(),
//	    Name: "usuarios",
//	    Columns: []core.Column{
//	        {Name: "id", Type: "INT", IsPrimary: true, AutoIncrement: true},
//	        {Name: "nombre", Type: "TEXT"},
//	    },
//	    Rows: []core.Row{{"id": 1.0, "nombre": "Lucas Roman"}},
//	}
//
// # Values
//
// Comparisons follow the loose rules of the playground runtime. LooseEquals
// treats 1 and "1" as equal and null as equal to an absent key (Undefined).
// Compare orders two strings lexically and everything else numerically.
//
// # Identity
//
// Identity identifies the author of a commit in the project store:
//
//	identity := core.Identity{Name: "Ana", Email: "ana@example.com"}
package core
