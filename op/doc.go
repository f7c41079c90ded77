// Package op provides high-level operations on PlaygroundDB projects.
//
// The op package sits between the SQL engine (db/) and the project store
// (ps/): it loads a project's tables, runs a script through the engine and
// saves the outcome as one commit.
//
// # ProjectOp
//
//	project, err := op.GetProject("demo", persistence)
//	result, txn, err := project.Execute("INSERT INTO usuarios (nombre) VALUES ('Ana')", identity)
//	project.Deploy("v1", identity, "")           // Freeze the current state
//	project.Restore("v1", identity)              // Bring it back as a new commit
//
// # TableOp
//
// TableOp reads one table of a loaded project:
//
//	table, err := project.Table("usuarios")
//	row, exists := table.Get(1)                  // Lookup by primary key
//	for row := range table.Scan() {
//	    // process all rows
//	}
//
// # Architecture
//
// The layering is:
//
//	SQL Parser (sql/)
//	     ↓
//	SQL Engine (db/)
//	     ↓
//	Operations (op/)     ← This package
//	     ↓
//	Project store (ps/)
//	     ↓
//	Git Storage (go-git)
package op
