// Package db provides the SQL execution engine for PlaygroundDB.
//
// The Engine type is the main entry point for running scripts. It splits a
// script into statements, parses each one, and applies it to an in-memory
// table list.
//
// # Engine Usage
//
//	engine := db.NewEngine(tables)
//	result := engine.Execute("INSERT INTO usuarios (nombre) VALUES ('Ana'); SELECT * FROM usuarios")
//	result.Display(os.Stdout)
//	tables = result.UpdatedTables
//
// # Results
//
// Execute never returns an error. Every statement gets a StatementResult:
// a failing statement carries its error (ErrSyntax, ErrSchema or ErrShape)
// and leaves the tables as they were, and the next statement still runs.
//
// ExecuteResult.UpdatedTables is the table list after the last statement.
// The tables passed to NewEngine are never modified.
//
// # Snapshots
//
// ExportSnapshot and ImportSnapshot move a table list to and from local
// files, HTTP(S) URLs and S3 objects.
package db
