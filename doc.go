// Package PlaygroundDB provides a small SQL engine for teaching and
// prototyping, with projects stored in Git.
//
// Each script runs against an in-memory copy of a project's tables. The
// statements run in order, each sees the effects of the ones before it, and
// a failing statement is reported without stopping the script. When a
// script changes something the new tables are saved as one commit.
//
// # Quick Start
//
//	persistence, _ := ps.NewMemoryPersistence()
//	playground := PlaygroundDB.Open(persistence)
//	identity := core.Identity{Name: "App", Email: "app@example.com"}
//
//	playground.Bootstrap("demo", identity)
//	result, _ := playground.Execute("demo", identity,
//	    "INSERT INTO usuarios (nombre) VALUES ('Ana'); SELECT * FROM usuarios ORDER BY id DESC")
//	result.Display(os.Stdout)
//
// # Supported SQL
//
// PlaygroundDB supports a small subset of SQL:
//   - CREATE TABLE with PRIMARY KEY, AUTOINCREMENT, NOT NULL, UNIQUE and REFERENCES
//   - DROP TABLE
//   - ALTER TABLE ADD [COLUMN] and RENAME COLUMN
//   - INSERT with one or more tuples
//   - SELECT with a single WHERE comparison, ORDER BY, LIMIT and OFFSET
//   - UPDATE and DELETE with a single WHERE comparison
//
// Comparisons follow loose equality, so id = 1 and id = '1' match the same
// rows. Constraints other than auto-increment are recorded, not enforced.
package PlaygroundDB
