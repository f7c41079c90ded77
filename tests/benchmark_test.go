package tests

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/nickyhof/PlaygroundDB"
	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/db"
	"github.com/nickyhof/PlaygroundDB/dbml"
	"github.com/nickyhof/PlaygroundDB/ps"
	"github.com/nickyhof/PlaygroundDB/sql"
)

var benchIdentity = core.Identity{Name: "benchmark", Email: "bench@test.com"}

// insertScript builds one INSERT with n generated usuarios.
func insertScript(n int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO usuarios (id, nombre, edad, ciudad) VALUES ")
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "(%d, 'Usuario%d', %d, 'Ciudad%d')", i, i, 20+i%50, i%10)
	}
	return sb.String()
}

// setupBenchmarkTables returns a usuarios table with 1000 rows
func setupBenchmarkTables(b *testing.B) []core.Table {
	b.Helper()

	result := db.NewEngine(nil).Execute(
		"CREATE TABLE usuarios (id INT PRIMARY KEY, nombre TEXT, edad INT, ciudad TEXT);" + insertScript(1000))
	if result.Failures() > 0 {
		b.Fatalf("Setup failed: %+v", result.Results)
	}
	return result.UpdatedTables
}

func runScript(b *testing.B, tables []core.Table, script string) {
	b.Helper()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result := db.NewEngine(tables).Execute(script)
		if result.Failures() > 0 {
			b.Fatalf("Execute error: %s", result.Results[0].Error)
		}
	}
}

// BenchmarkSQLParsing benchmarks SQL parsing performance
func BenchmarkSQLParsing(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"SimpleSelect", "SELECT * FROM usuarios"},
		{"SelectWithWhere", "SELECT * FROM usuarios WHERE edad > 30"},
		{"SelectComplex", "SELECT id, nombre FROM usuarios WHERE ciudad = 'Ciudad5' ORDER BY nombre ASC LIMIT 10 OFFSET 5"},
		{"Insert", "INSERT INTO usuarios (id, nombre, edad, ciudad) VALUES (1, 'Test', 25, 'NYC')"},
		{"Update", "UPDATE usuarios SET edad = 30 WHERE id = 1"},
		{"Delete", "DELETE FROM usuarios WHERE id = 1"},
		{"CreateTable", "CREATE TABLE pedidos (id INT PRIMARY KEY AUTOINCREMENT, usuario_id INT REFERENCES usuarios(id), total DECIMAL(10,2) NOT NULL)"},
		{"AlterTable", "ALTER TABLE usuarios ADD COLUMN email VARCHAR(255) UNIQUE"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := sql.NewParser(q.query).Parse(); err != nil {
					b.Fatalf("Parse error: %v", err)
				}
			}
		})
	}
}

// BenchmarkLexer benchmarks tokenizing a long statement
func BenchmarkLexer(b *testing.B) {
	query := insertScript(100)
	b.SetBytes(int64(len(query)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		lexer := sql.NewLexer(query)
		for lexer.NextToken().Type != sql.EOF {
		}
	}
}

// BenchmarkSplit benchmarks splitting a script into statements
func BenchmarkSplit(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "-- paso %d\nUPDATE usuarios SET nombre = 'a;b' WHERE id = %d;\n", i, i)
	}
	script := sb.String()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if len(sql.Split(sql.StripComments(script))) != 200 {
			b.Fatal("unexpected statement count")
		}
	}
}

func BenchmarkSelectAll(b *testing.B) {
	runScript(b, setupBenchmarkTables(b), "SELECT * FROM usuarios")
}

func BenchmarkSelectWithWhere(b *testing.B) {
	runScript(b, setupBenchmarkTables(b), "SELECT * FROM usuarios WHERE edad > 30")
}

func BenchmarkSelectWithOrderBy(b *testing.B) {
	runScript(b, setupBenchmarkTables(b), "SELECT * FROM usuarios ORDER BY edad DESC")
}

func BenchmarkSelectWithLimit(b *testing.B) {
	runScript(b, setupBenchmarkTables(b), "SELECT nombre FROM usuarios ORDER BY id LIMIT 10 OFFSET 100")
}

func BenchmarkInsert(b *testing.B) {
	tables := setupBenchmarkTables(b)
	runScript(b, tables, "INSERT INTO usuarios (id, nombre, edad, ciudad) VALUES (5000, 'Nuevo', 30, 'Ciudad1')")
}

func BenchmarkBulkInsert(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(strconv.Itoa(size), func(b *testing.B) {
			tables := db.NewEngine(nil).Execute("CREATE TABLE usuarios (id INT PRIMARY KEY, nombre TEXT, edad INT, ciudad TEXT)").UpdatedTables
			runScript(b, tables, insertScript(size))
		})
	}
}

func BenchmarkUpdate(b *testing.B) {
	runScript(b, setupBenchmarkTables(b), "UPDATE usuarios SET ciudad = 'Centro' WHERE edad = 25")
}

func BenchmarkDelete(b *testing.B) {
	runScript(b, setupBenchmarkTables(b), "DELETE FROM usuarios WHERE ciudad = 'Ciudad3'")
}

func BenchmarkAlterTable(b *testing.B) {
	runScript(b, setupBenchmarkTables(b), "ALTER TABLE usuarios RENAME COLUMN ciudad TO localidad")
}

func BenchmarkCloneTables(b *testing.B) {
	tables := setupBenchmarkTables(b)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		core.CloneTables(tables)
	}
}

func BenchmarkDBMLGenerate(b *testing.B) {
	tables := setupBenchmarkTables(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		dbml.Generate(tables)
	}
}

// BenchmarkPersistedExecute measures the load-run-commit cycle of a project
func BenchmarkPersistedExecute(b *testing.B) {
	persistence, err := ps.NewMemoryPersistence()
	if err != nil {
		b.Fatalf("Failed to initialize persistence: %v", err)
	}
	instance := PlaygroundDB.Open(persistence)
	if _, err := instance.Project("bench").Save(setupBenchmarkTables(b), benchIdentity, "setup"); err != nil {
		b.Fatalf("Save failed: %v", err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result, err := instance.Execute("bench", benchIdentity, fmt.Sprintf("UPDATE usuarios SET edad = %d WHERE id = 1", i))
		if err != nil || result.Failures() > 0 {
			b.Fatalf("Execute error: %v", err)
		}
	}
}
