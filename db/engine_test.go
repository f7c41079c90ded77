package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nickyhof/PlaygroundDB/core"
)

func usuariosTable() core.Table {
	return core.Table{
		ID:   "t1",
		Name: "usuarios",
		Columns: []core.Column{
			{Name: "id", Type: "INT", IsPrimary: true, AutoIncrement: true},
			{Name: "nombre", Type: "TEXT"},
		},
		Rows: []core.Row{{"id": 1, "nombre": "Lucas Roman"}},
	}
}

func setupTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine([]core.Table{usuariosTable()})
}

// run executes a script and fails the test if any statement failed.
func run(t *testing.T, engine *Engine, script string) ExecuteResult {
	t.Helper()
	result := engine.Execute(script)
	for _, statementResult := range result.Results {
		if !statementResult.Success {
			t.Fatalf("Statement %q failed: %s", statementResult.Statement, statementResult.Error)
		}
	}
	return result
}

func lastData(result ExecuteResult) []core.Row {
	return result.Results[len(result.Results)-1].Data
}

func TestEngineLiteralScenario(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "INSERT INTO usuarios (nombre) VALUES ('Ana'); SELECT * FROM usuarios ORDER BY id DESC;")

	if len(result.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(result.Results))
	}

	expected := []core.Row{
		{"id": 2.0, "nombre": "Ana"},
		{"id": 1.0, "nombre": "Lucas Roman"},
	}
	if !reflect.DeepEqual(result.Results[1].Data, expected) {
		t.Errorf("Expected %v, got %v", expected, result.Results[1].Data)
	}
}

func TestEngineRoundTripProjection(t *testing.T) {
	engine := NewEngine(nil)

	result := run(t, engine, `
		CREATE TABLE productos (id INT PRIMARY KEY AUTOINCREMENT, nombre TEXT, precio REAL, stock INT);
		INSERT INTO productos (nombre, precio) VALUES ('mesa', 120.5), ('silla', 45);
		INSERT INTO productos (nombre) VALUES ('lampara');
		SELECT * FROM productos;
	`)

	data := lastData(result)
	if len(data) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(data))
	}
	for _, row := range data {
		for _, column := range []string{"id", "nombre", "precio", "stock"} {
			if _, ok := row[column]; !ok {
				t.Errorf("Expected column %s in row %v", column, row)
			}
		}
	}
	if data[2]["precio"] != nil {
		t.Errorf("Expected defaulted precio to be null, got %v", data[2]["precio"])
	}
}

func TestEngineAutoIncrementReusesTopIdAfterDelete(t *testing.T) {
	engine := NewEngine(nil)

	result := run(t, engine, `
		CREATE TABLE t (id INT PRIMARY KEY AUTOINCREMENT, v TEXT);
		INSERT INTO t (v) VALUES ('a'), ('b'), ('c');
		DELETE FROM t WHERE id = 3;
		INSERT INTO t (v) VALUES ('d');
		SELECT id FROM t ORDER BY id;
	`)

	var ids []any
	for _, row := range lastData(result) {
		ids = append(ids, row["id"])
	}
	expected := []any{1.0, 2.0, 3.0}
	if !reflect.DeepEqual(ids, expected) {
		t.Errorf("Expected ids %v, got %v", expected, ids)
	}
}

func TestEngineAutoIncrementSkipsNonNumericValues(t *testing.T) {
	engine := NewEngine([]core.Table{{
		Name: "t",
		Columns: []core.Column{
			{Name: "id", Type: "INT", IsPrimary: true, AutoIncrement: true},
			{Name: "v", Type: "TEXT"},
		},
		Rows: []core.Row{{"id": "abc"}, {"id": nil}, {"id": -4}},
	}})

	result := run(t, engine, "INSERT INTO t (v) VALUES ('x'); SELECT * FROM t WHERE v = 'x'")

	data := lastData(result)
	if len(data) != 1 || data[0]["id"] != 1.0 {
		t.Errorf("Expected generated id 1, got %v", data)
	}
}

func TestEngineAutoIncrementRequiresPrimaryKey(t *testing.T) {
	engine := NewEngine(nil)

	result := run(t, engine, "CREATE TABLE t (n INT AUTOINCREMENT, v TEXT); INSERT INTO t (v) VALUES ('x'); SELECT * FROM t")
	data := lastData(result)
	if data[0]["n"] != nil {
		t.Errorf("Expected non-primary autoincrement column to default to null, got %v", data[0]["n"])
	}
}

func TestEngineWhereLooseEquality(t *testing.T) {
	for _, script := range []string{
		"SELECT * FROM usuarios WHERE id = 1",
		"SELECT * FROM usuarios WHERE id = '1'",
	} {
		engine := setupTestEngine(t)
		result := run(t, engine, script)
		if len(lastData(result)) != 1 {
			t.Errorf("%s: expected 1 row, got %d", script, len(lastData(result)))
		}
	}
}

func TestEngineWhereOperators(t *testing.T) {
	engine := NewEngine(nil)
	run(t, engine, `
		CREATE TABLE n (id INT PRIMARY KEY AUTOINCREMENT, v INT);
		INSERT INTO n (v) VALUES (1), (2), (3), (4), (NULL);
	`)

	tests := []struct {
		where    string
		expected int
	}{
		{"v = 2", 1},
		{"v <> 2", 4},
		{"v != 2", 4},
		{"v > 2", 2},
		{"v >= 2", 3},
		{"v < 2", 2}, // null orders as 0
		{"v <= 2", 3},
		{"v = null", 1},
		{"missing = null", 5},
		{"missing > 0", 0},
		{"v > 'abc'", 0},
	}

	for _, test := range tests {
		t.Run(test.where, func(t *testing.T) {
			e := NewEngine(engine.Tables())
			result := run(t, e, "SELECT * FROM n WHERE "+test.where)
			if got := len(lastData(result)); got != test.expected {
				t.Errorf("Expected %d rows, got %d", test.expected, got)
			}
		})
	}
}

func TestEngineStatementIsolationOnFailure(t *testing.T) {
	engine := setupTestEngine(t)

	result := engine.Execute("INSERT INTO nope (a) VALUES (1); SELECT * FROM usuarios;")

	if len(result.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(result.Results))
	}

	first := result.Results[0]
	if first.Success {
		t.Fatal("Expected first statement to fail")
	}
	if !errors.Is(first.Err, ErrSchema) {
		t.Errorf("Expected ErrSchema, got %v", first.Err)
	}
	if !strings.Contains(first.Error, "nope") {
		t.Errorf("Expected error to name the table, got %q", first.Error)
	}
	if first.Statement != "INSERT INTO nope (a) VALUES (1)" {
		t.Errorf("Unexpected statement text %q", first.Statement)
	}

	second := result.Results[1]
	if !second.Success || len(second.Data) != 1 {
		t.Errorf("Expected second statement to succeed with 1 row, got %+v", second)
	}
}

func TestEngineCrossStatementVisibility(t *testing.T) {
	engine := NewEngine(nil)

	result := run(t, engine, "CREATE TABLE t (id INT PRIMARY KEY AUTOINCREMENT); INSERT INTO t (id) VALUES (1); SELECT * FROM t;")

	expected := []core.Row{{"id": 1.0}}
	if !reflect.DeepEqual(lastData(result), expected) {
		t.Errorf("Expected %v, got %v", expected, lastData(result))
	}
	if len(result.UpdatedTables) != 1 || result.UpdatedTables[0].Name != "t" {
		t.Errorf("Expected updated tables to contain t, got %+v", result.UpdatedTables)
	}
}

func TestEngineEmptyInput(t *testing.T) {
	for _, script := range []string{
		"",
		"   \n\t",
		"-- only a comment",
		"/* block */",
		"-- a\n/* b */ ;; -- c",
	} {
		result := NewEngine(nil).Execute(script)
		if len(result.Results) != 1 {
			t.Fatalf("%q: expected a single result, got %d", script, len(result.Results))
		}
		if result.Results[0].Success {
			t.Errorf("%q: expected failure", script)
		}
		if !errors.Is(result.Results[0].Err, ErrEmptyInput) {
			t.Errorf("%q: expected ErrEmptyInput, got %v", script, result.Results[0].Err)
		}
		if result.Results[0].Message != "empty query" {
			t.Errorf("%q: unexpected message %q", script, result.Results[0].Message)
		}
	}
}

func TestEngineRenamePreservesData(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "ALTER TABLE usuarios RENAME COLUMN nombre TO name; SELECT name FROM usuarios;")

	expected := []core.Row{{"name": "Lucas Roman"}}
	if !reflect.DeepEqual(lastData(result), expected) {
		t.Errorf("Expected %v, got %v", expected, lastData(result))
	}
	for _, row := range result.UpdatedTables[0].Rows {
		if _, ok := row["nombre"]; ok {
			t.Errorf("Expected old key to be gone, got %v", row)
		}
	}
	if result.UpdatedTables[0].Columns[1].Name != "name" {
		t.Errorf("Expected column definition to be renamed, got %+v", result.UpdatedTables[0].Columns)
	}
}

func TestEngineAlterAddColumn(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "ALTER TABLE usuarios ADD COLUMN Email varchar(100); SELECT * FROM usuarios")

	table := result.UpdatedTables[0]
	last := table.Columns[len(table.Columns)-1]
	if last.Name != "email" || last.Type != "VARCHAR(100)" {
		t.Errorf("Unexpected new column %+v", last)
	}
	value, ok := table.Rows[0]["email"]
	if !ok || value != nil {
		t.Errorf("Expected existing row to be backfilled with null, got %v (present %v)", value, ok)
	}

	result = NewEngine(result.UpdatedTables).Execute("ALTER TABLE usuarios ADD COLUMN email TEXT")
	if result.Results[0].Success || !errors.Is(result.Results[0].Err, ErrSchema) {
		t.Errorf("Expected duplicate column to fail with ErrSchema, got %+v", result.Results[0])
	}
}

func TestEngineAlterErrors(t *testing.T) {
	tests := []struct {
		sql      string
		expected error
	}{
		{"ALTER TABLE usuarios RENAME COLUMN nope TO x", ErrSchema},
		{"ALTER TABLE usuarios RENAME COLUMN nombre TO id", ErrSchema},
		{"ALTER TABLE usuarios DROP COLUMN nombre", ErrSyntax},
		{"ALTER TABLE nope ADD COLUMN x INT", ErrSchema},
	}

	for _, test := range tests {
		t.Run(test.sql, func(t *testing.T) {
			result := setupTestEngine(t).Execute(test.sql)
			if result.Results[0].Success {
				t.Fatal("Expected failure")
			}
			if !errors.Is(result.Results[0].Err, test.expected) {
				t.Errorf("Expected %v, got %v", test.expected, result.Results[0].Err)
			}
		})
	}
}

func TestEngineUpdate(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, `
		INSERT INTO usuarios (nombre) VALUES ('Ana'), ('Luis');
		UPDATE usuarios SET nombre = 'X', nombre = 'Y' WHERE id > 1;
		SELECT nombre FROM usuarios ORDER BY id;
	`)

	update := result.Results[1]
	if update.AffectedRows == nil || *update.AffectedRows != 2 {
		t.Errorf("Expected 2 affected rows, got %v", update.AffectedRows)
	}

	expected := []core.Row{{"nombre": "Lucas Roman"}, {"nombre": "Y"}, {"nombre": "Y"}}
	if !reflect.DeepEqual(lastData(result), expected) {
		t.Errorf("Expected %v, got %v", expected, lastData(result))
	}

}

func TestEngineUpdateUndeclaredColumn(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "UPDATE usuarios SET email = 'a@b.c' WHERE id = 1")
	update := result.Results[0]
	if !update.Success {
		t.Fatalf("Expected update to succeed, got %s", update.Error)
	}
	if update.AffectedRows == nil || *update.AffectedRows != 1 {
		t.Errorf("Expected 1 affected row, got %v", update.AffectedRows)
	}

	table := result.UpdatedTables[core.FindTable(result.UpdatedTables, "usuarios")]
	if got := table.Rows[0]["email"]; got != "a@b.c" {
		t.Errorf("Expected email 'a@b.c' on the matched row, got %v", got)
	}
	if len(table.Columns) != 2 {
		t.Errorf("Expected the column list to stay unchanged, got %d columns", len(table.Columns))
	}
}

func TestEngineDelete(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "INSERT INTO usuarios (nombre) VALUES ('Ana'), ('Luis'); DELETE FROM usuarios WHERE nombre = 'Ana'")
	if n := *result.Results[1].AffectedRows; n != 1 {
		t.Errorf("Expected 1 deleted row, got %d", n)
	}

	result = run(t, engine, "DELETE FROM usuarios")
	if n := *result.Results[0].AffectedRows; n != 2 {
		t.Errorf("Expected 2 deleted rows, got %d", n)
	}
	if len(result.UpdatedTables[0].Rows) != 0 {
		t.Errorf("Expected table to be empty, got %v", result.UpdatedTables[0].Rows)
	}
}

func TestEngineInsertIsAtomic(t *testing.T) {
	engine := setupTestEngine(t)

	result := engine.Execute("INSERT INTO usuarios (nombre) VALUES ('Ana'), ('Luis', 3); SELECT * FROM usuarios")

	if !errors.Is(result.Results[0].Err, ErrShape) {
		t.Fatalf("Expected ErrShape, got %v", result.Results[0].Err)
	}
	if n := len(result.Results[1].Data); n != 1 {
		t.Errorf("Expected no tuple of the failed INSERT to be applied, got %d rows", n)
	}

	result = engine.Execute("INSERT INTO usuarios (apellido) VALUES ('x')")
	if !errors.Is(result.Results[0].Err, ErrSchema) {
		t.Errorf("Expected unknown column to fail with ErrSchema, got %v", result.Results[0].Err)
	}
}

func TestEngineInsertValuesWithCommasAndSemicolons(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "INSERT INTO usuarios (nombre) VALUES ('Roman, Lucas; Jr'); SELECT nombre FROM usuarios WHERE id = 2")

	expected := []core.Row{{"nombre": "Roman, Lucas; Jr"}}
	if !reflect.DeepEqual(lastData(result), expected) {
		t.Errorf("Expected %v, got %v", expected, lastData(result))
	}
}

func TestEngineCreateAndDrop(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "CREATE TABLE Pedidos (id SERIAL PRIMARY KEY, usuario_id INT REFERENCES usuarios(id), total REAL NOT NULL)")
	table := result.UpdatedTables[1]
	if table.Name != "pedidos" || table.ID == "" {
		t.Errorf("Unexpected table %+v", table)
	}
	if table.Position == nil || *table.Position != core.DefaultPosition {
		t.Errorf("Expected default position, got %v", table.Position)
	}
	if !table.Columns[0].IsPrimary || !table.Columns[0].AutoIncrement {
		t.Errorf("Expected serial primary key, got %+v", table.Columns[0])
	}
	if table.Columns[1].References == nil || table.Columns[1].References.Table != "usuarios" {
		t.Errorf("Expected reference to usuarios, got %+v", table.Columns[1])
	}

	result = engine.Execute("CREATE TABLE PEDIDOS (x INT)")
	if !errors.Is(result.Results[0].Err, ErrSchema) {
		t.Errorf("Expected duplicate table to fail with ErrSchema, got %v", result.Results[0].Err)
	}

	result = engine.Execute("CREATE TABLE dup (a INT, A TEXT)")
	if !errors.Is(result.Results[0].Err, ErrSchema) {
		t.Errorf("Expected duplicate column to fail with ErrSchema, got %v", result.Results[0].Err)
	}

	result = run(t, engine, "DROP TABLE PEDIDOS")
	if len(result.UpdatedTables) != 1 {
		t.Errorf("Expected 1 table after drop, got %d", len(result.UpdatedTables))
	}

	result = engine.Execute("DROP TABLE pedidos")
	if !errors.Is(result.Results[0].Err, ErrSchema) {
		t.Errorf("Expected dropping a missing table to fail with ErrSchema, got %v", result.Results[0].Err)
	}
}

func TestEngineUnsupportedCommand(t *testing.T) {
	result := setupTestEngine(t).Execute("TRUNCATE usuarios; SELECT * FROM usuarios")

	if !errors.Is(result.Results[0].Err, ErrSyntax) {
		t.Errorf("Expected ErrSyntax, got %v", result.Results[0].Err)
	}
	if !strings.Contains(result.Results[0].Error, "command 'TRUNCATE' not supported") {
		t.Errorf("Unexpected error %q", result.Results[0].Error)
	}
	if result.Results[0].Command != "TRUNCATE" {
		t.Errorf("Expected command TRUNCATE, got %q", result.Results[0].Command)
	}
	if !result.Results[1].Success {
		t.Error("Expected the following statement to run")
	}
}

func TestEngineDoesNotMutateCallerTables(t *testing.T) {
	tables := []core.Table{usuariosTable()}

	NewEngine(tables).Execute("UPDATE usuarios SET nombre = 'X'; ALTER TABLE usuarios RENAME COLUMN id TO pk; DROP TABLE usuarios")

	if tables[0].Rows[0]["nombre"] != "Lucas Roman" {
		t.Errorf("Expected caller row to be untouched, got %v", tables[0].Rows[0])
	}
	if tables[0].Columns[0].Name != "id" {
		t.Errorf("Expected caller columns to be untouched, got %v", tables[0].Columns)
	}
}

func TestEngineSelectDataIsACopy(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, "SELECT * FROM usuarios")
	result.Results[0].Data[0]["nombre"] = "changed"

	if engine.Tables()[0].Rows[0]["nombre"] != "Lucas Roman" {
		t.Error("Expected SELECT data to be detached from engine state")
	}
}

func TestEngineSelectProjectionAndLimit(t *testing.T) {
	engine := setupTestEngine(t)

	result := run(t, engine, `
		INSERT INTO usuarios (nombre) VALUES ('b'), ('c'), ('d');
		SELECT nombre, missing FROM usuarios ORDER BY nombre DESC LIMIT 2 OFFSET 1;
	`)

	expected := []core.Row{{"nombre": "c"}, {"nombre": "b"}}
	if !reflect.DeepEqual(lastData(result), expected) {
		t.Errorf("Expected %v, got %v", expected, lastData(result))
	}
	columns := result.Results[1].Columns
	if !reflect.DeepEqual(columns, []string{"nombre", "missing"}) {
		t.Errorf("Unexpected columns %v", columns)
	}
}

func TestEngineOrderByIsStable(t *testing.T) {
	engine := NewEngine(nil)

	result := run(t, engine, `
		CREATE TABLE t (id INT PRIMARY KEY AUTOINCREMENT, grupo TEXT);
		INSERT INTO t (grupo) VALUES ('b'), ('a'), ('b'), ('a');
		SELECT id FROM t ORDER BY grupo;
	`)

	var ids []any
	for _, row := range lastData(result) {
		ids = append(ids, row["id"])
	}
	expected := []any{2.0, 4.0, 1.0, 3.0}
	if !reflect.DeepEqual(ids, expected) {
		t.Errorf("Expected %v, got %v", expected, ids)
	}
}

func TestExecuteResultDisplay(t *testing.T) {
	engine := setupTestEngine(t)
	result := engine.Execute("SELECT * FROM usuarios; DELETE FROM nope")

	var out bytes.Buffer
	result.Display(&out)

	text := out.String()
	if !strings.Contains(text, "Lucas Roman") {
		t.Errorf("Expected table output, got:\n%s", text)
	}
	if !strings.Contains(text, "1 row(s) found") {
		t.Errorf("Expected count message, got:\n%s", text)
	}
	if !strings.Contains(text, "Error: schema error: table 'nope' not found") {
		t.Errorf("Expected error line, got:\n%s", text)
	}
}

func TestStatementResultJSONData(t *testing.T) {
	engine := setupTestEngine(t)
	result := engine.Execute("SELECT * FROM usuarios WHERE nombre = 'Nadie'; DELETE FROM usuarios WHERE id = 9; SELECT * FROM nope")

	tests := []struct {
		name     string
		index    int
		contains string
		excludes string
	}{
		{"empty select", 0, `"data":[]`, ""},
		{"delete", 1, "", `"data"`},
		{"failed select", 2, "", `"data"`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := json.Marshal(result.Results[test.index])
			if err != nil {
				t.Fatalf("Failed to marshal result: %v", err)
			}
			if test.contains != "" && !strings.Contains(string(data), test.contains) {
				t.Errorf("Expected %s in %s", test.contains, data)
			}
			if test.excludes != "" && strings.Contains(string(data), test.excludes) {
				t.Errorf("Did not expect %s in %s", test.excludes, data)
			}
		})
	}

	var decoded StatementResult
	if err := json.Unmarshal(mustMarshal(t, result.Results[0]), &decoded); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}
	if decoded.Data == nil || len(decoded.Data) != 0 {
		t.Errorf("Expected empty non-nil data, got %#v", decoded.Data)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	return data
}

func TestAbbreviateKeepsRunes(t *testing.T) {
	tests := []struct {
		input    string
		limit    int
		expected string
	}{
		{"SELECT 1", 60, "SELECT 1"},
		{"UPDATE t SET a = 'José'", 16, "UPDATE t SET ..."},
		{"ééééé ééé", 6, "ééé..."},
	}

	for _, test := range tests {
		if got := abbreviate(test.input, test.limit); got != test.expected {
			t.Errorf("abbreviate(%q, %d) = %q, expected %q", test.input, test.limit, got, test.expected)
		}
	}
}

func TestExecuteResultModified(t *testing.T) {
	if setupTestEngine(t).Execute("SELECT * FROM usuarios").Modified() {
		t.Error("Expected a read-only script not to be modified")
	}
	if !setupTestEngine(t).Execute("DELETE FROM usuarios WHERE id = 99").Modified() {
		t.Error("Expected a successful DELETE to count as a modification")
	}
}
