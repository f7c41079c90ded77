package sql

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nickyhof/PlaygroundDB/core"
)

func intPtr(n int) *int {
	return &n
}

func TestParser(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected Statement
	}{
		{
			"select wildcard",
			"SELECT * FROM usuarios",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{},
			},
		},
		{
			"select columns are lowercased",
			"select ID, Nombre from Usuarios",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{"id", "nombre"},
			},
		},
		{
			"select with where int",
			"SELECT id FROM usuarios WHERE id = 10",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{"id"},
				Where:   &WhereClause{Column: "id", Operator: EqualsOperator, Value: 10.0},
			},
		},
		{
			"select with where string",
			"SELECT id FROM usuarios WHERE nombre = 'Ana; Maria, Lopez'",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{"id"},
				Where:   &WhereClause{Column: "nombre", Operator: EqualsOperator, Value: "Ana; Maria, Lopez"},
			},
		},
		{
			"select with greater or equal",
			"SELECT * FROM usuarios WHERE id >= 2",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{},
				Where:   &WhereClause{Column: "id", Operator: GreaterThanOrEqualOperator, Value: 2.0},
			},
		},
		{
			"select with not equals",
			"SELECT * FROM usuarios WHERE activo != true",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{},
				Where:   &WhereClause{Column: "activo", Operator: NotEqualsOperator, Value: true},
			},
		},
		{
			"select with bare word value",
			"SELECT * FROM usuarios WHERE nombre <> Ana",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{},
				Where:   &WhereClause{Column: "nombre", Operator: NotEqualsOperator, Value: "Ana"},
			},
		},
		{
			"select with order by",
			"SELECT * FROM usuarios ORDER BY id DESC",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{},
				OrderBy: &OrderByClause{Column: "id", Descending: true},
			},
		},
		{
			"select with everything",
			"SELECT nombre FROM usuarios WHERE id > -1.5 ORDER BY nombre ASC LIMIT 10 OFFSET 5;",
			SelectStatement{
				Table:   "usuarios",
				Columns: []string{"nombre"},
				Where:   &WhereClause{Column: "id", Operator: GreaterThanOperator, Value: -1.5},
				OrderBy: &OrderByClause{Column: "nombre"},
				Limit:   intPtr(10),
				Offset:  5,
			},
		},
		{
			"insert multiple tuples",
			"INSERT INTO usuarios (id, nombre) VALUES (1, 'Ana'), (2, NULL)",
			InsertStatement{
				Table:   "usuarios",
				Columns: []string{"id", "nombre"},
				Rows:    [][]any{{1.0, "Ana"}, {2.0, nil}},
			},
		},
		{
			"insert without column list",
			"INSERT INTO usuarios VALUES ('a,b', false)",
			InsertStatement{
				Table: "usuarios",
				Rows:  [][]any{{"a,b", false}},
			},
		},
		{
			"update",
			"UPDATE usuarios SET nombre = 'Ana', edad = 30 WHERE id = '1'",
			UpdateStatement{
				Table: "usuarios",
				Updates: []SetClause{
					{Column: "nombre", Value: "Ana"},
					{Column: "edad", Value: 30.0},
				},
				Where: &WhereClause{Column: "id", Operator: EqualsOperator, Value: "1"},
			},
		},
		{
			"delete without where",
			"DELETE FROM usuarios",
			DeleteStatement{Table: "usuarios"},
		},
		{
			"delete with where",
			"DELETE FROM usuarios WHERE id < 3",
			DeleteStatement{
				Table: "usuarios",
				Where: &WhereClause{Column: "id", Operator: LessThanOperator, Value: 3.0},
			},
		},
		{
			"create table",
			"CREATE TABLE Pedidos (id INT PRIMARY KEY AUTOINCREMENT, total decimal(10, 2) NOT NULL, codigo VARCHAR(20) UNIQUE DEFAULT 'x', usuario_id INT REFERENCES usuarios(id))",
			CreateTableStatement{
				Table: "pedidos",
				Columns: []core.Column{
					{Name: "id", Type: "INT", IsPrimary: true, AutoIncrement: true},
					{Name: "total", Type: "DECIMAL(10,2)", NotNull: true},
					{Name: "codigo", Type: "VARCHAR(20)", Unique: true},
					{Name: "usuario_id", Type: "INT", IsForeignKey: true, References: &core.Reference{Table: "usuarios", Column: "id"}},
				},
			},
		},
		{
			"create table with serial",
			"CREATE TABLE t (id SERIAL PRIMARY KEY)",
			CreateTableStatement{
				Table:   "t",
				Columns: []core.Column{{Name: "id", Type: "SERIAL", IsPrimary: true, AutoIncrement: true}},
			},
		},
		{
			"create table with table constraints",
			"CREATE TABLE t (a INT, b TEXT, PRIMARY KEY (a), CONSTRAINT u UNIQUE (a, b), FOREIGN KEY (b) REFERENCES other (name))",
			CreateTableStatement{
				Table:       "t",
				Columns:     []core.Column{{Name: "a", Type: "INT"}, {Name: "b", Type: "TEXT"}},
				PrimaryKey:  []string{"a"},
				Unique:      [][]string{{"a", "b"}},
				ForeignKeys: []ForeignKeyClause{{Column: "b", RefTable: "other", RefColumn: "name"}},
			},
		},
		{
			"drop table",
			"DROP TABLE Usuarios",
			DropTableStatement{Table: "usuarios"},
		},
		{
			"alter add column",
			"ALTER TABLE usuarios ADD COLUMN Email varchar(255)",
			AlterTableStatement{
				Table:  "usuarios",
				Action: AddColumnAction,
				Column: core.Column{Name: "email", Type: "VARCHAR(255)"},
			},
		},
		{
			"alter rename column",
			"ALTER TABLE usuarios RENAME COLUMN nombre TO name",
			AlterTableStatement{
				Table:         "usuarios",
				Action:        RenameColumnAction,
				ColumnName:    "nombre",
				NewColumnName: "name",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual, err := parse(test.sql)

			if err != nil {
				t.Errorf("Test Failed: Unexpected error: %v", err)
				return
			}

			if !reflect.DeepEqual(actual, test.expected) {
				t.Errorf("Test Failed: Expected %+v, got %+v", test.expected, actual)
			}
		})
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"unknown command", "TRUNCATE usuarios"},
		{"select without from", "SELECT * usuarios"},
		{"compound where", "SELECT * FROM t WHERE a = 1 AND b = 2"},
		{"where without operator", "SELECT * FROM t WHERE a"},
		{"insert without values", "INSERT INTO t (a)"},
		{"insert with empty tuple", "INSERT INTO t (a) VALUES ()"},
		{"update without set", "UPDATE t a = 1"},
		{"create without columns", "CREATE TABLE t ()"},
		{"create without type", "CREATE TABLE t (id)"},
		{"alter drop column", "ALTER TABLE t DROP COLUMN a"},
		{"alter rename table", "ALTER TABLE t RENAME TO u"},
		{"drop database", "DROP DATABASE x"},
		{"unterminated string", "SELECT * FROM t WHERE a = 'oops"},
		{"trailing garbage", "DELETE FROM t WHERE a = 1 2"},
		{"unquoted multi-word where value", "SELECT * FROM usuarios WHERE nombre = Lucas Roman"},
		{"unquoted multi-word set value", "UPDATE usuarios SET nombre = Lucas Roman WHERE id = 1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parse(test.sql)
			if err == nil {
				t.Fatalf("Expected error for %q", test.sql)
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("Expected ErrSyntax, got %v", err)
			}
		})
	}
}

func TestParseUnknownCommandMessage(t *testing.T) {
	_, err := parse("truncate usuarios")
	if err == nil {
		t.Fatal("Expected error")
	}
	if err.Error() != "syntax error: command 'TRUNCATE' not supported" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}
