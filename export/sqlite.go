// Package export writes project tables into a real SQLite database.
//
//	db, err := export.OpenSQLite("demo.sqlite")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//	err = export.ToSQLite(ctx, db, tables)
//
// Existing tables with the same names are replaced. Constraints are declared
// as written in the project; SQLite enforces them on the exported rows.
package export

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nickyhof/PlaygroundDB/core"
)

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// ToSQLite creates every table and inserts its rows in one transaction.
func ToSQLite(ctx context.Context, db *sqlx.DB, tables []core.Table) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exported := make(map[string]bool, len(tables))
	for _, table := range tables {
		exported[strings.ToLower(table.Name)] = true
	}

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table.Name)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table.Name, err)
		}

		create := CreateTableSQL(table, exported)
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("failed to create table %s: %w. SQL: %s", table.Name, err, create)
		}

		if err := insertRows(ctx, tx, table); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CreateTableSQL renders the CREATE TABLE statement for a table. References
// are only declared when the target table is in known.
func CreateTableSQL(table core.Table, known map[string]bool) string {
	var primary []string
	for _, column := range table.Columns {
		if column.IsPrimary {
			primary = append(primary, column.Name)
		}
	}
	inline := len(primary) == 1

	var definitions []string
	for _, column := range table.Columns {
		definition := quoteIdent(column.Name)

		columnType := column.Type
		if inline && column.IsPrimary && column.AutoIncrement {
			// SQLite only allows AUTOINCREMENT on INTEGER PRIMARY KEY.
			columnType = "INTEGER"
		}
		if columnType != "" {
			definition += " " + columnType
		}

		if inline && column.IsPrimary {
			definition += " PRIMARY KEY"
			if column.AutoIncrement {
				definition += " AUTOINCREMENT"
			}
		}
		if column.NotNull {
			definition += " NOT NULL"
		}
		if column.Unique {
			definition += " UNIQUE"
		}
		if column.IsForeignKey && column.References != nil && known[strings.ToLower(column.References.Table)] {
			definition += fmt.Sprintf(" REFERENCES %s (%s)", quoteIdent(column.References.Table), quoteIdent(column.References.Column))
		}

		definitions = append(definitions, definition)
	}

	if len(primary) > 1 {
		quoted := make([]string, len(primary))
		for i, name := range primary {
			quoted[i] = quoteIdent(name)
		}
		definitions = append(definitions, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table.Name), strings.Join(definitions, ", "))
}

func insertRows(ctx context.Context, tx *sqlx.Tx, table core.Table) error {
	if len(table.Rows) == 0 || len(table.Columns) == 0 {
		return nil
	}

	columns := make([]string, len(table.Columns))
	placeholders := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		columns[i] = quoteIdent(column.Name)
		placeholders[i] = "?"
	}

	query := tx.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table.Name), strings.Join(columns, ", "), strings.Join(placeholders, ", ")))

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", table.Name, err)
	}
	defer stmt.Close()

	args := make([]any, len(table.Columns))
	for n, row := range table.Rows {
		for i, column := range table.Columns {
			args[i] = sqliteValue(row[column.Name])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", n+1, table.Name, err)
		}
	}

	return nil
}

// sqliteValue stores whole numbers as integers.
func sqliteValue(value any) any {
	if core.IsUndefined(value) {
		return nil
	}
	switch v := core.Normalize(value).(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	default:
		return v
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
