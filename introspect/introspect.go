// Package introspect imports the schema of a live PostgreSQL database as
// project tables.
//
// Basic usage:
//
//	db, err := introspect.Connect(ctx, os.Getenv("DATABASE_URL"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	tables, err := introspect.Postgres(ctx, db,
//	    introspect.WithSchema("public"),
//	    introspect.WithTables("usuarios", "pedidos"),
//	)
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nickyhof/PlaygroundDB/core"
)

// Connect opens and pings a PostgreSQL connection.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

type columnInfo struct {
	Name             string         `db:"column_name"`
	DataType         string         `db:"data_type"`
	CharMaxLength    sql.NullInt64  `db:"character_maximum_length"`
	NumericPrecision sql.NullInt64  `db:"numeric_precision"`
	NumericScale     sql.NullInt64  `db:"numeric_scale"`
	IsNullable       string         `db:"is_nullable"`
	Default          sql.NullString `db:"column_default"`
	IsIdentity       string         `db:"is_identity"`
}

type keyInfo struct {
	Constraint string `db:"constraint_name"`
	Type       string `db:"constraint_type"`
	Column     string `db:"column_name"`
}

type foreignKeyInfo struct {
	Column        string `db:"column_name"`
	ForeignTable  string `db:"foreign_table_name"`
	ForeignColumn string `db:"foreign_column_name"`
}

// Postgres reads the tables of one schema. Tables come back in name order,
// columns in declaration order.
func Postgres(ctx context.Context, db *sqlx.DB, opts ...Option) ([]core.Table, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	names, err := getTables(ctx, db, o.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables for schema %s: %w", o.schema, err)
	}

	var tables []core.Table
	for _, name := range names {
		if !o.includes(name) {
			continue
		}

		table, err := introspectTable(ctx, db, o, name)
		if err != nil {
			return nil, err
		}
		table.Position = &core.Position{
			X: core.DefaultPosition.X + float64(len(tables))*260,
			Y: core.DefaultPosition.Y,
		}
		tables = append(tables, table)
	}

	return tables, nil
}

func introspectTable(ctx context.Context, db *sqlx.DB, o *options, name string) (core.Table, error) {
	table := core.Table{
		ID:   core.NewTableID(),
		Name: strings.ToLower(name),
		Rows: []core.Row{},
	}

	columns, err := getColumns(ctx, db, o.schema, name)
	if err != nil {
		return core.Table{}, fmt.Errorf("failed to get columns for table %s.%s: %w", o.schema, name, err)
	}
	for _, info := range columns {
		table.Columns = append(table.Columns, core.Column{
			Name:          strings.ToLower(info.Name),
			Type:          mapType(info.DataType, info.CharMaxLength, info.NumericPrecision, info.NumericScale),
			NotNull:       info.IsNullable == "NO",
			AutoIncrement: info.IsIdentity == "YES" || (info.Default.Valid && strings.HasPrefix(info.Default.String, "nextval(")),
		})
	}

	keys, err := getKeys(ctx, db, o.schema, name)
	if err != nil {
		return core.Table{}, fmt.Errorf("failed to get keys for table %s.%s: %w", o.schema, name, err)
	}
	applyKeys(&table, keys)

	foreignKeys, err := getForeignKeys(ctx, db, o.schema, name)
	if err != nil {
		return core.Table{}, fmt.Errorf("failed to get foreign keys for table %s.%s: %w", o.schema, name, err)
	}
	for _, fk := range foreignKeys {
		if i := table.ColumnIndex(strings.ToLower(fk.Column)); i >= 0 {
			table.Columns[i].IsForeignKey = true
			table.Columns[i].References = &core.Reference{
				Table:  strings.ToLower(fk.ForeignTable),
				Column: strings.ToLower(fk.ForeignColumn),
			}
		}
	}

	if o.rowLimit > 0 {
		rows, err := getRows(ctx, db, o.schema, name, o.rowLimit)
		if err != nil {
			return core.Table{}, fmt.Errorf("failed to get rows for table %s.%s: %w", o.schema, name, err)
		}
		table.Rows = rows
	}

	return table, nil
}

// applyKeys marks primary key columns and columns that carry a
// single-column UNIQUE constraint. NOT NULL is implied by the key.
func applyKeys(table *core.Table, keys []keyInfo) {
	uniqueColumns := make(map[string][]string)
	for _, key := range keys {
		switch key.Type {
		case "PRIMARY KEY":
			if i := table.ColumnIndex(strings.ToLower(key.Column)); i >= 0 {
				table.Columns[i].IsPrimary = true
				table.Columns[i].NotNull = false
			}
		case "UNIQUE":
			uniqueColumns[key.Constraint] = append(uniqueColumns[key.Constraint], key.Column)
		}
	}

	for _, columns := range uniqueColumns {
		if len(columns) != 1 {
			continue
		}
		if i := table.ColumnIndex(strings.ToLower(columns[0])); i >= 0 {
			table.Columns[i].Unique = true
		}
	}
}

func getTables(ctx context.Context, db *sqlx.DB, schemaName string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	var tables []string
	err := db.SelectContext(ctx, &tables, query, schemaName)
	return tables, err
}

func getColumns(ctx context.Context, db *sqlx.DB, schemaName, tableName string) ([]columnInfo, error) {
	query := `
		SELECT
			column_name,
			data_type,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			is_nullable,
			column_default,
			is_identity
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	var columns []columnInfo
	err := db.SelectContext(ctx, &columns, query, schemaName, tableName)
	return columns, err
}

func getKeys(ctx context.Context, db *sqlx.DB, schemaName, tableName string) ([]keyInfo, error) {
	query := `
		SELECT tc.constraint_name, tc.constraint_type, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	var keys []keyInfo
	err := db.SelectContext(ctx, &keys, query, schemaName, tableName)
	return keys, err
}

func getForeignKeys(ctx context.Context, db *sqlx.DB, schemaName, tableName string) ([]foreignKeyInfo, error) {
	query := `
		SELECT DISTINCT
			kcu1.column_name,
			kcu2.table_name AS foreign_table_name,
			kcu2.column_name AS foreign_column_name,
			kcu1.ordinal_position
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu1
			ON kcu1.constraint_name = rc.constraint_name
			AND kcu1.table_schema = rc.constraint_schema
		JOIN information_schema.key_column_usage kcu2
			ON kcu2.constraint_name = rc.unique_constraint_name
			AND kcu2.table_schema = rc.unique_constraint_schema
			AND kcu2.ordinal_position = kcu1.ordinal_position
		WHERE kcu1.table_schema = $1 AND kcu1.table_name = $2
		ORDER BY kcu1.ordinal_position
	`

	rows, err := db.QueryxContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []foreignKeyInfo
	for rows.Next() {
		var fk foreignKeyInfo
		var position int
		if err := rows.Scan(&fk.Column, &fk.ForeignTable, &fk.ForeignColumn, &position); err != nil {
			return nil, err
		}
		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}

func getRows(ctx context.Context, db *sqlx.DB, schemaName, tableName string, limit int) ([]core.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s LIMIT $1", quoteIdent(schemaName), quoteIdent(tableName))

	rows, err := db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []core.Row{}
	for rows.Next() {
		values := make(map[string]any)
		if err := rows.MapScan(values); err != nil {
			return nil, err
		}

		row := make(core.Row, len(values))
		for name, value := range values {
			row[strings.ToLower(name)] = rowValue(value)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// rowValue converts a driver value to a playground value.
func rowValue(value any) any {
	switch v := value.(type) {
	case nil, bool, string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return core.Normalize(v)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
