// Package ddl imports SQLite-dialect CREATE TABLE scripts as project tables.
//
//	tables, err := ddl.Import(`
//	    CREATE TABLE paises (id INTEGER PRIMARY KEY AUTOINCREMENT, nombre TEXT NOT NULL);
//	    CREATE TABLE ciudades (id INTEGER, pais_id INTEGER REFERENCES paises(id), PRIMARY KEY (id));
//	`)
//
// Statements other than CREATE TABLE are skipped. Tables are created empty,
// with the default diagram position.
package ddl

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	rsql "github.com/rqlite/sql"

	"github.com/nickyhof/PlaygroundDB/core"
)

var ErrImport = errors.New("ddl import error")

var (
	constraintNamePattern = regexp.MustCompile(`(?i)^CONSTRAINT\s+\S+\s+`)
	primaryKeyPattern     = regexp.MustCompile(`(?is)^PRIMARY\s+KEY\s*\((.*?)\)`)
	uniquePattern         = regexp.MustCompile(`(?is)^UNIQUE\s*\((.*?)\)`)
	foreignKeyPattern     = regexp.MustCompile(`(?is)^FOREIGN\s+KEY\s*\((.*?)\)\s*REFERENCES\s+(\S+?)\s*(?:\((.*?)\))?(?:\s|$)`)
)

func Import(script string) ([]core.Table, error) {
	var tables []core.Table

	parser := rsql.NewParser(strings.NewReader(script))
	for {
		stmt, err := parser.ParseStatement()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImport, err)
		}

		create, ok := stmt.(*rsql.CreateTableStatement)
		if !ok {
			continue
		}
		if create.Select != nil {
			return nil, fmt.Errorf("%w: CREATE TABLE %s AS SELECT is not supported", ErrImport, create.Name.Name)
		}

		table, err := convertTable(create)
		if err != nil {
			return nil, err
		}
		if core.FindTable(tables, table.Name) >= 0 {
			return nil, fmt.Errorf("%w: duplicate table '%s'", ErrImport, table.Name)
		}
		tables = append(tables, table)
	}

	return tables, nil
}

func convertTable(stmt *rsql.CreateTableStatement) (core.Table, error) {
	position := core.DefaultPosition
	table := core.Table{
		ID:       core.NewTableID(),
		Name:     strings.ToLower(stmt.Name.Name),
		Columns:  make([]core.Column, 0, len(stmt.Columns)),
		Rows:     []core.Row{},
		Position: &position,
	}

	for _, colDef := range stmt.Columns {
		column := core.Column{
			Name: strings.ToLower(colDef.Name.Name),
			Type: "TEXT",
		}
		if colDef.Type != nil {
			column.Type = strings.ToUpper(colDef.Type.String())
		}
		if table.ColumnIndex(column.Name) >= 0 {
			return core.Table{}, fmt.Errorf("%w: duplicate column '%s' in table '%s'", ErrImport, column.Name, table.Name)
		}

		for _, constraint := range colDef.Constraints {
			switch c := constraint.(type) {
			case *rsql.NotNullConstraint:
				column.NotNull = true
			case *rsql.PrimaryKeyConstraint:
				column.IsPrimary = true
				column.AutoIncrement = c.Autoincrement.IsValid()
			case *rsql.UniqueConstraint:
				column.Unique = true
			case *rsql.ForeignKeyConstraint:
				column.IsForeignKey = true
				column.References = reference(c.ForeignTable, c.ForeignColumns)
			}
		}

		table.Columns = append(table.Columns, column)
	}

	for _, constraint := range stmt.Constraints {
		if err := applyTableConstraint(&table, constraint.String()); err != nil {
			return core.Table{}, err
		}
	}

	return table, nil
}

// applyTableConstraint reads a table constraint from its canonical SQL form.
func applyTableConstraint(table *core.Table, text string) error {
	text = constraintNamePattern.ReplaceAllString(text, "")

	if match := primaryKeyPattern.FindStringSubmatch(text); match != nil {
		for _, name := range identList(match[1]) {
			i, err := columnIndex(*table, name)
			if err != nil {
				return err
			}
			table.Columns[i].IsPrimary = true
		}
		return nil
	}

	if match := uniquePattern.FindStringSubmatch(text); match != nil {
		// Only a single-column UNIQUE maps onto the column flag.
		if names := identList(match[1]); len(names) == 1 {
			i, err := columnIndex(*table, names[0])
			if err != nil {
				return err
			}
			table.Columns[i].Unique = true
		}
		return nil
	}

	if match := foreignKeyPattern.FindStringSubmatch(text); match != nil {
		foreign := identList(match[3])
		for n, name := range identList(match[1]) {
			i, err := columnIndex(*table, name)
			if err != nil {
				return err
			}
			ref := &core.Reference{Table: unquote(match[2]), Column: "id"}
			if n < len(foreign) {
				ref.Column = foreign[n]
			}
			table.Columns[i].IsForeignKey = true
			table.Columns[i].References = ref
		}
	}

	return nil
}

func identList(text string) []string {
	var names []string
	for _, part := range strings.Split(text, ",") {
		// Drop ASC/DESC and collations.
		if fields := strings.Fields(part); len(fields) > 0 {
			names = append(names, unquote(fields[0]))
		}
	}
	return names
}

func unquote(name string) string {
	return strings.ToLower(strings.Trim(name, "\"`[]"))
}

func columnIndex(table core.Table, name string) (int, error) {
	i := table.ColumnIndex(name)
	if i < 0 {
		return -1, fmt.Errorf("%w: unknown column '%s' in table '%s'", ErrImport, name, table.Name)
	}
	return i, nil
}

// reference points at the first foreign column, or at id when none is named.
func reference(table *rsql.Ident, columns []*rsql.Ident) *core.Reference {
	ref := &core.Reference{Table: strings.ToLower(table.Name), Column: "id"}
	if len(columns) > 0 {
		ref.Column = strings.ToLower(columns[0].Name)
	}
	return ref
}
