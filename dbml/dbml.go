// Package dbml converts project tables to and from the playground's DBML
// dialect.
//
// Basic usage:
//
//	text := dbml.Generate(tables)
//	tables, err := dbml.Parse(text, tables)
//
// The dialect is a subset of DBML:
//
//	Table usuarios {
//	  id INT [pk, increment]
//	  nombre TEXT [not null]
//	  pais_id INT [ref: > paises.id]
//	}
package dbml

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nickyhof/PlaygroundDB/core"
)

var ErrParse = errors.New("dbml parse error")

var (
	tablePattern  = regexp.MustCompile(`(?i)^Table\s+(\w+)\s*\{$`)
	columnPattern = regexp.MustCompile(`^(\w+)\s+(\w+(?:\s*\([\d\s,]*\))?)(?:\s+\[(.*)\])?$`)
	refPattern    = regexp.MustCompile(`^ref:\s*>\s*(\w+)\.(\w+)$`)
)

// Generate renders tables in declaration order. Columns keep their order,
// attributes are emitted as [pk, increment, not null, unique, ref: > t.c].
func Generate(tables []core.Table) string {
	var builder strings.Builder

	for i, table := range tables {
		if i > 0 {
			builder.WriteString("\n")
		}
		generateTable(&builder, table)
	}

	return builder.String()
}

func generateTable(builder *strings.Builder, table core.Table) {
	builder.WriteString(fmt.Sprintf("Table %s {\n", table.Name))
	for _, column := range table.Columns {
		generateColumn(builder, column)
	}
	builder.WriteString("}\n")
}

func generateColumn(builder *strings.Builder, column core.Column) {
	builder.WriteString(fmt.Sprintf("  %s %s", column.Name, column.Type))

	var attributes []string
	if column.IsPrimary {
		attributes = append(attributes, "pk")
	}
	if column.AutoIncrement {
		attributes = append(attributes, "increment")
	}
	if column.NotNull {
		attributes = append(attributes, "not null")
	}
	if column.Unique {
		attributes = append(attributes, "unique")
	}
	if column.IsForeignKey && column.References != nil {
		attributes = append(attributes, fmt.Sprintf("ref: > %s.%s", column.References.Table, column.References.Column))
	}

	if len(attributes) > 0 {
		builder.WriteString(fmt.Sprintf(" [%s]", strings.Join(attributes, ", ")))
	}
	builder.WriteString("\n")
}

// Parse reads DBML text into tables. A table whose name matches one of
// existing keeps that table's id, rows and position; new tables get a fresh
// id. Names are lowercased and types uppercased.
func Parse(text string, existing []core.Table) ([]core.Table, error) {
	var tables []core.Table
	var current *core.Table
	seen := make(map[string]bool)

	for n, line := range strings.Split(text, "\n") {
		lineNo := n + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		if match := tablePattern.FindStringSubmatch(trimmed); match != nil {
			if current != nil {
				return nil, fmt.Errorf("%w: line %d: table '%s' is not closed", ErrParse, lineNo, current.Name)
			}
			name := strings.ToLower(match[1])
			if seen[name] {
				return nil, fmt.Errorf("%w: line %d: duplicate table '%s'", ErrParse, lineNo, name)
			}
			seen[name] = true
			current = newTable(name, existing)
			continue
		}

		if trimmed == "}" {
			if current == nil {
				return nil, fmt.Errorf("%w: line %d: unexpected '}'", ErrParse, lineNo)
			}
			tables = append(tables, *current)
			current = nil
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("%w: line %d: expected 'Table name {'", ErrParse, lineNo)
		}

		column, err := parseColumn(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, lineNo, err)
		}
		if current.ColumnIndex(column.Name) >= 0 {
			return nil, fmt.Errorf("%w: line %d: duplicate column '%s'", ErrParse, lineNo, column.Name)
		}
		current.Columns = append(current.Columns, column)
	}

	if current != nil {
		return nil, fmt.Errorf("%w: table '%s' is not closed", ErrParse, current.Name)
	}

	return tables, nil
}

func newTable(name string, existing []core.Table) *core.Table {
	table := &core.Table{Name: name, Rows: []core.Row{}}

	for _, candidate := range existing {
		if candidate.Name == name {
			clone := candidate.Clone()
			table.ID = clone.ID
			table.Rows = clone.Rows
			table.Position = clone.Position
			return table
		}
	}

	table.ID = core.NewTableID()
	return table
}

func parseColumn(line string) (core.Column, error) {
	match := columnPattern.FindStringSubmatch(line)
	if match == nil {
		return core.Column{}, fmt.Errorf("invalid column definition %q", line)
	}

	column := core.Column{
		Name: strings.ToLower(match[1]),
		Type: strings.ToUpper(strings.Join(strings.Fields(match[2]), "")),
	}

	if match[3] == "" {
		return column, nil
	}

	for _, attribute := range strings.Split(match[3], ",") {
		attribute = strings.ToLower(strings.TrimSpace(attribute))
		switch {
		case attribute == "pk" || attribute == "primary key":
			column.IsPrimary = true
		case attribute == "increment":
			column.AutoIncrement = true
		case attribute == "not null":
			column.NotNull = true
		case attribute == "unique":
			column.Unique = true
		case strings.HasPrefix(attribute, "ref:"):
			ref := refPattern.FindStringSubmatch(attribute)
			if ref == nil {
				return core.Column{}, fmt.Errorf("invalid reference %q", attribute)
			}
			column.IsForeignKey = true
			column.References = &core.Reference{Table: ref[1], Column: ref[2]}
		}
	}

	return column, nil
}
