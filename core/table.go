package core

import (
	"maps"
	"strings"

	"github.com/google/uuid"
)

// DefaultPosition is where new tables are placed on the diagram canvas.
var DefaultPosition = Position{X: 100, Y: 100}

type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Reference struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Column struct {
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	IsPrimary     bool       `json:"isPrimary,omitempty"`
	AutoIncrement bool       `json:"autoIncrement,omitempty"`
	NotNull       bool       `json:"notNull,omitempty"`
	Unique        bool       `json:"unique,omitempty"`
	IsForeignKey  bool       `json:"isForeignKey,omitempty"`
	References    *Reference `json:"references,omitempty"`
}

// Generated reports whether the engine assigns the column's value on insert.
func (column Column) Generated() bool {
	return column.IsPrimary && column.AutoIncrement
}

// Row maps column names to values. Values are nil, float64, bool or string.
type Row map[string]any

type Table struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Columns  []Column  `json:"columns"`
	Rows     []Row     `json:"rows"`
	Position *Position `json:"position,omitempty"`
}

func NewTableID() string {
	return "t-" + uuid.NewString()
}

// ColumnIndex returns the index of the named column, or -1.
func (table Table) ColumnIndex(name string) int {
	for i, column := range table.Columns {
		if column.Name == name {
			return i
		}
	}
	return -1
}

func (table Table) ColumnNames() []string {
	names := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		names[i] = column.Name
	}
	return names
}

// Clone returns a deep copy. Numeric values are normalized to float64.
func (table Table) Clone() Table {
	clone := Table{
		ID:      table.ID,
		Name:    table.Name,
		Columns: make([]Column, len(table.Columns)),
		Rows:    make([]Row, len(table.Rows)),
	}

	for i, column := range table.Columns {
		if column.References != nil {
			ref := *column.References
			column.References = &ref
		}
		clone.Columns[i] = column
	}

	for i, row := range table.Rows {
		clone.Rows[i] = row.Clone()
	}

	if table.Position != nil {
		position := *table.Position
		clone.Position = &position
	}

	return clone
}

func (row Row) Clone() Row {
	clone := make(Row, len(row))
	for key, value := range row {
		clone[key] = Normalize(value)
	}
	return clone
}

// Copy is a shallow copy; values are immutable so it is safe to share them.
func (row Row) Copy() Row {
	return maps.Clone(row)
}

// Get returns the stored value or Undefined when the key is absent.
func (row Row) Get(column string) any {
	if value, ok := row[column]; ok {
		return value
	}
	return Undefined
}

func CloneTables(tables []Table) []Table {
	clones := make([]Table, len(tables))
	for i, table := range tables {
		clones[i] = table.Clone()
	}
	return clones
}

// FindTable looks a table up by name, ignoring case.
func FindTable(tables []Table, name string) int {
	for i, table := range tables {
		if strings.EqualFold(table.Name, name) {
			return i
		}
	}
	return -1
}
