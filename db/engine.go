package db

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/sql"
)

// Engine runs one script against a private copy of a table list. Construct a
// new Engine for every script; it keeps no state between calls.
type Engine struct {
	tables []core.Table
}

func NewEngine(tables []core.Table) *Engine {
	return &Engine{
		tables: core.CloneTables(tables),
	}
}

// Tables returns the engine's current table list.
func (engine *Engine) Tables() []core.Table {
	return engine.tables
}

// Execute runs every statement of the script in order. Each statement sees
// the effects of the statements before it. A failing statement leaves the
// table list untouched and does not stop the script.
func (engine *Engine) Execute(script string) ExecuteResult {
	statements := sql.Split(script)
	if len(statements) == 0 {
		return ExecuteResult{
			Results: []StatementResult{{
				Success: false,
				Message: "empty query",
				Error:   ErrEmptyInput.Error(),
				Err:     ErrEmptyInput,
			}},
			UpdatedTables: engine.tables,
		}
	}

	results := make([]StatementResult, 0, len(statements))
	for _, text := range statements {
		startTime := time.Now()

		result, tables, err := engine.executeStatement(engine.tables, text)
		if err != nil {
			result = failure(text, sql.Keyword(text), err)
		} else {
			engine.tables = tables
		}

		result.Statement = text
		result.ExecutionTimeSec = time.Since(startTime).Seconds()
		results = append(results, result)
	}

	return ExecuteResult{
		Results:       results,
		UpdatedTables: engine.tables,
	}
}

// executeStatement parses one statement and hands the current snapshot to
// its handler. Handlers never modify the snapshot they receive; they return
// a new one.
func (engine *Engine) executeStatement(tables []core.Table, text string) (StatementResult, []core.Table, error) {
	parser := sql.NewParser(text)
	statement, err := parser.Parse()
	if err != nil {
		return StatementResult{}, nil, err
	}

	var result StatementResult
	switch statement.Type() {
	case sql.SelectStatementType:
		result, tables, err = engine.executeSelectStatement(tables, statement.(sql.SelectStatement))
	case sql.InsertStatementType:
		result, tables, err = engine.executeInsertStatement(tables, statement.(sql.InsertStatement))
	case sql.UpdateStatementType:
		result, tables, err = engine.executeUpdateStatement(tables, statement.(sql.UpdateStatement))
	case sql.DeleteStatementType:
		result, tables, err = engine.executeDeleteStatement(tables, statement.(sql.DeleteStatement))
	case sql.CreateTableStatementType:
		result, tables, err = engine.executeCreateTableStatement(tables, statement.(sql.CreateTableStatement))
	case sql.DropTableStatementType:
		result, tables, err = engine.executeDropTableStatement(tables, statement.(sql.DropTableStatement))
	case sql.AlterTableStatementType:
		result, tables, err = engine.executeAlterTableStatement(tables, statement.(sql.AlterTableStatement))
	default:
		return StatementResult{}, nil, fmt.Errorf("%w: unsupported statement type: %v", ErrSyntax, statement.Type())
	}
	if err != nil {
		return StatementResult{}, nil, err
	}

	result.Success = true
	result.Command = statement.Type().String()
	return result, tables, nil
}

func lookupTable(tables []core.Table, name string) (int, core.Table, error) {
	index := core.FindTable(tables, name)
	if index < 0 {
		return -1, core.Table{}, tableNotFound(name)
	}
	return index, tables[index], nil
}

func replaceTable(tables []core.Table, index int, table core.Table) []core.Table {
	updated := slices.Clone(tables)
	updated[index] = table
	return updated
}

func (engine *Engine) executeSelectStatement(tables []core.Table, statement sql.SelectStatement) (StatementResult, []core.Table, error) {
	_, table, err := lookupTable(tables, statement.Table)
	if err != nil {
		return StatementResult{}, nil, err
	}

	var rows []core.Row
	for _, row := range table.Rows {
		if matchesWhereClause(row, statement.Where) {
			rows = append(rows, row)
		}
	}

	if statement.OrderBy != nil {
		sortRows(rows, *statement.OrderBy)
	}

	rows = applyLimit(rows, statement.Offset, statement.Limit)

	columns := statement.Columns
	if len(columns) == 0 {
		columns = table.ColumnNames()
	}

	data := make([]core.Row, len(rows))
	for i, row := range rows {
		data[i] = projectRow(row, statement.Columns)
	}

	return StatementResult{
		Data:    data,
		Columns: columns,
		Message: fmt.Sprintf("%d row(s) found", len(data)),
	}, tables, nil
}

// projectRow copies the requested keys. Keys the row does not have stay absent.
func projectRow(row core.Row, columns []string) core.Row {
	if len(columns) == 0 {
		return row.Copy()
	}

	projected := make(core.Row, len(columns))
	for _, column := range columns {
		if value, ok := row[column]; ok {
			projected[column] = value
		}
	}
	return projected
}

// sortRows orders rows with a stable three-way comparison. Values that do not
// order against each other (text against numbers, absent keys) compare equal.
func sortRows(rows []core.Row, orderBy sql.OrderByClause) {
	sort.SliceStable(rows, func(i, j int) bool {
		result, ok := core.Compare(rows[i].Get(orderBy.Column), rows[j].Get(orderBy.Column))
		if !ok {
			return false
		}
		if orderBy.Descending {
			return result > 0
		}
		return result < 0
	})
}

func applyLimit(rows []core.Row, offset int, limit *int) []core.Row {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit != nil && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}

// executeInsertStatement applies every tuple or none of them.
func (engine *Engine) executeInsertStatement(tables []core.Table, statement sql.InsertStatement) (StatementResult, []core.Table, error) {
	index, table, err := lookupTable(tables, statement.Table)
	if err != nil {
		return StatementResult{}, nil, err
	}

	columns := statement.Columns
	if columns == nil {
		columns = table.ColumnNames()
	}

	rows := slices.Clone(table.Rows)
	for i, values := range statement.Rows {
		if len(values) != len(columns) {
			return StatementResult{}, nil, shapeError("tuple %d has %d value(s) for %d column(s)", i+1, len(values), len(columns))
		}

		row := make(core.Row, len(table.Columns))
		for _, column := range table.Columns {
			if column.Generated() {
				row[column.Name] = nextAutoIncrement(rows, column.Name)
			} else {
				row[column.Name] = nil
			}
		}

		for j, name := range columns {
			if table.ColumnIndex(name) < 0 {
				return StatementResult{}, nil, schemaError("column '%s' does not exist in table '%s'", name, table.Name)
			}
			row[name] = values[j]
		}

		rows = append(rows, row)
	}

	table.Rows = rows
	inserted := len(statement.Rows)

	return StatementResult{
		AffectedRows: affected(inserted),
		Message:      fmt.Sprintf("%d row(s) inserted", inserted),
	}, replaceTable(tables, index, table), nil
}

// nextAutoIncrement is one more than the largest numeric value in the column.
// Values that are not numbers count as 0, so an empty table starts at 1.
func nextAutoIncrement(rows []core.Row, column string) float64 {
	highest := 0.0
	for _, row := range rows {
		n := core.ToNumber(row.Get(column))
		if math.IsNaN(n) {
			continue
		}
		highest = max(highest, n)
	}
	return highest + 1
}

func (engine *Engine) executeUpdateStatement(tables []core.Table, statement sql.UpdateStatement) (StatementResult, []core.Table, error) {
	index, table, err := lookupTable(tables, statement.Table)
	if err != nil {
		return StatementResult{}, nil, err
	}

	updatedCount := 0
	rows := make([]core.Row, len(table.Rows))
	for i, row := range table.Rows {
		if !matchesWhereClause(row, statement.Where) {
			rows[i] = row
			continue
		}

		updated := row.Copy()
		for _, set := range statement.Updates {
			updated[set.Column] = set.Value
		}
		rows[i] = updated
		updatedCount++
	}

	table.Rows = rows

	return StatementResult{
		AffectedRows: affected(updatedCount),
		Message:      fmt.Sprintf("%d row(s) updated", updatedCount),
	}, replaceTable(tables, index, table), nil
}

func (engine *Engine) executeDeleteStatement(tables []core.Table, statement sql.DeleteStatement) (StatementResult, []core.Table, error) {
	index, table, err := lookupTable(tables, statement.Table)
	if err != nil {
		return StatementResult{}, nil, err
	}

	rows := make([]core.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		if !matchesWhereClause(row, statement.Where) {
			rows = append(rows, row)
		}
	}

	deleted := len(table.Rows) - len(rows)
	table.Rows = rows

	return StatementResult{
		AffectedRows: affected(deleted),
		Message:      fmt.Sprintf("%d row(s) deleted", deleted),
	}, replaceTable(tables, index, table), nil
}

func (engine *Engine) executeCreateTableStatement(tables []core.Table, statement sql.CreateTableStatement) (StatementResult, []core.Table, error) {
	if core.FindTable(tables, statement.Table) >= 0 {
		return StatementResult{}, nil, schemaError("table '%s' already exists", statement.Table)
	}

	table := core.Table{
		ID:      core.NewTableID(),
		Name:    statement.Table,
		Columns: slices.Clone(statement.Columns),
		Rows:    []core.Row{},
	}
	position := core.DefaultPosition
	table.Position = &position

	seen := make(map[string]bool, len(table.Columns))
	for _, column := range table.Columns {
		if seen[column.Name] {
			return StatementResult{}, nil, schemaError("duplicate column '%s' in table '%s'", column.Name, table.Name)
		}
		seen[column.Name] = true
	}

	for _, name := range statement.PrimaryKey {
		i := table.ColumnIndex(name)
		if i < 0 {
			return StatementResult{}, nil, schemaError("PRIMARY KEY column '%s' does not exist", name)
		}
		table.Columns[i].IsPrimary = true
	}

	for _, names := range statement.Unique {
		for _, name := range names {
			if table.ColumnIndex(name) < 0 {
				return StatementResult{}, nil, schemaError("UNIQUE column '%s' does not exist", name)
			}
		}
		if len(names) == 1 {
			table.Columns[table.ColumnIndex(names[0])].Unique = true
		}
	}

	for _, foreignKey := range statement.ForeignKeys {
		i := table.ColumnIndex(foreignKey.Column)
		if i < 0 {
			return StatementResult{}, nil, schemaError("FOREIGN KEY column '%s' does not exist", foreignKey.Column)
		}
		table.Columns[i].IsForeignKey = true
		table.Columns[i].References = &core.Reference{Table: foreignKey.RefTable, Column: foreignKey.RefColumn}
	}

	return StatementResult{
		Message: fmt.Sprintf("table '%s' created", table.Name),
	}, append(slices.Clone(tables), table), nil
}

func (engine *Engine) executeDropTableStatement(tables []core.Table, statement sql.DropTableStatement) (StatementResult, []core.Table, error) {
	index, table, err := lookupTable(tables, statement.Table)
	if err != nil {
		return StatementResult{}, nil, err
	}

	return StatementResult{
		Message: fmt.Sprintf("table '%s' dropped", table.Name),
	}, slices.Delete(slices.Clone(tables), index, index+1), nil
}

func (engine *Engine) executeAlterTableStatement(tables []core.Table, statement sql.AlterTableStatement) (StatementResult, []core.Table, error) {
	index, table, err := lookupTable(tables, statement.Table)
	if err != nil {
		return StatementResult{}, nil, err
	}

	var message string

	switch statement.Action {
	case sql.AddColumnAction:
		column := statement.Column
		if table.ColumnIndex(column.Name) >= 0 {
			return StatementResult{}, nil, schemaError("column '%s' already exists in table '%s'", column.Name, table.Name)
		}

		table.Columns = append(slices.Clone(table.Columns), column)

		rows := make([]core.Row, len(table.Rows))
		for i, row := range table.Rows {
			rows[i] = row.Copy()
			rows[i][column.Name] = nil
		}
		table.Rows = rows

		message = fmt.Sprintf("column '%s' added to table '%s'", column.Name, table.Name)

	case sql.RenameColumnAction:
		oldName, newName := statement.ColumnName, statement.NewColumnName

		i := table.ColumnIndex(oldName)
		if i < 0 {
			return StatementResult{}, nil, schemaError("column '%s' does not exist in table '%s'", oldName, table.Name)
		}
		if oldName != newName && table.ColumnIndex(newName) >= 0 {
			return StatementResult{}, nil, schemaError("column '%s' already exists in table '%s'", newName, table.Name)
		}

		table.Columns = slices.Clone(table.Columns)
		table.Columns[i].Name = newName

		rows := make([]core.Row, len(table.Rows))
		for j, row := range table.Rows {
			renamed := row.Copy()
			if value, ok := renamed[oldName]; ok {
				delete(renamed, oldName)
				renamed[newName] = value
			}
			rows[j] = renamed
		}
		table.Rows = rows

		message = fmt.Sprintf("column '%s' renamed to '%s' in table '%s'", oldName, newName, table.Name)

	default:
		return StatementResult{}, nil, fmt.Errorf("%w: ALTER TABLE syntax not supported", ErrSyntax)
	}

	return StatementResult{
		Message: message,
	}, replaceTable(tables, index, table), nil
}
