package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nickyhof/PlaygroundDB/core"
)

var ErrSyntax = errors.New("syntax error")

func syntaxError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

type StatementType int

const (
	SelectStatementType StatementType = iota
	InsertStatementType
	UpdateStatementType
	DeleteStatementType
	CreateTableStatementType
	DropTableStatementType
	AlterTableStatementType
)

func (statementType StatementType) String() string {
	switch statementType {
	case SelectStatementType:
		return "SELECT"
	case InsertStatementType:
		return "INSERT"
	case UpdateStatementType:
		return "UPDATE"
	case DeleteStatementType:
		return "DELETE"
	case CreateTableStatementType:
		return "CREATE"
	case DropTableStatementType:
		return "DROP"
	case AlterTableStatementType:
		return "ALTER"
	default:
		return "UNKNOWN"
	}
}

type Statement interface {
	Type() StatementType
}

type SelectStatement struct {
	Table   string
	Columns []string // empty means *
	Where   *WhereClause
	OrderBy *OrderByClause
	Limit   *int
	Offset  int
}

type InsertStatement struct {
	Table   string
	Columns []string // nil means every declared column, in order
	Rows    [][]any
}

type UpdateStatement struct {
	Table   string
	Updates []SetClause
	Where   *WhereClause
}

type SetClause struct {
	Column string
	Value  any
}

type DeleteStatement struct {
	Table string
	Where *WhereClause
}

type CreateTableStatement struct {
	Table       string
	Columns     []core.Column
	PrimaryKey  []string
	Unique      [][]string
	ForeignKeys []ForeignKeyClause
}

type ForeignKeyClause struct {
	Column    string
	RefTable  string
	RefColumn string
}

type DropTableStatement struct {
	Table string
}

type AlterAction int

const (
	AddColumnAction AlterAction = iota
	RenameColumnAction
)

type AlterTableStatement struct {
	Table         string
	Action        AlterAction
	Column        core.Column // for ADD
	ColumnName    string      // for RENAME
	NewColumnName string      // for RENAME
}

// WhereClause is a single comparison; compound conditions are not supported.
type WhereClause struct {
	Column   string
	Operator WhereOperator
	Value    any
}

type WhereOperator int

const (
	EqualsOperator WhereOperator = iota
	NotEqualsOperator
	LessThanOperator
	GreaterThanOperator
	LessThanOrEqualOperator
	GreaterThanOrEqualOperator
)

func (operator WhereOperator) String() string {
	switch operator {
	case EqualsOperator:
		return "="
	case NotEqualsOperator:
		return "<>"
	case LessThanOperator:
		return "<"
	case GreaterThanOperator:
		return ">"
	case LessThanOrEqualOperator:
		return "<="
	case GreaterThanOrEqualOperator:
		return ">="
	default:
		return "?"
	}
}

type OrderByClause struct {
	Column     string
	Descending bool
}

func (s SelectStatement) Type() StatementType {
	return SelectStatementType
}

func (s InsertStatement) Type() StatementType {
	return InsertStatementType
}

func (s UpdateStatement) Type() StatementType {
	return UpdateStatementType
}

func (s DeleteStatement) Type() StatementType {
	return DeleteStatementType
}

func (s CreateTableStatement) Type() StatementType {
	return CreateTableStatementType
}

func (s DropTableStatement) Type() StatementType {
	return DropTableStatementType
}

func (s AlterTableStatement) Type() StatementType {
	return AlterTableStatementType
}

type Parser struct {
	lexer *Lexer
}

func NewParser(sql string) *Parser {
	lexer := NewLexer(sql)
	return &Parser{lexer: lexer}
}

// Parse parses exactly one statement. A trailing semicolon is allowed.
func (parser *Parser) Parse() (Statement, error) {
	var statement Statement
	var err error

	token := parser.lexer.NextToken()
	switch token.Type {
	case Select:
		statement, err = ParseSelect(parser)
	case Insert:
		statement, err = ParseInsert(parser)
	case Update:
		statement, err = ParseUpdate(parser)
	case Delete:
		statement, err = ParseDelete(parser)
	case Create:
		statement, err = ParseCreate(parser)
	case Drop:
		statement, err = ParseDrop(parser)
	case Alter:
		statement, err = ParseAlter(parser)
	case EOF:
		return nil, syntaxError("empty statement")
	default:
		return nil, syntaxError("command '%s' not supported", toUpper(token.Value))
	}
	if err != nil {
		return nil, err
	}

	if err := parser.expectEnd(); err != nil {
		return nil, err
	}

	return statement, nil
}

func (parser *Parser) expectEnd() error {
	token := parser.lexer.NextToken()
	if token.Type == Semicolon {
		token = parser.lexer.NextToken()
	}
	if token.Type != EOF {
		return syntaxError("unexpected '%s'", token.Value)
	}
	return nil
}

func isName(token Token) bool {
	return token.Type == Identifier || token.IsKeyword()
}

// expectName reads a table or column name and lowercases it.
func (parser *Parser) expectName(what string) (string, error) {
	token := parser.lexer.NextToken()
	if !isName(token) {
		return "", syntaxError("expected %s", what)
	}
	return toLower(token.Value), nil
}

func (parser *Parser) expect(tokenType TokenType, what string) error {
	if parser.lexer.NextToken().Type != tokenType {
		return syntaxError("expected %s", what)
	}
	return nil
}

// parseNameList parses "(a, b, c)".
func (parser *Parser) parseNameList(what string) ([]string, error) {
	if err := parser.expect(ParenOpen, "'(' before "+what); err != nil {
		return nil, err
	}

	var names []string
	for {
		name, err := parser.expectName(what)
		if err != nil {
			return nil, err
		}
		names = append(names, name)

		token := parser.lexer.NextToken()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			return names, nil
		} else {
			return nil, syntaxError("expected ',' or ')' in %s", what)
		}
	}
}

// parseValue reads one literal and casts it with CastValue.
func (parser *Parser) parseValue(what string) (any, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case String, Int, Float, Null, True, False, Identifier:
		return CastValue(token.Raw()), nil
	default:
		return nil, syntaxError("expected value %s", what)
	}
}

func ParseSelect(parser *Parser) (Statement, error) {
	var selectStatement SelectStatement

	token := parser.lexer.PeekToken()
	if token.Type == Wildcard {
		parser.lexer.NextToken()
		selectStatement.Columns = []string{}
	} else {
		for {
			column, err := parser.expectName("column name in SELECT")
			if err != nil {
				return nil, err
			}
			selectStatement.Columns = append(selectStatement.Columns, column)

			if parser.lexer.PeekToken().Type != Comma {
				break
			}
			parser.lexer.NextToken() // consume comma
		}
	}

	if err := parser.expect(From, "FROM after column list"); err != nil {
		return nil, err
	}

	table, err := parser.expectName("table name after FROM")
	if err != nil {
		return nil, err
	}
	selectStatement.Table = table

	token = parser.lexer.PeekToken()

	if token.Type == Where {
		parser.lexer.NextToken()
		whereClause, err := ParseWhere(parser)
		if err != nil {
			return nil, err
		}
		selectStatement.Where = whereClause
		token = parser.lexer.PeekToken()
	}

	if token.Type == Order {
		parser.lexer.NextToken()
		if err := parser.expect(By, "BY after ORDER"); err != nil {
			return nil, err
		}
		column, err := parser.expectName("column name in ORDER BY")
		if err != nil {
			return nil, err
		}
		orderByClause := &OrderByClause{Column: column}

		peek := parser.lexer.PeekToken()
		if peek.Type == Asc {
			parser.lexer.NextToken()
		} else if peek.Type == Desc {
			parser.lexer.NextToken()
			orderByClause.Descending = true
		}

		selectStatement.OrderBy = orderByClause
		token = parser.lexer.PeekToken()
	}

	if token.Type == Limit {
		parser.lexer.NextToken()
		limit, err := parser.parseCount("LIMIT")
		if err != nil {
			return nil, err
		}
		selectStatement.Limit = &limit
		token = parser.lexer.PeekToken()
	}

	if token.Type == Offset {
		parser.lexer.NextToken()
		offset, err := parser.parseCount("OFFSET")
		if err != nil {
			return nil, err
		}
		selectStatement.Offset = offset
	}

	return selectStatement, nil
}

func (parser *Parser) parseCount(clause string) (int, error) {
	token := parser.lexer.NextToken()
	if token.Type != Int {
		return 0, syntaxError("expected integer after %s", clause)
	}
	n, err := strconv.Atoi(token.Value)
	if err != nil || n < 0 {
		return 0, syntaxError("invalid %s '%s'", clause, token.Value)
	}
	return n, nil
}

// ParseWhere parses "<column> <op> <value>". The WHERE keyword is already consumed.
func ParseWhere(parser *Parser) (*WhereClause, error) {
	column, err := parser.expectName("column name in WHERE clause")
	if err != nil {
		return nil, err
	}

	var operator WhereOperator
	token := parser.lexer.NextToken()
	switch token.Type {
	case Equals:
		operator = EqualsOperator
	case NotEquals:
		operator = NotEqualsOperator
	case LessThan:
		operator = LessThanOperator
	case GreaterThan:
		operator = GreaterThanOperator
	case LessThanOrEqual:
		operator = LessThanOrEqualOperator
	case GreaterThanOrEqual:
		operator = GreaterThanOrEqualOperator
	default:
		return nil, syntaxError("expected comparison operator after '%s' in WHERE clause", column)
	}

	value, err := parser.parseValue("in WHERE clause")
	if err != nil {
		return nil, err
	}

	return &WhereClause{Column: column, Operator: operator, Value: value}, nil
}

func parseOptionalWhere(parser *Parser) (*WhereClause, error) {
	if parser.lexer.PeekToken().Type != Where {
		return nil, nil
	}
	parser.lexer.NextToken()
	return ParseWhere(parser)
}

func ParseInsert(parser *Parser) (Statement, error) {
	var insertStatement InsertStatement

	if err := parser.expect(Into, "INTO after INSERT"); err != nil {
		return nil, err
	}

	table, err := parser.expectName("table name after INSERT INTO")
	if err != nil {
		return nil, err
	}
	insertStatement.Table = table

	if parser.lexer.PeekToken().Type == ParenOpen {
		columns, err := parser.parseNameList("column list")
		if err != nil {
			return nil, err
		}
		insertStatement.Columns = columns
	}

	if err := parser.expect(Values, "VALUES"); err != nil {
		return nil, err
	}

	for {
		if err := parser.expect(ParenOpen, "'(' before values"); err != nil {
			return nil, err
		}

		var values []any
		for {
			value, err := parser.parseValue("in VALUES list")
			if err != nil {
				return nil, err
			}
			values = append(values, value)

			token := parser.lexer.NextToken()
			if token.Type == Comma {
				continue
			} else if token.Type == ParenClose {
				break
			} else {
				return nil, syntaxError("expected ',' or ')' in values list")
			}
		}
		insertStatement.Rows = append(insertStatement.Rows, values)

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken() // consume comma
	}

	return insertStatement, nil
}

func ParseUpdate(parser *Parser) (Statement, error) {
	var updateStatement UpdateStatement

	table, err := parser.expectName("table name after UPDATE")
	if err != nil {
		return nil, err
	}
	updateStatement.Table = table

	if err := parser.expect(Set, "SET after table name"); err != nil {
		return nil, err
	}

	for {
		column, err := parser.expectName("column name in SET clause")
		if err != nil {
			return nil, err
		}

		if err := parser.expect(Equals, "'=' in SET clause"); err != nil {
			return nil, err
		}

		value, err := parser.parseValue("in SET clause")
		if err != nil {
			return nil, err
		}

		updateStatement.Updates = append(updateStatement.Updates, SetClause{
			Column: column,
			Value:  value,
		})

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken() // consume comma
	}

	where, err := parseOptionalWhere(parser)
	if err != nil {
		return nil, err
	}
	updateStatement.Where = where

	return updateStatement, nil
}

func ParseDelete(parser *Parser) (Statement, error) {
	var deleteStatement DeleteStatement

	if err := parser.expect(From, "FROM after DELETE"); err != nil {
		return nil, err
	}

	table, err := parser.expectName("table name after FROM")
	if err != nil {
		return nil, err
	}
	deleteStatement.Table = table

	where, err := parseOptionalWhere(parser)
	if err != nil {
		return nil, err
	}
	deleteStatement.Where = where

	return deleteStatement, nil
}

func ParseCreate(parser *Parser) (Statement, error) {
	if err := parser.expect(TableIdentifier, "TABLE after CREATE"); err != nil {
		return nil, err
	}
	return ParseCreateTable(parser)
}

func ParseCreateTable(parser *Parser) (Statement, error) {
	var createTableStatement CreateTableStatement

	table, err := parser.expectName("table name after TABLE")
	if err != nil {
		return nil, err
	}
	createTableStatement.Table = table

	if err := parser.expect(ParenOpen, "'(' after table name"); err != nil {
		return nil, err
	}

	for {
		token := parser.lexer.PeekToken()
		if token.Type == Constraint {
			parser.lexer.NextToken()
			if _, err := parser.expectName("constraint name"); err != nil {
				return nil, err
			}
			token = parser.lexer.PeekToken()
		}

		switch token.Type {
		case PrimaryKey:
			parser.lexer.NextToken()
			columns, err := parser.parseNameList("PRIMARY KEY columns")
			if err != nil {
				return nil, err
			}
			createTableStatement.PrimaryKey = append(createTableStatement.PrimaryKey, columns...)
		case Unique:
			parser.lexer.NextToken()
			columns, err := parser.parseNameList("UNIQUE columns")
			if err != nil {
				return nil, err
			}
			createTableStatement.Unique = append(createTableStatement.Unique, columns)
		case ForeignKey:
			parser.lexer.NextToken()
			columns, err := parser.parseNameList("FOREIGN KEY columns")
			if err != nil {
				return nil, err
			}
			if err := parser.expect(References, "REFERENCES after FOREIGN KEY"); err != nil {
				return nil, err
			}
			reference, err := parser.parseReference()
			if err != nil {
				return nil, err
			}
			for _, column := range columns {
				createTableStatement.ForeignKeys = append(createTableStatement.ForeignKeys, ForeignKeyClause{
					Column:    column,
					RefTable:  reference.Table,
					RefColumn: reference.Column,
				})
			}
		default:
			column, err := ParseColumnDefinition(parser)
			if err != nil {
				return nil, err
			}
			createTableStatement.Columns = append(createTableStatement.Columns, column)
		}

		token = parser.lexer.NextToken()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			break
		} else {
			return nil, syntaxError("expected ',' or ')' in column list")
		}
	}

	if len(createTableStatement.Columns) == 0 {
		return nil, syntaxError("expected at least one column definition")
	}

	return createTableStatement, nil
}

// ParseColumnDefinition parses "<name> <type> [constraints...]". Constraint
// detection is loose: PRIMARY KEY, AUTOINCREMENT/SERIAL, NOT NULL, UNIQUE and
// REFERENCES set their flags wherever they appear, and anything else up to
// the next top-level ',' or ')' is skipped.
func ParseColumnDefinition(parser *Parser) (core.Column, error) {
	var column core.Column

	name, err := parser.expectName("column name")
	if err != nil {
		return column, err
	}
	column.Name = name

	columnType, err := parser.parseColumnType()
	if err != nil {
		return column, err
	}
	column.Type = columnType
	if strings.Contains(columnType, "SERIAL") {
		column.AutoIncrement = true
	}

	for {
		token := parser.lexer.PeekToken()
		switch token.Type {
		case Comma, ParenClose, EOF, Semicolon:
			return column, nil
		case PrimaryKey:
			column.IsPrimary = true
		case AutoIncrement:
			column.AutoIncrement = true
		case Unique:
			column.Unique = true
		case Not:
			parser.lexer.NextToken()
			if parser.lexer.PeekToken().Type == Null {
				column.NotNull = true
			} else {
				continue
			}
		case References:
			parser.lexer.NextToken()
			reference, err := parser.parseReference()
			if err != nil {
				return column, err
			}
			column.IsForeignKey = true
			column.References = reference
			continue
		case ParenOpen:
			if err := parser.skipParenthesized(); err != nil {
				return column, err
			}
			continue
		}
		parser.lexer.NextToken()
	}
}

// parseColumnType reads a type name with optional arguments, e.g. VARCHAR(255).
func (parser *Parser) parseColumnType() (string, error) {
	token := parser.lexer.NextToken()
	if token.Type != Identifier && token.Type != AutoIncrement {
		return "", syntaxError("expected column type")
	}
	columnType := toUpper(token.Value)

	if parser.lexer.PeekToken().Type != ParenOpen {
		return columnType, nil
	}
	parser.lexer.NextToken()

	var args []string
	for {
		token = parser.lexer.NextToken()
		switch token.Type {
		case Int, Float, Identifier:
			args = append(args, token.Value)
		case Comma:
		case ParenClose:
			return columnType + "(" + strings.Join(args, ",") + ")", nil
		default:
			return "", syntaxError("unexpected '%s' in type arguments", token.Value)
		}
	}
}

// parseReference parses "<table> [(<column>)]" after REFERENCES.
func (parser *Parser) parseReference() (*core.Reference, error) {
	table, err := parser.expectName("table name after REFERENCES")
	if err != nil {
		return nil, err
	}
	reference := &core.Reference{Table: table}

	if parser.lexer.PeekToken().Type == ParenOpen {
		columns, err := parser.parseNameList("referenced column")
		if err != nil {
			return nil, err
		}
		reference.Column = columns[0]
	}

	return reference, nil
}

func (parser *Parser) skipParenthesized() error {
	depth := 0
	for {
		token := parser.lexer.NextToken()
		switch token.Type {
		case ParenOpen:
			depth++
		case ParenClose:
			depth--
			if depth == 0 {
				return nil
			}
		case EOF:
			return syntaxError("unbalanced parentheses")
		}
	}
}

func ParseDrop(parser *Parser) (Statement, error) {
	if err := parser.expect(TableIdentifier, "TABLE after DROP"); err != nil {
		return nil, err
	}

	table, err := parser.expectName("table name after DROP TABLE")
	if err != nil {
		return nil, err
	}

	return DropTableStatement{Table: table}, nil
}

// ParseAlter parses ALTER TABLE t ADD [COLUMN] <definition> and
// ALTER TABLE t RENAME COLUMN old TO new.
func ParseAlter(parser *Parser) (Statement, error) {
	if err := parser.expect(TableIdentifier, "TABLE after ALTER"); err != nil {
		return nil, err
	}

	var statement AlterTableStatement

	table, err := parser.expectName("table name")
	if err != nil {
		return nil, err
	}
	statement.Table = table

	token := parser.lexer.NextToken()
	switch token.Type {
	case Add:
		statement.Action = AddColumnAction
		if parser.lexer.PeekToken().Type == Column {
			parser.lexer.NextToken()
		}
		column, err := ParseColumnDefinition(parser)
		if err != nil {
			return nil, err
		}
		statement.Column = column

	case Rename:
		statement.Action = RenameColumnAction
		if parser.lexer.NextToken().Type != Column {
			return nil, syntaxError("ALTER TABLE syntax not supported")
		}
		if statement.ColumnName, err = parser.expectName("column name after RENAME COLUMN"); err != nil {
			return nil, err
		}
		if err := parser.expect(To, "TO after RENAME COLUMN "+statement.ColumnName); err != nil {
			return nil, err
		}
		if statement.NewColumnName, err = parser.expectName("new column name after TO"); err != nil {
			return nil, err
		}

	default:
		return nil, syntaxError("ALTER TABLE syntax not supported")
	}

	return statement, nil
}

func parse(sql string) (Statement, error) {
	parser := NewParser(sql)

	return parser.Parse()
}
