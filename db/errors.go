package db

import (
	"errors"
	"fmt"

	"github.com/nickyhof/PlaygroundDB/sql"
)

var (
	// ErrSyntax marks an unrecognized command or a malformed statement.
	ErrSyntax = sql.ErrSyntax
	// ErrSchema marks a missing or duplicate table or column.
	ErrSchema = errors.New("schema error")
	// ErrShape marks an INSERT tuple whose size differs from its column list.
	ErrShape = errors.New("shape error")
	// ErrEmptyInput is returned when a script holds no statements.
	ErrEmptyInput = errors.New("no valid SQL statements")
)

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

func shapeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}

func tableNotFound(name string) error {
	return schemaError("table '%s' not found", name)
}
