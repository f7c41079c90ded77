package introspect

import (
	"database/sql"
	"fmt"
	"strings"
)

var typeMappings = map[string]string{
	"integer":                     "INT",
	"bigint":                      "BIGINT",
	"smallint":                    "SMALLINT",
	"boolean":                     "BOOLEAN",
	"text":                        "TEXT",
	"character varying":           "VARCHAR",
	"character":                   "CHAR",
	"numeric":                     "DECIMAL",
	"real":                        "FLOAT",
	"double precision":            "DOUBLE",
	"timestamp without time zone": "TIMESTAMP",
	"timestamp with time zone":    "TIMESTAMPTZ",
	"date":                        "DATE",
	"time without time zone":      "TIME",
	"uuid":                        "UUID",
	"json":                        "JSON",
	"jsonb":                       "JSONB",
	"bytea":                       "BLOB",
	"user-defined":                "TEXT",
	"array":                       "TEXT",
}

// mapType converts a Postgres column type to the type shown in the playground.
func mapType(dataType string, charMaxLength, numericPrecision, numericScale sql.NullInt64) string {
	base, ok := typeMappings[strings.ToLower(dataType)]
	if !ok {
		return strings.ToUpper(dataType)
	}

	switch base {
	case "VARCHAR", "CHAR":
		if charMaxLength.Valid {
			return fmt.Sprintf("%s(%d)", base, charMaxLength.Int64)
		}
	case "DECIMAL":
		if numericPrecision.Valid && numericScale.Valid {
			return fmt.Sprintf("DECIMAL(%d,%d)", numericPrecision.Int64, numericScale.Int64)
		}
	}
	return base
}
