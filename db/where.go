package db

import (
	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/sql"
)

// matchesWhereClause reports whether a row passes the filter. No filter
// matches every row; a column the row does not have reads as undefined.
func matchesWhereClause(row core.Row, where *sql.WhereClause) bool {
	if where == nil {
		return true
	}
	return evaluateCondition(row.Get(where.Column), where.Operator, where.Value)
}

// evaluateCondition uses loose equality for = and <>, and relational
// coercion for the ordering operators.
func evaluateCondition(left any, operator sql.WhereOperator, right any) bool {
	switch operator {
	case sql.EqualsOperator:
		return core.LooseEquals(left, right)
	case sql.NotEqualsOperator:
		return !core.LooseEquals(left, right)
	}

	result, ok := core.Compare(left, right)
	if !ok {
		return false
	}

	switch operator {
	case sql.LessThanOperator:
		return result < 0
	case sql.GreaterThanOperator:
		return result > 0
	case sql.LessThanOrEqualOperator:
		return result <= 0
	case sql.GreaterThanOrEqualOperator:
		return result >= 0
	default:
		return false
	}
}
