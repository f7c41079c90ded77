package op

import (
	"errors"
	"iter"

	"github.com/nickyhof/PlaygroundDB/core"
)

// TableOp gives read access to one table of a loaded project.
type TableOp struct {
	Table core.Table
}

func (op *TableOp) PrimaryKey() (pk *string, err error) {
	for _, col := range op.Table.Columns {
		if col.IsPrimary {
			return &col.Name, nil
		}
	}

	return nil, errors.New("no primary key found")
}

// Get returns the first row whose primary key loosely equals key.
func (op *TableOp) Get(key any) (row core.Row, exists bool) {
	pk, err := op.PrimaryKey()
	if err != nil {
		return nil, false
	}

	for match := range op.ScanWithFilter(func(row core.Row) bool {
		return core.LooseEquals(row.Get(*pk), key)
	}) {
		return match, true
	}
	return nil, false
}

func (op *TableOp) Count() int {
	return len(op.Table.Rows)
}

func (op *TableOp) Scan() iter.Seq[core.Row] {
	return op.ScanWithFilter(nil)
}

// ScanWithFilter yields copies of the rows the filter accepts, in storage order.
func (op *TableOp) ScanWithFilter(filterExpr func(row core.Row) bool) iter.Seq[core.Row] {
	return func(yield func(core.Row) bool) {
		for _, row := range op.Table.Rows {
			if filterExpr != nil && !filterExpr(row) {
				continue
			}
			if !yield(row.Copy()) {
				return
			}
		}
	}
}
