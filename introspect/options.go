package introspect

// Option configures introspection behavior.
type Option func(*options)

type options struct {
	schema   string
	tables   []string
	rowLimit int
}

func defaultOptions() *options {
	return &options{
		schema: "public",
	}
}

// WithSchema selects the database schema to read. Defaults to "public".
func WithSchema(schema string) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// WithTables restricts introspection to the named tables.
func WithTables(tables ...string) Option {
	return func(o *options) {
		o.tables = tables
	}
}

// WithRows copies up to limit rows of each table. Zero copies none.
func WithRows(limit int) Option {
	return func(o *options) {
		o.rowLimit = limit
	}
}

func (o *options) includes(table string) bool {
	if len(o.tables) == 0 {
		return true
	}
	for _, name := range o.tables {
		if name == table {
			return true
		}
	}
	return false
}
