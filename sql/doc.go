// Package sql provides SQL lexing and parsing for PlaygroundDB.
//
// A script is first cut into statements with Split, which drops comments and
// honors quoted strings. Each statement is then parsed into a tagged
// Statement value.
//
// # Lexer Usage
//
//	lexer := sql.NewLexer("SELECT * FROM usuarios")
//	for {
//	    token := lexer.NextToken()
//	    if token.Type == sql.EOF {
//	        break
//	    }
//	    fmt.Println(token)
//	}
//
// # Parser Usage
//
//	for _, text := range sql.Split(script) {
//	    statement, err := sql.NewParser(text).Parse()
//	    if err != nil {
//	        log.Println(err)
//	        continue
//	    }
//	    fmt.Println(statement.Type())
//	}
//
// # Supported Statements
//
//   - SelectStatement: SELECT cols FROM t [WHERE c op v] [ORDER BY c [ASC|DESC]] [LIMIT n [OFFSET m]]
//   - InsertStatement: INSERT INTO t [(cols)] VALUES (...), (...)
//   - UpdateStatement: UPDATE t SET c = v, ... [WHERE c op v]
//   - DeleteStatement: DELETE FROM t [WHERE c op v]
//   - CreateTableStatement: CREATE TABLE t (definitions)
//   - DropTableStatement: DROP TABLE t
//   - AlterTableStatement: ALTER TABLE t ADD [COLUMN] c type, ALTER TABLE t RENAME COLUMN a TO b
//
// Literals are interpreted by CastValue in every position.
package sql
