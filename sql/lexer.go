package sql

type Token struct {
	Type  TokenType
	Value string
}

type TokenType int

const (
	Identifier TokenType = iota
	TableIdentifier
	Wildcard
	String
	Int
	Float
	PrimaryKey
	ForeignKey
	Unique
	Comma
	ParenOpen
	ParenClose
	Semicolon
	Equals
	NotEquals
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	Not
	Null
	True
	False
	Select
	From
	Where
	Limit
	Offset
	Order
	By
	Asc
	Desc
	Create
	Drop
	Alter
	Add
	Column
	Rename
	To
	Insert
	Update
	Delete
	Set
	Into
	Values
	AutoIncrement
	References
	Constraint
	Default
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case Int:
		return "Int(" + token.Value + ")"
	case Float:
		return "Float(" + token.Value + ")"
	case Wildcard:
		return "Wildcard"
	case Comma:
		return "Comma"
	case ParenOpen:
		return "ParenOpen"
	case ParenClose:
		return "ParenClose"
	case Semicolon:
		return "Semicolon"
	case Equals:
		return "Equals"
	case NotEquals:
		return "NotEquals"
	case LessThan:
		return "LessThan"
	case GreaterThan:
		return "GreaterThan"
	case LessThanOrEqual:
		return "LessThanOrEqual"
	case GreaterThanOrEqual:
		return "GreaterThanOrEqual"
	case PrimaryKey:
		return "PrimaryKey"
	case ForeignKey:
		return "ForeignKey"
	case EOF:
		return "EOF"
	case Unknown:
		return "Unknown(" + token.Value + ")"
	default:
		if token.IsKeyword() {
			return "Keyword(" + toUpper(token.Value) + ")"
		}
		return "Unknown(" + token.Value + ")"
	}
}

// IsKeyword reports whether the token is a reserved word. Keywords may
// still be used as table or column names where the grammar expects a name.
func (token Token) IsKeyword() bool {
	return token.Type == TableIdentifier || token.Type == Unique ||
		(token.Type >= Not && token.Type <= Default)
}

// Raw returns the source spelling of a literal token, quotes included.
func (token Token) Raw() string {
	if token.Type == String {
		return "'" + token.Value + "'"
	}
	return token.Value
}

type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.sql) {
		return 0
	}
	return lexer.sql[lexer.readPosition]
}

func (lexer *Lexer) NextToken() Token {
	var token Token

	lexer.skipWhitespaceAndComments()

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: string(lexer.ch)}
	case '(':
		token = Token{Type: ParenOpen, Value: string(lexer.ch)}
	case ')':
		token = Token{Type: ParenClose, Value: string(lexer.ch)}
	case ';':
		token = Token{Type: Semicolon, Value: string(lexer.ch)}
	case 0:
		if lexer.position < len(lexer.sql) {
			token = Token{Type: Unknown, Value: string(lexer.ch)}
		} else {
			return Token{Type: EOF, Value: ""}
		}
	case '\'':
		value, terminated := lexer.readString()
		if !terminated {
			return Token{Type: Unknown, Value: "'" + value}
		}
		token = Token{Type: String, Value: value}
	case '*':
		token = Token{Type: Wildcard, Value: string(lexer.ch)}
	default:
		if isOperator(lexer.ch) {
			operator := lexer.readOperator()
			switch operator {
			case "=":
				return Token{Type: Equals, Value: operator}
			case "!=", "<>":
				return Token{Type: NotEquals, Value: operator}
			case "<":
				return Token{Type: LessThan, Value: operator}
			case ">":
				return Token{Type: GreaterThan, Value: operator}
			case "<=":
				return Token{Type: LessThanOrEqual, Value: operator}
			case ">=":
				return Token{Type: GreaterThanOrEqual, Value: operator}
			default:
				return Token{Type: Unknown, Value: operator}
			}
		} else if isDigit(lexer.ch) || (isSign(lexer.ch) && (isDigit(lexer.peekChar()) || lexer.peekChar() == '.')) ||
			(lexer.ch == '.' && isDigit(lexer.peekChar())) {
			return lexer.readNumber()
		} else if isLetter(lexer.ch) {
			literal := lexer.readIdentifier()
			switch toUpper(literal) {
			case "PRIMARY":
				return lexer.readKeyPair(literal, PrimaryKey, "PRIMARY KEY")
			case "FOREIGN":
				return lexer.readKeyPair(literal, ForeignKey, "FOREIGN KEY")
			default:
				return Token{Type: lookupIdentifier(literal), Value: literal}
			}
		} else {
			token = Token{Type: Unknown, Value: string(lexer.ch)}
		}
	}

	lexer.readChar()
	return token
}

func (lexer *Lexer) PeekToken() Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

// readKeyPair folds "PRIMARY KEY" and "FOREIGN KEY" into one token.
func (lexer *Lexer) readKeyPair(literal string, tokenType TokenType, value string) Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	lexer.skipWhitespaceAndComments()
	if toUpper(lexer.readIdentifier()) == "KEY" {
		return Token{Type: tokenType, Value: value}
	}

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh
	return Token{Type: Identifier, Value: literal}
}

func (lexer *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r':
			lexer.readChar()
		case lexer.ch == '-' && lexer.peekChar() == '-':
			for lexer.ch != '\n' && lexer.ch != 0 {
				lexer.readChar()
			}
		case lexer.ch == '/' && lexer.peekChar() == '*':
			lexer.readChar()
			lexer.readChar()
			for !(lexer.ch == '*' && lexer.peekChar() == '/') && lexer.ch != 0 {
				lexer.readChar()
			}
			if lexer.ch != 0 {
				lexer.readChar()
				lexer.readChar()
			}
		default:
			return
		}
	}
}

func (lexer *Lexer) readIdentifier() string {
	position := lexer.position
	for isAlphaNumeric(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

// readString reads a single-quoted literal. There is no escape syntax.
func (lexer *Lexer) readString() (string, bool) {
	lexer.readChar() // skip opening quote
	position := lexer.position
	for lexer.ch != '\'' && lexer.ch != 0 {
		lexer.readChar()
	}
	str := lexer.sql[position:lexer.position]
	return str, lexer.ch == '\''
}

func (lexer *Lexer) readDigits() {
	for isDigit(lexer.ch) {
		lexer.readChar()
	}
}

func (lexer *Lexer) readNumber() Token {
	position := lexer.position
	tokenType := Int

	if isSign(lexer.ch) {
		lexer.readChar()
	}
	lexer.readDigits()

	if lexer.ch == '.' {
		tokenType = Float
		lexer.readChar() // consume '.'
		lexer.readDigits()
	}

	if lexer.ch == 'e' || lexer.ch == 'E' {
		next := lexer.peekChar()
		if isDigit(next) || isSign(next) {
			tokenType = Float
			lexer.readChar()
			if isSign(lexer.ch) {
				lexer.readChar()
			}
			lexer.readDigits()
		}
	}

	return Token{Type: tokenType, Value: lexer.sql[position:lexer.position]}
}

func (lexer *Lexer) readOperator() string {
	position := lexer.position
	for isOperator(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isAlphaNumeric(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isSign(ch byte) bool {
	return ch == '-' || ch == '+'
}

func isOperator(ch byte) bool {
	return ch == '=' || ch == '!' || ch == '<' || ch == '>'
}

func lookupIdentifier(id string) TokenType {
	switch toUpper(id) {
	case "TABLE":
		return TableIdentifier
	case "UNIQUE":
		return Unique
	case "NOT":
		return Not
	case "NULL":
		return Null
	case "TRUE":
		return True
	case "FALSE":
		return False
	case "SELECT":
		return Select
	case "FROM":
		return From
	case "WHERE":
		return Where
	case "LIMIT":
		return Limit
	case "OFFSET":
		return Offset
	case "ORDER":
		return Order
	case "BY":
		return By
	case "ASC":
		return Asc
	case "DESC":
		return Desc
	case "CREATE":
		return Create
	case "DROP":
		return Drop
	case "ALTER":
		return Alter
	case "ADD":
		return Add
	case "COLUMN":
		return Column
	case "RENAME":
		return Rename
	case "TO":
		return To
	case "INSERT":
		return Insert
	case "UPDATE":
		return Update
	case "DELETE":
		return Delete
	case "SET":
		return Set
	case "INTO":
		return Into
	case "VALUES":
		return Values
	case "AUTOINCREMENT", "AUTO_INCREMENT", "SERIAL":
		return AutoIncrement
	case "REFERENCES":
		return References
	case "CONSTRAINT":
		return Constraint
	case "DEFAULT":
		return Default
	default:
		return Identifier
	}
}

// toUpper converts a string to uppercase without allocating for ASCII strings
func toUpper(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'a' && s[j] <= 'z' {
					b[j] = s[j] - 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}

func toLower(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'A' && s[j] <= 'Z' {
					b[j] = s[j] + 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}

func tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token

	for {
		token := lexer.NextToken()
		if token.Type == EOF {
			return append(tokens, token)
		}
		tokens = append(tokens, token)
	}
}
