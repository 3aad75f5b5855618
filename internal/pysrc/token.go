package pysrc

import "fmt"

// TokenType represents the type of a token in a Python source file.
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR represents a lexical error encountered during scanning.
	TOKEN_ERROR
	// TOKEN_NEWLINE terminates a logical line (suppressed inside brackets).
	TOKEN_NEWLINE
	// TOKEN_INDENT opens a suite one level deeper than the enclosing line.
	TOKEN_INDENT
	// TOKEN_DEDENT closes one suite level.
	TOKEN_DEDENT

	// Keywords the parser recognizes. Every other Python keyword is lexed
	// as TOKEN_NAME and handled by statement skipping.
	TOKEN_CLASS  // class
	TOKEN_DEF    // def
	TOKEN_IMPORT // import
	TOKEN_FROM   // from
	TOKEN_AS     // as
	TOKEN_PASS   // pass
	TOKEN_TRUE   // True
	TOKEN_FALSE  // False
	TOKEN_NONE   // None

	// Literals and identifiers
	TOKEN_NAME   // serializers, CharField, ...
	TOKEN_NUMBER // 42, 9.99, 0x7f
	TOKEN_STRING // 'Product', "label", '''docstring'''

	// Punctuation and operators
	TOKEN_LPAREN   // (
	TOKEN_RPAREN   // )
	TOKEN_LBRACKET // [
	TOKEN_RBRACKET // ]
	TOKEN_LBRACE   // {
	TOKEN_RBRACE   // }
	TOKEN_COMMA    // ,
	TOKEN_COLON    // :
	TOKEN_DOT      // .
	TOKEN_EQUAL    // = (assignment, not ==)
	TOKEN_STAR     // * (also **kwargs marker)
	TOKEN_AT       // @ (decorator)
	TOKEN_MINUS    // - (negative literals)

	// TOKEN_OP covers every operator the parser has no interest in.
	// Statements containing them are skipped, not rejected.
	TOKEN_OP
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:      "EOF",
	TOKEN_ERROR:    "ERROR",
	TOKEN_NEWLINE:  "NEWLINE",
	TOKEN_INDENT:   "INDENT",
	TOKEN_DEDENT:   "DEDENT",
	TOKEN_CLASS:    "class",
	TOKEN_DEF:      "def",
	TOKEN_IMPORT:   "import",
	TOKEN_FROM:     "from",
	TOKEN_AS:       "as",
	TOKEN_PASS:     "pass",
	TOKEN_TRUE:     "True",
	TOKEN_FALSE:    "False",
	TOKEN_NONE:     "None",
	TOKEN_NAME:     "NAME",
	TOKEN_NUMBER:   "NUMBER",
	TOKEN_STRING:   "STRING",
	TOKEN_LPAREN:   "(",
	TOKEN_RPAREN:   ")",
	TOKEN_LBRACKET: "[",
	TOKEN_RBRACKET: "]",
	TOKEN_LBRACE:   "{",
	TOKEN_RBRACE:   "}",
	TOKEN_COMMA:    ",",
	TOKEN_COLON:    ":",
	TOKEN_DOT:      ".",
	TOKEN_EQUAL:    "=",
	TOKEN_STAR:     "*",
	TOKEN_AT:       "@",
	TOKEN_MINUS:    "-",
	TOKEN_OP:       "OP",
}

// String returns a readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// keywords maps identifier spellings to keyword token types.
var keywords = map[string]TokenType{
	"class":  TOKEN_CLASS,
	"def":    TOKEN_DEF,
	"import": TOKEN_IMPORT,
	"from":   TOKEN_FROM,
	"as":     TOKEN_AS,
	"pass":   TOKEN_PASS,
	"True":   TOKEN_TRUE,
	"False":  TOKEN_FALSE,
	"None":   TOKEN_NONE,
}

// Token is a single lexical token with its source position.
type Token struct {
	Type   TokenType
	Lexeme string // Raw source text; for strings, the decoded value
	Line   int    // 1-indexed
	Column int    // 1-indexed
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

// LexError describes a lexical error with its position.
type LexError struct {
	Message string
	Line    int
	Column  int
}

func (e LexError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}
