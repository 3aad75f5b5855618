// Package pysrc provides lexical analysis and parsing for Python source
// files. It covers the subset of the language needed to extract class
// definitions, field assignments, and imports from Django-style code:
// everything else is tokenized faithfully and skipped by the parser.
//
// Thread safety: Lexer and Parser instances are not thread-safe. Each
// goroutine must create its own instance; this is the intended approach for
// parallel per-file analysis.
package pysrc

import (
	"strings"
)

// Lexer tokenizes Python source code.
type Lexer struct {
	source  string
	start   int
	current int
	line    int
	column  int
	tokens  []Token
	errors  []LexError

	// indents is the stack of active indentation widths, always rooted at 0.
	indents []int
	// depth tracks open brackets; newlines inside brackets are joined.
	depth int
	// atLineStart is true before any token has been scanned on the line.
	atLineStart bool
	// lineHadContent is true once a non-trivia token was emitted on the line.
	lineHadContent bool
}

// NewLexer creates a new Lexer for the given source code.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source:      source,
		line:        1,
		column:      1,
		tokens:      make([]Token, 0, 256),
		indents:     []int{0},
		atLineStart: true,
	}
}

// ScanTokens tokenizes the entire source and returns tokens and errors.
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		if l.atLineStart && l.depth == 0 {
			l.scanIndentation()
			continue
		}
		l.start = l.current
		l.scanToken()
	}

	// Close the final logical line and any open suites.
	if l.lineHadContent {
		l.emit(TOKEN_NEWLINE, "")
		l.lineHadContent = false
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(TOKEN_DEDENT, "")
	}
	l.emit(TOKEN_EOF, "")

	return l.tokens, l.errors
}

// scanIndentation measures leading whitespace at the start of a logical line
// and emits INDENT/DEDENT tokens. Blank and comment-only lines are consumed
// without affecting the indent stack.
func (l *Lexer) scanIndentation() {
	width := 0
measure:
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ':
			width++
			l.advance()
		case '\t':
			width += 8 - (width % 8)
			l.advance()
		case '\f':
			l.advance()
		default:
			break measure
		}
	}
	if l.isAtEnd() {
		return
	}

	c := l.peek()
	if c == '\n' || c == '\r' || c == '#' {
		// Blank or comment-only line; no tokens, no indent change.
		l.skipToLineEnd()
		l.consumeNewline()
		return
	}

	l.atLineStart = false

	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		l.emit(TOKEN_INDENT, "")
	case width < top:
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(TOKEN_DEDENT, "")
		}
		if l.indents[len(l.indents)-1] != width {
			l.addError("unindent does not match any outer indentation level")
		}
	}
}

// scanToken processes the next token after indentation has been handled.
func (l *Lexer) scanToken() {
	c := l.advance()

	switch c {
	case '(':
		l.depth++
		l.emit(TOKEN_LPAREN, "(")
	case ')':
		l.closeBracket(TOKEN_RPAREN, ")")
	case '[':
		l.depth++
		l.emit(TOKEN_LBRACKET, "[")
	case ']':
		l.closeBracket(TOKEN_RBRACKET, "]")
	case '{':
		l.depth++
		l.emit(TOKEN_LBRACE, "{")
	case '}':
		l.closeBracket(TOKEN_RBRACE, "}")
	case ',':
		l.emit(TOKEN_COMMA, ",")
	case ':':
		if l.match('=') {
			l.emit(TOKEN_OP, ":=")
		} else {
			l.emit(TOKEN_COLON, ":")
		}
	case '.':
		l.emit(TOKEN_DOT, ".")
	case '@':
		l.emit(TOKEN_AT, "@")
	case '=':
		if l.match('=') {
			l.emit(TOKEN_OP, "==")
		} else {
			l.emit(TOKEN_EQUAL, "=")
		}
	case '*':
		if l.match('*') {
			l.emit(TOKEN_OP, "**")
		} else {
			l.emit(TOKEN_STAR, "*")
		}
	case '-':
		if l.match('>') {
			l.emit(TOKEN_OP, "->")
		} else if l.match('=') {
			l.emit(TOKEN_OP, "-=")
		} else {
			l.emit(TOKEN_MINUS, "-")
		}
	case '+', '/', '%', '&', '|', '^', '~', '<', '>', '!':
		l.scanCompoundOperator(c)
	case '#':
		l.skipToLineEnd()
	case ' ', '\r', '\t':
		// Interior whitespace is insignificant.
	case '\\':
		// Explicit line joining: swallow the newline.
		if l.peek() == '\r' {
			l.advance()
		}
		if l.peek() == '\n' {
			l.advance()
			l.line++
			l.column = 1
		}
	case '\n':
		l.line++
		l.column = 1
		if l.depth == 0 {
			if l.lineHadContent {
				l.emit(TOKEN_NEWLINE, "")
				l.lineHadContent = false
			}
			l.atLineStart = true
		}
	case '\'', '"':
		l.scanString(c, "")
	default:
		switch {
		case isDigit(c):
			l.scanNumber()
		case isNameStart(c):
			l.scanName(c)
		default:
			l.addError("unexpected character " + string(c))
		}
	}
}

// scanCompoundOperator lexes multi-character operators the parser treats as
// opaque (comparisons, augmented assignment, shifts).
func (l *Lexer) scanCompoundOperator(c byte) {
	op := string(c)
	if l.match('=') {
		op += "="
	} else if (c == '<' && l.match('<')) || (c == '>' && l.match('>')) || (c == '/' && l.match('/')) {
		op += string(c)
		if l.match('=') {
			op += "="
		}
	}
	l.emit(TOKEN_OP, op)
}

func (l *Lexer) closeBracket(t TokenType, lexeme string) {
	if l.depth > 0 {
		l.depth--
	}
	l.emit(t, lexeme)
}

// scanName lexes an identifier, a keyword, or a prefixed string literal
// (r'...', f"...", b'...', and combinations).
func (l *Lexer) scanName(first byte) {
	for !l.isAtEnd() && isNameChar(l.peek()) {
		l.advance()
	}
	word := l.source[l.start:l.current]

	// String prefixes immediately followed by a quote.
	if len(word) <= 2 && isStringPrefix(word) && !l.isAtEnd() && (l.peek() == '\'' || l.peek() == '"') {
		quote := l.advance()
		l.scanString(quote, strings.ToLower(word))
		return
	}

	if t, ok := keywords[word]; ok {
		l.emit(t, word)
		return
	}
	l.emit(TOKEN_NAME, word)
}

// scanString lexes a single- or triple-quoted string. The emitted lexeme is
// the decoded string value, not the raw source.
func (l *Lexer) scanString(quote byte, prefix string) {
	raw := strings.Contains(prefix, "r")

	triple := false
	if l.peek() == quote && l.peekNext() == quote {
		l.advance()
		l.advance()
		triple = true
	}

	var value strings.Builder
	for !l.isAtEnd() {
		c := l.peek()

		if c == quote {
			if !triple {
				l.advance()
				l.emit(TOKEN_STRING, value.String())
				return
			}
			if l.peekNext() == quote && l.peekAt(2) == quote {
				l.advance()
				l.advance()
				l.advance()
				l.emit(TOKEN_STRING, value.String())
				return
			}
			value.WriteByte(l.advance())
			continue
		}

		if c == '\n' {
			if !triple {
				l.addError("unterminated string literal")
				l.emit(TOKEN_STRING, value.String())
				return
			}
			l.line++
			l.column = 0
			value.WriteByte(l.advance())
			continue
		}

		if c == '\\' && !raw {
			l.advance()
			if l.isAtEnd() {
				break
			}
			value.WriteByte(decodeEscape(l.advance()))
			continue
		}

		value.WriteByte(l.advance())
	}

	l.addError("unterminated string literal")
	l.emit(TOKEN_STRING, value.String())
}

// scanNumber lexes integer and float literals, including hex/octal/binary
// forms and exponents. The lexeme is the raw source text.
func (l *Lexer) scanNumber() {
	for !l.isAtEnd() {
		c := l.peek()
		if isDigit(c) || c == '_' || c == '.' || c == 'x' || c == 'X' ||
			c == 'o' || c == 'O' || c == 'b' || c == 'B' ||
			(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == 'j' || c == 'J' {
			l.advance()
			continue
		}
		// Exponent sign: 1e-5
		if (c == '+' || c == '-') && l.current > l.start {
			prev := l.source[l.current-1]
			if prev == 'e' || prev == 'E' {
				l.advance()
				continue
			}
		}
		break
	}
	l.emit(TOKEN_NUMBER, l.source[l.start:l.current])
}

func (l *Lexer) skipToLineEnd() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// consumeNewline eats the newline at the end of a blank or comment-only line.
func (l *Lexer) consumeNewline() {
	if !l.isAtEnd() && l.peek() == '\r' {
		l.advance()
	}
	if !l.isAtEnd() && l.peek() == '\n' {
		l.advance()
		l.line++
		l.column = 1
	}
}

func (l *Lexer) emit(t TokenType, lexeme string) {
	l.tokens = append(l.tokens, Token{
		Type:   t,
		Lexeme: lexeme,
		Line:   l.line,
		Column: l.column,
	})
	if t != TOKEN_NEWLINE && t != TOKEN_INDENT && t != TOKEN_DEDENT {
		l.lineHadContent = true
	}
}

func (l *Lexer) addError(msg string) {
	l.errors = append(l.errors, LexError{Message: msg, Line: l.line, Column: l.column})
}

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	l.column++
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	l.column++
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	return l.peekAt(1)
}

func (l *Lexer) peekAt(offset int) byte {
	if l.current+offset >= len(l.source) {
		return 0
	}
	return l.source[l.current+offset]
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c)
}

func isStringPrefix(word string) bool {
	for i := 0; i < len(word); i++ {
		switch word[i] {
		case 'r', 'R', 'b', 'B', 'f', 'F', 'u', 'U':
		default:
			return false
		}
	}
	return len(word) > 0
}

func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\n':
		// Escaped newline inside a string joins lines.
		return '\n'
	default:
		return c
	}
}
