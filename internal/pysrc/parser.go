package pysrc

import (
	"fmt"
	"strings"
)

// ParseError describes a structural parse failure with its position.
type ParseError struct {
	Message string
	Line    int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parser builds a Module from a token stream. It is deliberately tolerant:
// statements outside the modeled subset are skipped by consuming one logical
// line plus any indented suite that follows it. Only structural failures
// (unterminated strings, unbalanced brackets, bad indentation) are errors.
type Parser struct {
	tokens  []Token
	current int
	errors  []ParseError
}

// ParseSource parses Python source text into a Module. The error is non-nil
// when the file has lexical or structural errors; callers are expected to
// skip such files and record a warning rather than abort a scan.
func ParseSource(source string) (*Module, error) {
	lexer := NewLexer(source)
	tokens, lexErrors := lexer.ScanTokens()
	if len(lexErrors) > 0 {
		return nil, lexErrors[0]
	}

	p := &Parser{tokens: tokens}
	module := p.parseModule()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return module, nil
}

func (p *Parser) parseModule() *Module {
	module := &Module{Imports: make(map[string]string)}

	first := true
	for !p.isAtEnd() {
		if p.match(TOKEN_NEWLINE) {
			continue
		}
		// A stray indent at module level is a structural problem.
		if p.check(TOKEN_INDENT) || p.check(TOKEN_DEDENT) {
			p.advance()
			continue
		}

		// Module docstring: a leading bare string expression.
		if first && p.check(TOKEN_STRING) {
			module.Docstring = p.advance().Lexeme
			p.skipToNewline()
			first = false
			continue
		}
		first = false

		p.parseTopLevel(module)
	}

	return module
}

func (p *Parser) parseTopLevel(module *Module) {
	switch p.peek().Type {
	case TOKEN_IMPORT:
		p.parseImport(module.Imports)
	case TOKEN_FROM:
		p.parseFromImport(module.Imports)
	case TOKEN_CLASS:
		if class := p.parseClassDef(); class != nil {
			module.Classes = append(module.Classes, class)
		}
	case TOKEN_AT:
		decorators := p.parseDecorators()
		if p.check(TOKEN_CLASS) {
			if class := p.parseClassDef(); class != nil {
				module.Classes = append(module.Classes, class)
			}
		} else if p.check(TOKEN_DEF) {
			p.parseFunctionDef(decorators)
		} else {
			p.skipStatement()
		}
	case TOKEN_DEF:
		p.parseFunctionDef(nil)
	case TOKEN_NAME:
		next := p.peekNext().Type
		if next == TOKEN_EQUAL || next == TOKEN_COLON {
			if assign := p.parseAssign(); assign != nil {
				module.Assigns = append(module.Assigns, assign)
			}
			return
		}
		p.skipStatement()
	default:
		p.skipStatement()
	}
}

// parseImport handles `import a.b`, `import a.b as c`, with comma lists.
func (p *Parser) parseImport(imports map[string]string) {
	p.advance() // import
	for {
		dotted := p.parseDottedModule()
		if dotted == "" {
			p.skipStatement()
			return
		}
		local := dotted
		if p.match(TOKEN_AS) {
			if !p.check(TOKEN_NAME) {
				p.skipStatement()
				return
			}
			local = p.advance().Lexeme
		} else if idx := strings.Index(dotted, "."); idx > 0 {
			// `import a.b` binds `a` locally.
			local = dotted[:idx]
		}
		imports[local] = dotted

		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	p.skipToNewline()
}

// parseFromImport handles `from mod import a as b, c` and relative forms.
// Star imports are ignored; they cannot contribute to alias resolution.
func (p *Parser) parseFromImport(imports map[string]string) {
	p.advance() // from

	// Leading dots mark relative imports; the dots are dropped so the
	// remaining dotted path still resolves against class names.
	for p.match(TOKEN_DOT) {
	}
	prefix := p.parseDottedModule()

	if !p.match(TOKEN_IMPORT) {
		p.skipStatement()
		return
	}

	if p.check(TOKEN_STAR) {
		p.skipStatement()
		return
	}

	// Parenthesized import lists span lines.
	closing := p.match(TOKEN_LPAREN)

	for {
		if closing {
			p.skipNewlinesInGroup()
		}
		if !p.check(TOKEN_NAME) {
			break
		}
		name := p.advance().Lexeme
		local := name
		if p.match(TOKEN_AS) {
			if !p.check(TOKEN_NAME) {
				break
			}
			local = p.advance().Lexeme
		}
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		imports[local] = full

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	if closing && !p.match(TOKEN_RPAREN) {
		p.errorf("unterminated import list")
	}
	p.skipToNewline()
}

func (p *Parser) parseDottedModule() string {
	if !p.check(TOKEN_NAME) {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(p.advance().Lexeme)
	for p.check(TOKEN_DOT) && p.peekNext().Type == TOKEN_NAME {
		p.advance()
		sb.WriteByte('.')
		sb.WriteString(p.advance().Lexeme)
	}
	return sb.String()
}

// parseDecorators consumes consecutive `@expr` lines.
func (p *Parser) parseDecorators() []Expr {
	var decorators []Expr
	for p.match(TOKEN_AT) {
		decorators = append(decorators, p.parseExpr())
		p.skipToNewline()
	}
	return decorators
}

// parseClassDef parses `class Name(Base, ...):` and its body.
func (p *Parser) parseClassDef() *ClassDef {
	line := p.peek().Line
	p.advance() // class
	if !p.check(TOKEN_NAME) {
		p.errorf("expected class name")
		p.skipStatement()
		return nil
	}
	class := &ClassDef{Name: p.advance().Lexeme, Line: line}

	if p.match(TOKEN_LPAREN) {
		for !p.check(TOKEN_RPAREN) && !p.isAtEnd() {
			// Keyword bases (metaclass=...) carry no inheritance info.
			if p.check(TOKEN_NAME) && p.peekNext().Type == TOKEN_EQUAL {
				p.advance()
				p.advance()
				p.parseExpr()
			} else {
				class.Bases = append(class.Bases, p.parseExpr())
			}
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		if !p.match(TOKEN_RPAREN) {
			p.errorf("unterminated base class list for %s", class.Name)
			return nil
		}
	}

	if !p.match(TOKEN_COLON) {
		p.errorf("expected ':' after class header for %s", class.Name)
		p.skipStatement()
		return nil
	}

	p.parseClassBody(class)
	return class
}

// parseClassBody parses an indented class suite, collecting assignments,
// method signatures, nested classes, and the docstring.
func (p *Parser) parseClassBody(class *ClassDef) {
	// One-line body: `class Meta: pass`
	if !p.check(TOKEN_NEWLINE) {
		p.skipToNewline()
		return
	}
	p.advance() // NEWLINE

	if !p.match(TOKEN_INDENT) {
		// Empty body; tolerated.
		return
	}

	first := true
	for !p.check(TOKEN_DEDENT) && !p.isAtEnd() {
		if p.match(TOKEN_NEWLINE) {
			continue
		}

		if first && p.check(TOKEN_STRING) {
			class.Docstring = p.advance().Lexeme
			p.skipToNewline()
			first = false
			continue
		}
		first = false

		switch p.peek().Type {
		case TOKEN_CLASS:
			if inner := p.parseClassDef(); inner != nil {
				class.Inner = append(class.Inner, inner)
			}
		case TOKEN_AT:
			decorators := p.parseDecorators()
			if p.check(TOKEN_DEF) {
				if fn := p.parseFunctionDef(decorators); fn != nil {
					class.Methods = append(class.Methods, fn)
				}
			} else {
				p.skipStatement()
			}
		case TOKEN_DEF:
			if fn := p.parseFunctionDef(nil); fn != nil {
				class.Methods = append(class.Methods, fn)
			}
		case TOKEN_NAME:
			if assign := p.parseAssign(); assign != nil {
				class.Assigns = append(class.Assigns, assign)
			}
		case TOKEN_PASS:
			p.advance()
			p.skipToNewline()
		default:
			p.skipStatement()
		}
	}
	p.match(TOKEN_DEDENT)
}

// parseAssign parses `name = expr` or `name: ann = expr`. Anything else
// starting with a NAME (calls, comparisons, tuple unpacking) is skipped.
func (p *Parser) parseAssign() *Assign {
	next := p.peekNext().Type
	if next != TOKEN_EQUAL && next != TOKEN_COLON {
		p.skipStatement()
		return nil
	}

	line := p.peek().Line
	target := p.advance().Lexeme

	if p.match(TOKEN_COLON) {
		// Consume the annotation up to '=' or end of line.
		for !p.check(TOKEN_EQUAL) && !p.check(TOKEN_NEWLINE) && !p.isAtEnd() {
			p.advance()
		}
		if !p.check(TOKEN_EQUAL) {
			// Bare annotation without a value.
			p.skipToNewline()
			return nil
		}
	}

	p.advance() // =

	value := p.parseExpr()

	// Unparenthesized tuples on the right-hand side.
	if p.check(TOKEN_COMMA) {
		tuple := &Tuple{Elts: []Expr{value}}
		for p.match(TOKEN_COMMA) {
			if p.check(TOKEN_NEWLINE) {
				break
			}
			tuple.Elts = append(tuple.Elts, p.parseExpr())
		}
		value = tuple
	}

	// Chained assignment or trailing operators make this a statement the
	// analyzer cannot use; reduce the value to opaque text.
	if !p.check(TOKEN_NEWLINE) && !p.isAtEnd() {
		p.skipToNewline()
		return &Assign{Target: target, Value: &Raw{Text: "<complex>"}, Line: line}
	}
	p.skipToNewline()

	return &Assign{Target: target, Value: value, Line: line}
}

// parseFunctionDef records the signature of a def and skips its body.
func (p *Parser) parseFunctionDef(decorators []Expr) *FunctionDef {
	line := p.peek().Line
	p.advance() // def
	if !p.check(TOKEN_NAME) {
		p.skipStatement()
		return nil
	}
	fn := &FunctionDef{Name: p.advance().Lexeme, Decorators: decorators, Line: line}

	if !p.match(TOKEN_LPAREN) {
		p.skipStatement()
		return fn
	}
	if !p.skipBalanced(TOKEN_LPAREN, TOKEN_RPAREN) {
		p.errorf("unterminated parameter list for %s", fn.Name)
		return nil
	}

	// Return annotation, suite colon, and anything else on the line.
	p.skipToNewline()
	p.skipSuite()

	return fn
}

// --- expressions ---

// parseExpr parses a single expression. Expressions outside the modeled
// subset collapse into Raw nodes rather than failing.
func (p *Parser) parseExpr() Expr {
	expr := p.parsePrimary()

	// A binary operator after the primary means the full expression is more
	// than the analyzer models; consume the rest of it as opaque text.
	if p.checkOperator() {
		text := exprText(expr)
		for p.checkOperator() || p.isExprToken() {
			text += " " + p.advance().Lexeme
			if p.check(TOKEN_LPAREN) || p.check(TOKEN_LBRACKET) || p.check(TOKEN_LBRACE) {
				open := p.advance().Type
				p.skipBalanced(open, matchingClose(open))
			}
		}
		return &Raw{Text: strings.TrimSpace(text)}
	}

	return expr
}

func (p *Parser) parsePrimary() Expr {
	switch p.peek().Type {
	case TOKEN_STRING:
		// Adjacent string literals concatenate.
		var sb strings.Builder
		for p.check(TOKEN_STRING) {
			sb.WriteString(p.advance().Lexeme)
		}
		return &Str{Value: sb.String()}

	case TOKEN_NUMBER:
		return p.parseNumber("")

	case TOKEN_MINUS:
		p.advance()
		if p.check(TOKEN_NUMBER) {
			return p.parseNumber("-")
		}
		return p.consumeOpaque("-")

	case TOKEN_TRUE:
		p.advance()
		return &Bool{Value: true}

	case TOKEN_FALSE:
		p.advance()
		return &Bool{Value: false}

	case TOKEN_NONE:
		p.advance()
		return &NoneLit{}

	case TOKEN_NAME:
		expr := Expr(&Name{ID: p.advance().Lexeme})
		return p.parsePostfix(expr)

	case TOKEN_LPAREN:
		p.advance()
		return p.parseGroup()

	case TOKEN_LBRACKET:
		p.advance()
		elts, ok := p.parseExprList(TOKEN_RBRACKET)
		if !ok {
			return &Raw{Text: "<list>"}
		}
		return &List{Elts: elts}

	case TOKEN_LBRACE:
		p.advance()
		return p.parseDict()

	default:
		return p.consumeOpaque("")
	}
}

func (p *Parser) parseNumber(sign string) Expr {
	lex := p.advance().Lexeme
	isFloat := strings.Contains(lex, ".") ||
		(!strings.HasPrefix(lex, "0x") && !strings.HasPrefix(lex, "0X") && strings.ContainsAny(lex, "eE"))
	return &Num{Value: sign + lex, IsFloat: isFloat}
}

// parsePostfix applies attribute access and call suffixes to an expression.
func (p *Parser) parsePostfix(expr Expr) Expr {
	for {
		switch {
		case p.check(TOKEN_DOT) && p.peekNext().Type == TOKEN_NAME:
			p.advance()
			expr = &Attribute{Value: expr, Attr: p.advance().Lexeme}

		case p.check(TOKEN_LPAREN):
			p.advance()
			call := &Call{Func: expr}
			if !p.parseCallArgs(call) {
				return &Raw{Text: exprText(expr) + "(...)"}
			}
			expr = call

		case p.check(TOKEN_LBRACKET):
			// Subscripts are outside the modeled subset.
			p.advance()
			p.skipBalanced(TOKEN_LBRACKET, TOKEN_RBRACKET)
			return &Raw{Text: exprText(expr) + "[...]"}

		default:
			return expr
		}
	}
}

// parseCallArgs parses the argument list of a call up to and including the
// closing paren. Returns false on unterminated input.
func (p *Parser) parseCallArgs(call *Call) bool {
	for {
		p.skipNewlinesInGroup()
		if p.match(TOKEN_RPAREN) {
			return true
		}
		if p.isAtEnd() {
			p.errorf("unterminated call argument list")
			return false
		}

		switch {
		case p.check(TOKEN_NAME) && p.peekNext().Type == TOKEN_EQUAL:
			name := p.advance().Lexeme
			p.advance() // =
			call.Keywords = append(call.Keywords, Keyword{Name: name, Value: p.parseExpr()})

		case p.check(TOKEN_STAR) || (p.check(TOKEN_OP) && p.peek().Lexeme == "**"):
			// *args / **kwargs forwarding carries no static information.
			p.advance()
			p.parseExpr()

		default:
			call.Args = append(call.Args, p.parseExpr())
		}

		p.skipNewlinesInGroup()
		if p.match(TOKEN_COMMA) {
			continue
		}
		if p.match(TOKEN_RPAREN) {
			return true
		}
		// Comprehensions and similar constructs: drain to the closing paren.
		if !p.skipBalanced(TOKEN_LPAREN, TOKEN_RPAREN) {
			p.errorf("unterminated call argument list")
			return false
		}
		return true
	}
}

// parseGroup parses a parenthesized expression or tuple after '('.
func (p *Parser) parseGroup() Expr {
	p.skipNewlinesInGroup()
	if p.match(TOKEN_RPAREN) {
		return &Tuple{}
	}

	elts, ok := p.parseExprList(TOKEN_RPAREN)
	if !ok {
		return &Raw{Text: "<group>"}
	}
	if len(elts) == 1 {
		return elts[0]
	}
	return &Tuple{Elts: elts}
}

// parseExprList parses comma-separated expressions up to and including the
// given closing token.
func (p *Parser) parseExprList(close TokenType) ([]Expr, bool) {
	var elts []Expr
	for {
		p.skipNewlinesInGroup()
		if p.match(close) {
			return elts, true
		}
		if p.isAtEnd() {
			p.errorf("unterminated %s", close)
			return nil, false
		}

		elts = append(elts, p.parseExpr())

		p.skipNewlinesInGroup()
		if p.match(TOKEN_COMMA) {
			continue
		}
		if p.match(close) {
			return elts, true
		}
		// Comprehension or unsupported construct.
		open := TOKEN_LPAREN
		if close == TOKEN_RBRACKET {
			open = TOKEN_LBRACKET
		}
		if !p.skipBalanced(open, close) {
			p.errorf("unterminated %s", close)
			return nil, false
		}
		return nil, false
	}
}

// parseDict parses a dict or set literal after '{'.
func (p *Parser) parseDict() Expr {
	dict := &Dict{}
	for {
		p.skipNewlinesInGroup()
		if p.match(TOKEN_RBRACE) {
			return dict
		}
		if p.isAtEnd() {
			p.errorf("unterminated dict literal")
			return &Raw{Text: "<dict>"}
		}

		key := p.parseExpr()
		if !p.match(TOKEN_COLON) {
			// Set literal or comprehension.
			p.skipBalanced(TOKEN_LBRACE, TOKEN_RBRACE)
			return &Raw{Text: "<set>"}
		}
		value := p.parseExpr()
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, value)

		p.skipNewlinesInGroup()
		if p.match(TOKEN_COMMA) {
			continue
		}
		if p.match(TOKEN_RBRACE) {
			return dict
		}
		p.skipBalanced(TOKEN_LBRACE, TOKEN_RBRACE)
		return &Raw{Text: "<dict>"}
	}
}

// consumeOpaque drains one expression's worth of tokens it cannot model and
// returns it as Raw. Stops at commas, closers, and line ends.
func (p *Parser) consumeOpaque(prefix string) Expr {
	var sb strings.Builder
	sb.WriteString(prefix)
	for !p.isAtEnd() {
		switch p.peek().Type {
		case TOKEN_COMMA, TOKEN_RPAREN, TOKEN_RBRACKET, TOKEN_RBRACE, TOKEN_NEWLINE, TOKEN_COLON:
			return &Raw{Text: strings.TrimSpace(sb.String())}
		case TOKEN_LPAREN, TOKEN_LBRACKET, TOKEN_LBRACE:
			open := p.advance().Type
			p.skipBalanced(open, matchingClose(open))
			sb.WriteString("(...)")
		default:
			sb.WriteString(p.advance().Lexeme)
			sb.WriteByte(' ')
		}
	}
	return &Raw{Text: strings.TrimSpace(sb.String())}
}

// --- skipping ---

// skipStatement consumes one logical line and any suite indented under it.
func (p *Parser) skipStatement() {
	p.skipToNewline()
	p.skipSuite()
}

// skipSuite consumes an indented block if one follows.
func (p *Parser) skipSuite() {
	if !p.check(TOKEN_INDENT) {
		return
	}
	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Type {
		case TOKEN_INDENT:
			depth++
		case TOKEN_DEDENT:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipToNewline consumes tokens through the next logical line end.
func (p *Parser) skipToNewline() {
	for !p.isAtEnd() {
		if p.advance().Type == TOKEN_NEWLINE {
			return
		}
	}
}

// skipNewlinesInGroup tolerates NEWLINE tokens that can appear inside a
// bracketed context when skipping recovered from mid-line.
func (p *Parser) skipNewlinesInGroup() {
	for p.check(TOKEN_NEWLINE) {
		p.advance()
	}
}

// skipBalanced consumes tokens until the close matching an already-consumed
// open token, tracking nesting. Returns false on EOF.
func (p *Parser) skipBalanced(open, close TokenType) bool {
	depth := 1
	for !p.isAtEnd() {
		t := p.advance().Type
		switch t {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// --- token helpers ---

func (p *Parser) checkOperator() bool {
	if p.check(TOKEN_OP) || p.check(TOKEN_MINUS) || p.check(TOKEN_STAR) {
		return true
	}
	// `if ... else` conditionals, `or` defaults, etc. begin with a name that
	// can only be a binary-position keyword here.
	if p.check(TOKEN_NAME) {
		switch p.peek().Lexeme {
		case "if", "else", "or", "and", "not", "in", "is", "for":
			return true
		}
	}
	return false
}

func (p *Parser) isExprToken() bool {
	switch p.peek().Type {
	case TOKEN_NAME, TOKEN_NUMBER, TOKEN_STRING, TOKEN_TRUE, TOKEN_FALSE,
		TOKEN_NONE, TOKEN_DOT, TOKEN_LPAREN, TOKEN_LBRACKET, TOKEN_LBRACE:
		return true
	}
	return false
}

func (p *Parser) match(t TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) advance() Token {
	t := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return t
}

func (p *Parser) isAtEnd() bool {
	return p.tokens[p.current].Type == TOKEN_EOF
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    p.peek().Line,
	})
}

func matchingClose(open TokenType) TokenType {
	switch open {
	case TOKEN_LPAREN:
		return TOKEN_RPAREN
	case TOKEN_LBRACKET:
		return TOKEN_RBRACKET
	default:
		return TOKEN_RBRACE
	}
}

func exprText(e Expr) string {
	switch n := e.(type) {
	case *Name:
		return n.ID
	case *Attribute:
		return exprText(n.Value) + "." + n.Attr
	case *Str:
		return fmt.Sprintf("%q", n.Value)
	case *Num:
		return n.Value
	case *Raw:
		return n.Text
	}
	return "<expr>"
}
