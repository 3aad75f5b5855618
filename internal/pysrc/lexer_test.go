package pysrc

import (
	"testing"
)

func scanAll(t *testing.T, source string) []Token {
	t.Helper()
	tokens, errs := NewLexer(source).ScanTokens()
	if len(errs) > 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	return tokens
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexer_SimpleAssignment(t *testing.T) {
	tokens := scanAll(t, "name = CharField(max_length=100)\n")

	expected := []TokenType{
		TOKEN_NAME, TOKEN_EQUAL, TOKEN_NAME, TOKEN_LPAREN,
		TOKEN_NAME, TOKEN_EQUAL, TOKEN_NUMBER, TOKEN_RPAREN,
		TOKEN_NEWLINE, TOKEN_EOF,
	}

	got := tokenTypes(tokens)
	if len(got) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(got), tokens)
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("token %d: expected %s, got %s", i, want, got[i])
		}
	}
}

func TestLexer_IndentDedent(t *testing.T) {
	source := "class Product:\n    name = 1\n    price = 2\nx = 3\n"
	tokens := scanAll(t, source)

	indents, dedents := 0, 0
	for _, tok := range tokens {
		switch tok.Type {
		case TOKEN_INDENT:
			indents++
		case TOKEN_DEDENT:
			dedents++
		}
	}
	if indents != 1 || dedents != 1 {
		t.Errorf("expected 1 INDENT and 1 DEDENT, got %d and %d", indents, dedents)
	}
}

func TestLexer_BlankAndCommentLinesIgnored(t *testing.T) {
	source := "class A:\n\n    # just a comment\n    x = 1\n"
	tokens := scanAll(t, source)

	for _, tok := range tokens {
		if tok.Type == TOKEN_ERROR {
			t.Fatalf("unexpected error token: %v", tok)
		}
	}

	indents := 0
	for _, tok := range tokens {
		if tok.Type == TOKEN_INDENT {
			indents++
		}
	}
	if indents != 1 {
		t.Errorf("expected exactly 1 INDENT, got %d", indents)
	}
}

func TestLexer_ImplicitLineJoining(t *testing.T) {
	source := "choices = (\n    ('a', 'A'),\n    ('b', 'B'),\n)\n"
	tokens := scanAll(t, source)

	// No NEWLINE or INDENT tokens may appear between the parens.
	newlines := 0
	for _, tok := range tokens {
		switch tok.Type {
		case TOKEN_NEWLINE:
			newlines++
		case TOKEN_INDENT, TOKEN_DEDENT:
			t.Errorf("unexpected %s inside bracketed expression", tok.Type)
		}
	}
	if newlines != 1 {
		t.Errorf("expected exactly 1 logical NEWLINE, got %d", newlines)
	}
}

func TestLexer_Strings(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{`x = 'Product'` + "\n", "Product"},
		{`x = "say \"hi\""` + "\n", `say "hi"`},
		{`x = '''multi\nline'''` + "\n", "multi\nline"},
		{`x = r'raw\n'` + "\n", `raw\n`},
		{`x = f'formatted'` + "\n", "formatted"},
	}

	for _, tt := range tests {
		tokens := scanAll(t, tt.source)
		var str *Token
		for i := range tokens {
			if tokens[i].Type == TOKEN_STRING {
				str = &tokens[i]
				break
			}
		}
		if str == nil {
			t.Errorf("%q: no string token found", tt.source)
			continue
		}
		if str.Lexeme != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.source, tt.expected, str.Lexeme)
		}
	}
}

func TestLexer_TripleQuotedDocstring(t *testing.T) {
	source := "class A:\n    \"\"\"Product model.\n\n    Stores products.\n    \"\"\"\n    x = 1\n"
	tokens := scanAll(t, source)

	found := false
	for _, tok := range tokens {
		if tok.Type == TOKEN_STRING {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected docstring token")
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	_, errs := NewLexer("x = 'oops\n").ScanTokens()
	if len(errs) == 0 {
		t.Error("expected a lex error for unterminated string")
	}
}

func TestLexer_Operators(t *testing.T) {
	tokens := scanAll(t, "x == y\n")
	if tokens[1].Type != TOKEN_OP || tokens[1].Lexeme != "==" {
		t.Errorf("expected OP(==), got %v", tokens[1])
	}

	tokens = scanAll(t, "x = -1\n")
	if tokens[2].Type != TOKEN_MINUS {
		t.Errorf("expected MINUS, got %v", tokens[2])
	}
}
