package pysrc

import (
	"strconv"
	"strings"
)

// Module is the root node of a parsed Python file.
type Module struct {
	// Imports maps local binding names to canonical dotted names, e.g.
	// {"s": "rest_framework.serializers", "Product": "products.models.Product"}.
	Imports map[string]string
	// Classes holds every top-level class definition in declaration order.
	Classes []*ClassDef
	// Assigns holds simple module-level assignments (url patterns, settings
	// constants) in declaration order.
	Assigns []*Assign
	// Docstring is the module docstring, if any.
	Docstring string
}

// ClassDef is a class definition with the parts of its body the analyzer
// consumes. Statements the parser does not model are dropped, not errors.
type ClassDef struct {
	Name      string
	Bases     []Expr
	Docstring string
	// Assigns holds simple `name = expr` statements in declaration order.
	Assigns []*Assign
	// Methods holds function definitions (signature-level only).
	Methods []*FunctionDef
	// Inner holds nested class definitions, e.g. `class Meta:`.
	Inner []*ClassDef
	Line  int
}

// Meta returns the nested `class Meta` definition, or nil.
func (c *ClassDef) Meta() *ClassDef {
	for _, inner := range c.Inner {
		if inner.Name == "Meta" {
			return inner
		}
	}
	return nil
}

// Assign is a simple single-target assignment `name = value`. Annotated
// assignments (`name: T = value`) are reduced to the same shape.
type Assign struct {
	Target string
	Value  Expr
	Line   int
}

// FunctionDef is a method or function signature. Bodies are not retained.
type FunctionDef struct {
	Name       string
	Decorators []Expr
	Line       int
}

// Decorator returns the decorator expression whose base name matches name,
// or nil. Matches both `@action` and `@decorators.action(...)` forms.
func (f *FunctionDef) Decorator(name string) Expr {
	for _, d := range f.Decorators {
		target := d
		if call, ok := target.(*Call); ok {
			target = call.Func
		}
		dotted := DottedName(target)
		if dotted == name || strings.HasSuffix(dotted, "."+name) {
			return d
		}
	}
	return nil
}

// Expr is a Python expression node.
type Expr interface {
	exprNode()
}

// Name is a bare identifier reference.
type Name struct {
	ID string
}

// Attribute is a dotted access `value.attr`.
type Attribute struct {
	Value Expr
	Attr  string
}

// Call is a constructor or function call with positional and keyword args.
type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// Keyword is a single `name=value` argument inside a call.
type Keyword struct {
	Name  string
	Value Expr
}

// Keyword returns the value of the named keyword argument, or nil.
func (c *Call) Keyword(name string) Expr {
	for _, kw := range c.Keywords {
		if kw.Name == name {
			return kw.Value
		}
	}
	return nil
}

// Str is a string literal.
type Str struct {
	Value string
}

// Num is a numeric literal, retained as source text.
type Num struct {
	Value   string
	IsFloat bool
}

// Bool is True or False.
type Bool struct {
	Value bool
}

// NoneLit is the None literal.
type NoneLit struct{}

// List is a list literal.
type List struct {
	Elts []Expr
}

// Tuple is a tuple literal.
type Tuple struct {
	Elts []Expr
}

// Dict is a dict literal.
type Dict struct {
	Keys   []Expr
	Values []Expr
}

// Raw captures an expression the parser does not model. The analyzer treats
// it as opaque.
type Raw struct {
	Text string
}

func (*Name) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Call) exprNode()      {}
func (*Str) exprNode()       {}
func (*Num) exprNode()       {}
func (*Bool) exprNode()      {}
func (*NoneLit) exprNode()   {}
func (*List) exprNode()      {}
func (*Tuple) exprNode()     {}
func (*Dict) exprNode()      {}
func (*Raw) exprNode()       {}

// DottedName flattens a Name or Attribute chain into a dotted string.
// Returns "" for any other node kind.
func DottedName(e Expr) string {
	switch n := e.(type) {
	case *Name:
		return n.ID
	case *Attribute:
		base := DottedName(n.Value)
		if base == "" {
			return ""
		}
		return base + "." + n.Attr
	}
	return ""
}

// Literal converts a literal expression tree to its Go value: string, int64,
// float64, bool, nil, []any, or map[string]any. Non-literal nodes return
// (nil, false).
func Literal(e Expr) (any, bool) {
	switch n := e.(type) {
	case *Str:
		return n.Value, true
	case *Bool:
		return n.Value, true
	case *NoneLit:
		return nil, true
	case *Num:
		return parseNum(n)
	case *List:
		return literalSlice(n.Elts)
	case *Tuple:
		return literalSlice(n.Elts)
	case *Dict:
		m := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			key, ok := Literal(k)
			if !ok {
				return nil, false
			}
			val, ok := Literal(n.Values[i])
			if !ok {
				return nil, false
			}
			ks, ok := key.(string)
			if !ok {
				return nil, false
			}
			m[ks] = val
		}
		return m, true
	}
	return nil, false
}

func literalSlice(elts []Expr) (any, bool) {
	out := make([]any, 0, len(elts))
	for _, e := range elts {
		v, ok := Literal(e)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func parseNum(n *Num) (any, bool) {
	text := strings.ReplaceAll(n.Value, "_", "")
	if i, err := strconv.ParseInt(text, 0, 64); err == nil && !n.IsFloat {
		return i, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	return nil, false
}
