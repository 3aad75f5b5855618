package pysrc

import (
	"testing"
)

const serializerSource = `"""Product serializers."""
from rest_framework import serializers as s
from decimal import Decimal

from .models import Product


class ProductSerializer(s.ModelSerializer):
    """Serializes products for the public API."""

    name = s.CharField(max_length=200, help_text="Display name")
    price = s.DecimalField(max_digits=10, decimal_places=2)
    internal_notes = s.CharField(read_only=True, required=False)
    category = s.PrimaryKeyRelatedField(queryset=Category.objects.all())
    tags = TagSerializer(many=True, required=False)
    status = s.ChoiceField(choices=[('draft', 'Draft'), ('live', 'Live')])

    class Meta:
        model = Product
        fields = '__all__'
        ordering = ['-created_at']

    def validate_price(self, value):
        if value <= 0:
            raise ValidationError("price must be positive")
        return value
`

func parseOK(t *testing.T, source string) *Module {
	t.Helper()
	module, err := ParseSource(source)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return module
}

func TestParser_Imports(t *testing.T) {
	module := parseOK(t, serializerSource)

	tests := map[string]string{
		"s":       "rest_framework.serializers",
		"Decimal": "decimal.Decimal",
		"Product": "models.Product",
	}
	for local, want := range tests {
		if got := module.Imports[local]; got != want {
			t.Errorf("import %q: expected %q, got %q", local, want, got)
		}
	}
}

func TestParser_ModuleDocstring(t *testing.T) {
	module := parseOK(t, serializerSource)
	if module.Docstring != "Product serializers." {
		t.Errorf("unexpected module docstring: %q", module.Docstring)
	}
}

func TestParser_ClassDef(t *testing.T) {
	module := parseOK(t, serializerSource)

	if len(module.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(module.Classes))
	}

	class := module.Classes[0]
	if class.Name != "ProductSerializer" {
		t.Errorf("expected ProductSerializer, got %s", class.Name)
	}
	if class.Docstring != "Serializes products for the public API." {
		t.Errorf("unexpected docstring: %q", class.Docstring)
	}
	if len(class.Bases) != 1 || DottedName(class.Bases[0]) != "s.ModelSerializer" {
		t.Errorf("unexpected bases: %v", class.Bases)
	}
}

func TestParser_FieldAssignments(t *testing.T) {
	module := parseOK(t, serializerSource)
	class := module.Classes[0]

	expected := []string{"name", "price", "internal_notes", "category", "tags", "status"}
	if len(class.Assigns) != len(expected) {
		t.Fatalf("expected %d assigns, got %d", len(expected), len(class.Assigns))
	}
	for i, want := range expected {
		if class.Assigns[i].Target != want {
			t.Errorf("assign %d: expected %s, got %s", i, want, class.Assigns[i].Target)
		}
	}

	// name = s.CharField(max_length=200, ...)
	call, ok := class.Assigns[0].Value.(*Call)
	if !ok {
		t.Fatalf("expected Call, got %T", class.Assigns[0].Value)
	}
	if DottedName(call.Func) != "s.CharField" {
		t.Errorf("expected s.CharField, got %s", DottedName(call.Func))
	}
	if v, _ := Literal(call.Keyword("max_length")); v != int64(200) {
		t.Errorf("expected max_length 200, got %v", v)
	}
}

func TestParser_ChoicesLiteral(t *testing.T) {
	module := parseOK(t, serializerSource)
	class := module.Classes[0]

	status := class.Assigns[5].Value.(*Call)
	choices, ok := Literal(status.Keyword("choices"))
	if !ok {
		t.Fatal("expected choices literal")
	}
	list := choices.([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(list))
	}
	first := list[0].([]any)
	if first[0] != "draft" || first[1] != "Draft" {
		t.Errorf("unexpected first choice: %v", first)
	}
}

func TestParser_MetaClass(t *testing.T) {
	module := parseOK(t, serializerSource)
	meta := module.Classes[0].Meta()

	if meta == nil {
		t.Fatal("expected Meta class")
	}
	if len(meta.Assigns) != 3 {
		t.Fatalf("expected 3 Meta assigns, got %d", len(meta.Assigns))
	}
	if meta.Assigns[0].Target != "model" {
		t.Errorf("expected model assign, got %s", meta.Assigns[0].Target)
	}
	if DottedName(meta.Assigns[0].Value) != "Product" {
		t.Errorf("expected Product, got %v", meta.Assigns[0].Value)
	}
	if v, _ := Literal(meta.Assigns[1].Value); v != "__all__" {
		t.Errorf("expected '__all__', got %v", v)
	}
}

func TestParser_MethodsRecordedBodiesSkipped(t *testing.T) {
	module := parseOK(t, serializerSource)
	class := module.Classes[0]

	if len(class.Methods) != 1 || class.Methods[0].Name != "validate_price" {
		t.Errorf("expected validate_price method, got %v", class.Methods)
	}
}

func TestParser_DecoratedAction(t *testing.T) {
	source := `class ProductViewSet(viewsets.ModelViewSet):
    queryset = Product.objects.all()

    @action(detail=True, methods=['post'], url_path='publish')
    def publish(self, request, pk=None):
        pass
`
	module := parseOK(t, source)
	class := module.Classes[0]

	if len(class.Methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(class.Methods))
	}
	dec := class.Methods[0].Decorator("action")
	if dec == nil {
		t.Fatal("expected @action decorator")
	}
	call, ok := dec.(*Call)
	if !ok {
		t.Fatalf("expected decorator call, got %T", dec)
	}
	if v, _ := Literal(call.Keyword("detail")); v != true {
		t.Errorf("expected detail=True, got %v", v)
	}
	if v, _ := Literal(call.Keyword("url_path")); v != "publish" {
		t.Errorf("expected url_path publish, got %v", v)
	}
}

func TestParser_QuerysetOpaque(t *testing.T) {
	source := "class V:\n    queryset = Product.objects.all()\n"
	module := parseOK(t, source)

	// Method-call chains survive as structured Call nodes so the analyzer
	// can walk back to the model name.
	value := module.Classes[0].Assigns[0].Value
	call, ok := value.(*Call)
	if !ok {
		t.Fatalf("expected Call, got %T", value)
	}
	attr, ok := call.Func.(*Attribute)
	if !ok || attr.Attr != "all" {
		t.Fatalf("expected .all() call, got %v", call.Func)
	}
}

func TestParser_SyntaxErrorReturnsError(t *testing.T) {
	sources := []string{
		"class Broken(\n",
		"x = 'unterminated\n",
		"def f(:\n    pass\n",
	}
	for _, src := range sources {
		if _, err := ParseSource(src); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}

func TestParser_SkipsUnmodeledStatements(t *testing.T) {
	source := `import os

CONSTANT = {'a': 1}

if os.environ.get('DEBUG'):
    x = 1
else:
    x = 2

class Kept(Base):
    field = Call()

    for i in range(3):
        print(i)

    with open('f') as fh:
        pass
`
	module := parseOK(t, source)
	if len(module.Classes) != 1 || module.Classes[0].Name != "Kept" {
		t.Fatalf("expected class Kept to survive, got %v", module.Classes)
	}
	if len(module.Classes[0].Assigns) != 1 {
		t.Errorf("expected 1 assign, got %d", len(module.Classes[0].Assigns))
	}
}
