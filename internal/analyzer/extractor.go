package analyzer

import (
	"fmt"
	"os"
	"strings"

	"github.com/qosha1/easysdk/internal/pysrc"
)

// BaseClassFragments maps each entity kind to the base-class name fragments
// that identify it. Matching happens against canonical, alias-resolved base
// names, so substring matching is a last-resort heuristic rather than the
// primary mechanism.
type BaseClassFragments map[EntityKind][]string

// DefaultFragments returns the recognized Django/DRF base-class fragments.
func DefaultFragments() BaseClassFragments {
	return BaseClassFragments{
		KindModel:      {"Model"},
		KindSerializer: {"Serializer", "ModelSerializer", "ListSerializer"},
		KindView:       {"APIView", "ViewSet", "GenericAPIView", "View"},
	}
}

// fieldAttributeWhitelist is the fixed set of keyword arguments the extractor
// interprets. Unknown keywords are ignored, never errors.
var fieldAttributeWhitelist = map[string]struct{}{
	"required":    {},
	"read_only":   {},
	"write_only":  {},
	"allow_null":  {},
	"allow_blank": {},
	"null":        {},
	"blank":       {},
	"default":     {},
	"help_text":   {},
	"max_length":  {},
	"min_length":  {},
	"max_value":   {},
	"min_value":   {},
	"choices":     {},
}

// relationFieldTypes are constructor names whose first argument names the
// related model.
var relationFieldTypes = map[string]bool{
	"ForeignKey":      false,
	"OneToOneField":   false,
	"ManyToManyField": true, // multi-value
}

// multiValueFieldTypes are field types that are arrays independent of any
// many=True keyword.
var multiValueFieldTypes = map[string]struct{}{
	"ManyToManyField": {},
	"ListField":       {},
}

// Extractor parses Python source files and extracts entity definitions whose
// base classes match the configured fragments. It is safe for concurrent use
// across files because each call builds fresh per-file state.
type Extractor struct {
	fragments BaseClassFragments
}

// NewExtractor creates an Extractor with the given base-class fragments.
// A nil fragments table falls back to DefaultFragments.
func NewExtractor(fragments BaseClassFragments) *Extractor {
	if fragments == nil {
		fragments = DefaultFragments()
	}
	return &Extractor{fragments: fragments}
}

// ExtractFile parses one source file and returns every entity definition it
// contains. A file that cannot be read or parsed returns an error; callers
// skip the file and record a warning rather than aborting the scan.
func (x *Extractor) ExtractFile(path string) ([]*EntityDefinition, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return x.ExtractSource(path, string(source))
}

// ExtractSource extracts entity definitions from already-loaded source text.
func (x *Extractor) ExtractSource(path, source string) ([]*EntityDefinition, error) {
	module, err := pysrc.ParseSource(source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var entities []*EntityDefinition
	for _, class := range module.Classes {
		kind, bases, ok := x.classify(class, module.Imports)
		if !ok {
			continue
		}
		entity := x.extractClass(class, kind, bases, path, module.Imports)
		entities = append(entities, entity)
	}
	return entities, nil
}

// classify resolves a class's base names through the import-alias table and
// matches them against the configured fragments. The declaration order of
// kinds is fixed so a class inheriting both serializer and view bases lands
// deterministically.
func (x *Extractor) classify(class *pysrc.ClassDef, imports map[string]string) (EntityKind, []string, bool) {
	bases := make([]string, 0, len(class.Bases))
	for _, base := range class.Bases {
		if dotted := resolveDotted(pysrc.DottedName(base), imports); dotted != "" {
			bases = append(bases, dotted)
		}
	}

	for _, kind := range []EntityKind{KindSerializer, KindView, KindModel} {
		for _, base := range bases {
			for _, fragment := range x.fragments[kind] {
				if baseMatches(base, fragment) {
					return kind, bases, true
				}
			}
		}
	}
	return "", bases, false
}

// baseMatches checks a canonical base name against one fragment. An exact
// match on the final path segment is preferred; substring matching on the
// full dotted name is the fallback for unresolvable aliases.
func baseMatches(base, fragment string) bool {
	last := base
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		last = base[idx+1:]
	}
	if last == fragment {
		return true
	}
	return strings.Contains(base, fragment)
}

// extractClass builds an EntityDefinition from one matched class body.
func (x *Extractor) extractClass(class *pysrc.ClassDef, kind EntityKind, bases []string, path string, imports map[string]string) *EntityDefinition {
	entity := &EntityDefinition{
		Name:        class.Name,
		Kind:        kind,
		SourceFile:  path,
		Line:        class.Line,
		BaseClasses: bases,
		Docstring:   class.Docstring,
	}

	for _, method := range class.Methods {
		entity.Methods = append(entity.Methods, method.Name)
	}

	for _, assign := range class.Assigns {
		if strings.HasPrefix(assign.Target, "_") {
			continue
		}
		if kind == KindView {
			x.extractViewAttribute(entity, assign, imports)
			continue
		}
		// A field whose arguments cannot be interpreted is omitted, never a
		// file-level failure.
		if field := x.extractField(assign, imports); field != nil {
			entity.Fields = append(entity.Fields, field)
			if field.RelatedEntity != "" {
				entity.AddRelated(field.RelatedEntity)
			}
		}
	}

	if meta := class.Meta(); meta != nil {
		entity.Meta = x.extractMeta(meta, imports)
		if model, ok := entity.Meta["model"].(string); ok {
			entity.ModelName = model
			entity.AddRelated(model)
		}
	}

	if kind == KindView {
		extractViewDetails(entity, class)
	}

	return entity
}

// extractField turns a single `name = Call(...)` assignment into a
// FieldDefinition. Non-call values and unrecognized callees return nil.
func (x *Extractor) extractField(assign *pysrc.Assign, imports map[string]string) *FieldDefinition {
	call, ok := assign.Value.(*pysrc.Call)
	if !ok {
		return nil
	}

	callee := resolveDotted(pysrc.DottedName(call.Func), imports)
	if callee == "" {
		return nil
	}
	sourceType := lastSegment(callee)

	field := &FieldDefinition{
		Name:       assign.Target,
		SourceType: sourceType,
		Required:   true,
	}

	// Relation constructors name their target in the first positional
	// argument or via to=; both allow quoted forward references.
	if _, isRelation := relationFieldTypes[sourceType]; isRelation {
		if len(call.Args) > 0 {
			field.RelatedEntity = relatedNameFromExpr(call.Args[0], imports)
		}
		if to := call.Keyword("to"); field.RelatedEntity == "" && to != nil {
			field.RelatedEntity = relatedNameFromExpr(to, imports)
		}
	} else if isEntityReference(sourceType) {
		// Nested serializer: the callee itself is the referenced entity.
		field.RelatedEntity = sourceType
	} else if len(call.Args) > 0 {
		// Non-relation constructors with a class-valued first argument
		// (e.g. ListField(ChildSerializer())) are treated as nested.
		if name := relatedNameFromExpr(call.Args[0], imports); isEntityReference(name) {
			field.RelatedEntity = name
		}
	}

	if _, multi := multiValueFieldTypes[sourceType]; multi {
		field.IsArray = true
	}

	for _, kw := range call.Keywords {
		x.applyKeyword(field, kw, imports)
	}

	return field
}

// applyKeyword interprets one keyword argument against the attribute
// whitelist plus the special relation keywords. Unknown keywords and
// non-literal values are ignored.
func (x *Extractor) applyKeyword(field *FieldDefinition, kw pysrc.Keyword, imports map[string]string) {
	switch kw.Name {
	case "many":
		if v, ok := pysrc.Literal(kw.Value); ok && v == true {
			field.IsArray = true
		}
		return
	case "queryset":
		if model := modelFromQueryset(kw.Value); model != "" {
			field.RelatedEntity = model
		}
		return
	case "related_name":
		if v, ok := pysrc.Literal(kw.Value); ok {
			if s, ok := v.(string); ok {
				field.ReverseName = s
			}
		}
		return
	case "source", "child", "method_name", "on_delete", "upload_to", "validators",
		"verbose_name", "unique", "db_index", "primary_key", "max_digits", "decimal_places":
		// Recognized but structurally irrelevant here.
		return
	}

	if _, ok := fieldAttributeWhitelist[kw.Name]; !ok {
		return
	}

	value, ok := pysrc.Literal(kw.Value)
	if !ok {
		// Dynamic defaults (timezone.now, callables) keep the flag but not
		// the value.
		if kw.Name == "default" {
			field.HasDefault = true
		}
		return
	}

	switch kw.Name {
	case "required":
		field.Required = value == true
	case "read_only":
		if value == true {
			field.ReadOnly = true
			field.Required = false
		}
	case "write_only":
		field.WriteOnly = value == true
	case "allow_null", "null":
		field.Nullable = value == true
	case "allow_blank", "blank":
		field.Blank = value == true
		// Django models: blank=True means the field is optional on input.
		if kw.Name == "blank" && value == true {
			field.Required = false
		}
	case "default":
		field.Default = value
		field.HasDefault = true
		field.Required = false
	case "help_text":
		if s, ok := value.(string); ok {
			field.HelpText = s
		}
	case "max_length":
		field.MaxLength = intPtr(value)
	case "min_length":
		field.MinLength = intPtr(value)
	case "max_value":
		field.MaxValue = floatPtr(value)
	case "min_value":
		field.MinValue = floatPtr(value)
	case "choices":
		field.Choices = parseChoices(value)
	}
}

// extractMeta converts a nested Meta class body into a key-value map. A
// `model = Foo` assignment is recorded by resolving Foo's name rather than
// treating it as a literal.
func (x *Extractor) extractMeta(meta *pysrc.ClassDef, imports map[string]string) map[string]any {
	out := make(map[string]any, len(meta.Assigns))
	for _, assign := range meta.Assigns {
		if assign.Target == "model" {
			if name := relatedNameFromExpr(assign.Value, imports); name != "" {
				out["model"] = name
			}
			continue
		}
		if value, ok := pysrc.Literal(assign.Value); ok {
			out[assign.Target] = value
		}
	}
	return out
}

// relatedNameFromExpr resolves an expression referencing another entity:
// a bare name, a dotted name, or a string-quoted forward reference like
// 'OtherSerializer' or 'app.Model'. Quoted references keep their app
// qualifier; relationship resolution strips it.
func relatedNameFromExpr(e pysrc.Expr, imports map[string]string) string {
	if str, ok := e.(*pysrc.Str); ok {
		return str.Value
	}
	if dotted := pysrc.DottedName(e); dotted != "" {
		return lastSegment(resolveDotted(dotted, imports))
	}
	return ""
}

// modelFromQueryset walks Model.objects.all() / Model.objects.filter(...)
// chains back to the model name.
func modelFromQueryset(e pysrc.Expr) string {
	switch n := e.(type) {
	case *pysrc.Call:
		return modelFromQueryset(n.Func)
	case *pysrc.Attribute:
		if n.Attr == "objects" {
			return lastSegment(pysrc.DottedName(n.Value))
		}
		return modelFromQueryset(n.Value)
	}
	return ""
}

// isEntityReference reports whether a resolved name looks like a reference
// to another extracted entity rather than a framework field type.
func isEntityReference(name string) bool {
	if name == "" || strings.HasSuffix(name, "Field") {
		return false
	}
	return strings.HasSuffix(name, "Serializer") || strings.HasSuffix(name, "Model")
}

// resolveDotted maps the leading segment of a dotted name through the
// import-alias table, yielding a canonical dotted name.
func resolveDotted(dotted string, imports map[string]string) string {
	if dotted == "" {
		return ""
	}
	head := dotted
	rest := ""
	if idx := strings.Index(dotted, "."); idx >= 0 {
		head = dotted[:idx]
		rest = dotted[idx:]
	}
	if full, ok := imports[head]; ok {
		return full + rest
	}
	return dotted
}

func lastSegment(dotted string) string {
	if idx := strings.LastIndex(dotted, "."); idx >= 0 {
		return dotted[idx+1:]
	}
	return dotted
}

// parseChoices normalizes a choices literal into (value, label) pairs.
// Accepts [(v, label), ...] and flat [v1, v2, ...] forms.
func parseChoices(value any) []Choice {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	choices := make([]Choice, 0, len(list))
	for _, item := range list {
		if pair, ok := item.([]any); ok && len(pair) == 2 {
			label, _ := pair[1].(string)
			choices = append(choices, Choice{Value: pair[0], Label: label})
			continue
		}
		choices = append(choices, Choice{Value: item, Label: fmt.Sprintf("%v", item)})
	}
	return choices
}

func intPtr(value any) *int {
	switch v := value.(type) {
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
		return &n
	}
	return nil
}

func floatPtr(value any) *float64 {
	switch v := value.(type) {
	case int64:
		f := float64(v)
		return &f
	case float64:
		return &v
	}
	return nil
}
