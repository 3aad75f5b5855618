// Package codegen renders intermediate schemas into client-side type
// definitions across languages and naming conventions.
package codegen

import (
	"fmt"

	"github.com/qosha1/easysdk/internal/naming"
)

// Language identifies one emission target.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangJava       Language = "java"
)

// Languages returns every supported target.
func Languages() []Language {
	return []Language{LangTypeScript, LangPython, LangJava}
}

// ParseLanguage validates a language name from config or flags.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LangTypeScript, LangPython, LangJava:
		return Language(s), nil
	}
	return "", fmt.Errorf("unsupported language %q (supported: typescript, python, java)", s)
}

// Extension returns the generated file extension for the language.
func (l Language) Extension() string {
	switch l {
	case LangTypeScript:
		return ".ts"
	case LangPython:
		return ".py"
	case LangJava:
		return ".java"
	}
	return ".txt"
}

// Variant is one naming-convention pair. Interfaces and properties are cased
// independently so one schema can serve projects with different styles.
type Variant struct {
	Interface naming.Convention
	Property  naming.Convention
}

// Dir is the output subdirectory name for the variant,
// e.g. "PascalCase_camelCase".
func (v Variant) Dir() string {
	return string(v.Interface) + "_" + string(v.Property)
}

// LanguageConfig is an immutable value object pairing one language with one
// naming variant. Emitters never mutate it.
type LanguageConfig struct {
	Language Language
	Variant  Variant

	// InterfaceSuffix is appended to every type name before casing. Empty
	// by default.
	InterfaceSuffix string
	// PreserveFieldNames keeps source property names verbatim instead of
	// recasing them.
	PreserveFieldNames bool
}

// InterfaceName applies the interface naming convention plus any configured
// suffix.
func (c LanguageConfig) InterfaceName(name string) string {
	return naming.Apply(name+c.InterfaceSuffix, c.Variant.Interface)
}

// PropertyName applies the property naming convention unless original names
// are preserved.
func (c LanguageConfig) PropertyName(name string) string {
	if c.PreserveFieldNames {
		return name
	}
	return naming.Apply(name, c.Variant.Property)
}

// frameworkFieldTypes is the language-neutral set of framework field-type
// names. Nesting decisions consult this set rather than any one language's
// type table, so a language-specific mapping never changes whether a
// relation is treated as keyed or embedded.
var frameworkFieldTypes = map[string]bool{
	"CharField":                 true,
	"TextField":                 true,
	"EmailField":                true,
	"URLField":                  true,
	"SlugField":                 true,
	"UUIDField":                 true,
	"IPAddressField":            true,
	"FilePathField":             true,
	"RegexField":                true,
	"IntegerField":              true,
	"BigIntegerField":           true,
	"SmallIntegerField":         true,
	"PositiveIntegerField":      true,
	"PositiveSmallIntegerField": true,
	"AutoField":                 true,
	"BigAutoField":              true,
	"FloatField":                true,
	"DecimalField":              true,
	"BooleanField":              true,
	"NullBooleanField":          true,
	"DateTimeField":             true,
	"DateField":                 true,
	"TimeField":                 true,
	"DurationField":             true,
	"JSONField":                 true,
	"DictField":                 true,
	"ListField":                 true,
	"SerializerMethodField":     true,
	"ReadOnlyField":             true,
	"HiddenField":               true,
	"ChoiceField":               true,
	"MultipleChoiceField":       true,
	"ForeignKey":                true,
	"OneToOneField":             true,
	"ManyToManyField":           true,
	"PrimaryKeyRelatedField":    true,
	"StringRelatedField":        true,
	"SlugRelatedField":          true,
	"HyperlinkedIdentityField":  true,
	"HyperlinkedRelatedField":   true,
	"ImageField":                true,
	"FileField":                 true,
}

// isFrameworkFieldType reports whether name is a known framework field-type
// rather than a user-defined serializer or model reference.
func isFrameworkFieldType(name string) bool {
	return frameworkFieldTypes[name]
}

// Per-language scalar type tables. Keys are source framework field-type
// names; lookups that miss fall back to the language's dynamic type
// (any / Any / Object) rather than failing.
var typeScriptTypes = map[string]string{
	"CharField":                 "string",
	"TextField":                 "string",
	"EmailField":                "string",
	"URLField":                  "string",
	"SlugField":                 "string",
	"UUIDField":                 "string",
	"IPAddressField":            "string",
	"FilePathField":             "string",
	"RegexField":                "string",
	"IntegerField":              "number",
	"BigIntegerField":           "number",
	"SmallIntegerField":         "number",
	"PositiveIntegerField":      "number",
	"PositiveSmallIntegerField": "number",
	"AutoField":                 "number",
	"BigAutoField":              "number",
	"FloatField":                "number",
	"DecimalField":              "string", // emitted as string to preserve precision
	"BooleanField":              "boolean",
	"NullBooleanField":          "boolean",
	"DateTimeField":             "string",
	"DateField":                 "string",
	"TimeField":                 "string",
	"DurationField":             "string",
	"JSONField":                 "any",
	"DictField":                 "any",
	"ListField":                 "any",
	"SerializerMethodField":     "any",
	"ReadOnlyField":             "any",
	"HiddenField":               "any",
	"ChoiceField":               "string",
	"MultipleChoiceField":       "string",
	"ForeignKey":                "number",
	"OneToOneField":             "number",
	"ManyToManyField":           "number",
	"PrimaryKeyRelatedField":    "number",
	"StringRelatedField":        "string",
	"SlugRelatedField":          "string",
	"HyperlinkedIdentityField":  "string",
	"HyperlinkedRelatedField":   "string",
	"ImageField":                "string",
	"FileField":                 "string",
}

var pythonTypes = map[string]string{
	"CharField":                 "str",
	"TextField":                 "str",
	"EmailField":                "str",
	"URLField":                  "str",
	"SlugField":                 "str",
	"UUIDField":                 "str",
	"IPAddressField":            "str",
	"FilePathField":             "str",
	"RegexField":                "str",
	"IntegerField":              "int",
	"BigIntegerField":           "int",
	"SmallIntegerField":         "int",
	"PositiveIntegerField":      "int",
	"PositiveSmallIntegerField": "int",
	"AutoField":                 "int",
	"BigAutoField":              "int",
	"FloatField":                "float",
	"DecimalField":              "Decimal",
	"BooleanField":              "bool",
	"NullBooleanField":          "bool",
	"DateTimeField":             "datetime",
	"DateField":                 "date",
	"TimeField":                 "time",
	"DurationField":             "timedelta",
	"JSONField":                 "Dict[str, Any]",
	"DictField":                 "Dict[str, Any]",
	"ListField":                 "Any",
	"SerializerMethodField":     "Any",
	"ReadOnlyField":             "Any",
	"HiddenField":               "Any",
	"ChoiceField":               "str",
	"MultipleChoiceField":       "str",
	"ForeignKey":                "int",
	"OneToOneField":             "int",
	"ManyToManyField":           "int",
	"PrimaryKeyRelatedField":    "int",
	"StringRelatedField":        "str",
	"SlugRelatedField":          "str",
	"HyperlinkedIdentityField":  "str",
	"HyperlinkedRelatedField":   "str",
	"ImageField":                "str",
	"FileField":                 "str",
}

var javaTypes = map[string]string{
	"CharField":                 "String",
	"TextField":                 "String",
	"EmailField":                "String",
	"URLField":                  "String",
	"SlugField":                 "String",
	"UUIDField":                 "String",
	"IPAddressField":            "String",
	"FilePathField":             "String",
	"RegexField":                "String",
	"IntegerField":              "Integer",
	"BigIntegerField":           "Long",
	"SmallIntegerField":         "Integer",
	"PositiveIntegerField":      "Integer",
	"PositiveSmallIntegerField": "Integer",
	"AutoField":                 "Long",
	"BigAutoField":              "Long",
	"FloatField":                "Double",
	"DecimalField":              "BigDecimal",
	"BooleanField":              "Boolean",
	"NullBooleanField":          "Boolean",
	"DateTimeField":             "LocalDateTime",
	"DateField":                 "LocalDate",
	"TimeField":                 "LocalTime",
	"DurationField":             "Duration",
	"JSONField":                 "Object",
	"DictField":                 "Object",
	"ListField":                 "Object",
	"SerializerMethodField":     "Object",
	"ReadOnlyField":             "Object",
	"HiddenField":               "Object",
	"ChoiceField":               "String",
	"MultipleChoiceField":       "String",
	"ForeignKey":                "Long",
	"OneToOneField":             "Long",
	"ManyToManyField":           "Long",
	"PrimaryKeyRelatedField":    "Long",
	"StringRelatedField":        "String",
	"SlugRelatedField":          "String",
	"HyperlinkedIdentityField":  "String",
	"HyperlinkedRelatedField":   "String",
	"ImageField":                "String",
	"FileField":                 "String",
}

// MapType resolves a source field-type name to the language's type token.
// Unmapped types fall back to the dynamic type.
func (l Language) MapType(sourceType string) string {
	var table map[string]string
	fallback := "any"
	switch l {
	case LangTypeScript:
		table = typeScriptTypes
	case LangPython:
		table, fallback = pythonTypes, "Any"
	case LangJava:
		table, fallback = javaTypes, "Object"
	default:
		return fallback
	}
	if t, ok := table[sourceType]; ok {
		return t
	}
	return fallback
}
