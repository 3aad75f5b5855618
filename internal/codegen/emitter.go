package codegen

import (
	"fmt"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// Emitter renders one app schema into a single output file for its
// language. Implementations are stateless; one instance can serve every
// naming variant concurrently.
type Emitter interface {
	Language() Language
	// EmitApp returns the file content plus per-entity warnings. An entity
	// that fails to render is skipped in this combination only.
	EmitApp(app *analyzer.AppSchema, cfg LanguageConfig) (string, []string, error)
	// EmitIndex aggregates the generated app files for one variant
	// directory.
	EmitIndex(apps []string, cfg LanguageConfig) string
}

// NewEmitter returns the emitter for a language.
func NewEmitter(lang Language) (Emitter, error) {
	switch lang {
	case LangTypeScript:
		return &TypeScriptEmitter{}, nil
	case LangPython:
		return &PythonEmitter{}, nil
	case LangJava:
		return &JavaEmitter{}, nil
	}
	return nil, fmt.Errorf("no emitter for language %q", lang)
}

// renderField is a field already resolved against one LanguageConfig.
type renderField struct {
	Name        string
	Type        string
	Optional    bool
	ReadOnly    bool
	Nullable    bool
	Array       bool
	Description string
}

// renderType is one emitted interface/class/record.
type renderType struct {
	Name        string
	Description string
	Fields      []renderField
}

// buildRenderTypes flattens an app schema into the types one variant emits:
// for every serializer a "read" shape carrying read-only fields and a
// "create" shape omitting them. Apps without serializers fall back to their
// models so plain projects still get usable types. Returns the types plus
// one warning per entity that could not be rendered.
func buildRenderTypes(app *analyzer.AppSchema, cfg LanguageConfig) ([]renderType, []string) {
	entities := app.Serializers
	if len(entities) == 0 {
		entities = app.Models
	}

	var types []renderType
	var warnings []string
	for _, entity := range entities {
		if entity.Name == "" {
			warnings = append(warnings, fmt.Sprintf("app %s: skipping unnamed entity from %s", app.AppName, entity.SourceFile))
			continue
		}
		read, create := entityVariants(entity, cfg)
		types = append(types, read)
		if entity.Kind == analyzer.KindSerializer {
			types = append(types, create)
		}
	}
	return types, warnings
}

// entityVariants builds the read and create shapes of one entity. The read
// shape includes read-only fields and drops write-only ones; the create
// shape is the inverse.
func entityVariants(entity *analyzer.EntityDefinition, cfg LanguageConfig) (read, create renderType) {
	base := baseTypeName(entity.Name)
	description := entity.Summary
	if description == "" {
		description = entity.Docstring
	}
	if description == "" {
		description = fmt.Sprintf("Generated from %s", entity.Name)
	}

	read = renderType{Name: cfg.InterfaceName(base), Description: description}
	create = renderType{Name: cfg.InterfaceName(base + "Create"), Description: fmt.Sprintf("Creation payload for %s", cfg.InterfaceName(base))}

	for _, field := range entity.Fields {
		rf := resolveField(field, cfg)
		if !field.WriteOnly {
			read.Fields = append(read.Fields, rf)
		}
		if !field.ReadOnly {
			create.Fields = append(create.Fields, rf)
		}
	}
	return read, create
}

// baseTypeName strips the conventional Serializer suffix so ProductSerializer
// emits as Product.
func baseTypeName(name string) string {
	if len(name) > len("Serializer") && name[len(name)-len("Serializer"):] == "Serializer" {
		return name[:len(name)-len("Serializer")]
	}
	return name
}

// resolveField maps one FieldDefinition onto the target language. Nested
// entity references use the referenced type's interface name; plain
// relations and scalars go through the language type table.
func resolveField(field *analyzer.FieldDefinition, cfg LanguageConfig) renderField {
	rf := renderField{
		Name:        cfg.PropertyName(field.Name),
		Optional:    !field.Required,
		ReadOnly:    field.ReadOnly,
		Nullable:    field.Nullable,
		Array:       field.IsArray,
		Description: fieldDescription(field),
	}

	if isNestedReference(field) {
		rf.Type = cfg.InterfaceName(baseTypeName(lastName(field.RelatedEntity)))
	} else {
		rf.Type = cfg.Language.MapType(field.SourceType)
	}
	return rf
}

func fieldDescription(field *analyzer.FieldDefinition) string {
	if field.Description != "" {
		return field.Description
	}
	return field.HelpText
}

// isNestedReference reports whether a relation embeds the referenced shape
// rather than carrying its key. Nested serializers embed; model relations
// and PK-related fields stay keyed.
func isNestedReference(field *analyzer.FieldDefinition) bool {
	if field.RelatedEntity == "" {
		return false
	}
	return !isFrameworkFieldType(field.SourceType)
}

func lastName(dotted string) string {
	for i := len(dotted) - 1; i >= 0; i-- {
		if dotted[i] == '.' {
			return dotted[i+1:]
		}
	}
	return dotted
}
