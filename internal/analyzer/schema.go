// Package analyzer extracts a language-neutral schema from Django and Django
// REST Framework source files. It walks parsed Python syntax trees and
// produces entity, field, and endpoint definitions that the code and
// documentation generators consume.
package analyzer

import "sort"

// EntityKind tags what framework construct an entity was extracted from.
type EntityKind string

const (
	KindModel      EntityKind = "model"
	KindSerializer EntityKind = "serializer"
	KindView       EntityKind = "view"
)

// Choice is one (value, label) pair from a choices= keyword.
type Choice struct {
	Value any
	Label string
}

// FieldDefinition describes one extracted field assignment. Instances are
// built once during extraction and treated as immutable afterward; the only
// later writes are additive enrichment descriptions.
type FieldDefinition struct {
	Name       string
	SourceType string // Original framework type name, e.g. "CharField"

	Required  bool
	ReadOnly  bool
	WriteOnly bool
	Nullable  bool
	Blank     bool

	Default    any
	HasDefault bool
	Choices    []Choice
	HelpText   string

	MaxLength *int
	MinLength *int
	MaxValue  *float64
	MinValue  *float64

	// RelatedEntity is the referenced model or serializer name for relation
	// and nested fields, with any string quoting already stripped.
	RelatedEntity string
	// ReverseName is an explicit related_name= override, if present.
	ReverseName string
	// IsArray marks many=True nested fields and multi-value field types.
	IsArray bool

	// Description is layered in by enrichment; never set during extraction.
	Description string
}

// IsRelation reports whether the field references another entity.
func (f *FieldDefinition) IsRelation() bool {
	return f.RelatedEntity != ""
}

// ReverseRelation is a synthesized reverse-access descriptor: the entity that
// owns this record is pointed at by FromEntity.FromField.
type ReverseRelation struct {
	// Name is the accessor name on the target entity, e.g. "order_set".
	Name string
	// FromEntity is the entity holding the forward relation.
	FromEntity string
	// FromField is the forward field name on FromEntity.
	FromField string
}

// EntityDefinition is the unified shape for extracted models, serializers,
// and views. Names are unique within one source file but not globally;
// consumers must key by (app, name).
type EntityDefinition struct {
	Name       string
	Kind       EntityKind
	SourceFile string
	Line       int

	// BaseClasses holds canonical (alias-resolved) base names in order.
	BaseClasses []string
	// Fields holds field definitions in declaration order.
	Fields []*FieldDefinition
	// Meta holds declarative options from a nested Meta class.
	Meta map[string]any

	Docstring string
	Methods   []string

	// related is the derived set of entity names this entity references.
	related map[string]struct{}
	// Reverse holds synthesized reverse relations in deterministic order.
	Reverse []ReverseRelation

	// View-specific extraction results; zero-valued for other kinds.
	ViewKind        string
	SerializerClass string
	ModelName       string
	Permissions     []string
	Endpoints       []*EndpointDefinition

	// Summary is layered in by enrichment; never set during extraction.
	Summary string
}

// Field returns the field with the given name, or nil.
func (e *EntityDefinition) Field(name string) *FieldDefinition {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AddRelated records a referenced entity name. Adding the same name twice is
// a no-op, which keeps relationship resolution idempotent.
func (e *EntityDefinition) AddRelated(name string) {
	if name == "" || name == e.Name {
		return
	}
	if e.related == nil {
		e.related = make(map[string]struct{})
	}
	e.related[name] = struct{}{}
}

// RelatedEntities returns the referenced entity names in sorted order.
func (e *EntityDefinition) RelatedEntities() []string {
	names := make([]string, 0, len(e.related))
	for name := range e.related {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasReverse reports whether an equivalent reverse relation is already
// recorded.
func (e *EntityDefinition) HasReverse(rel ReverseRelation) bool {
	for _, existing := range e.Reverse {
		if existing == rel {
			return true
		}
	}
	return false
}

// Parameter describes one path or query parameter of an endpoint.
type Parameter struct {
	Name string
	In   string // "path" or "query"
	Type string
}

// EndpointDefinition describes one HTTP operation synthesized from a view.
// Path parameters in Path are always a subset of Parameters.
type EndpointDefinition struct {
	Method     string // Upper-case HTTP method
	Path       string // Template with {param} placeholders
	OwningView string
	Action     string // list, create, retrieve, ... or a custom action name

	RequestEntity  string
	ResponseEntity string
	RequiresAuth   bool
	Parameters     []Parameter

	Description string
}

// AppSchema groups every entity extracted from one app. It is owned by the
// orchestrator for the duration of a run; emitters receive it read-only.
type AppSchema struct {
	AppName     string
	Models      []*EntityDefinition
	Serializers []*EntityDefinition
	Views       []*EntityDefinition
}

// Entities returns models, serializers, and views as one slice, in that
// order.
func (s *AppSchema) Entities() []*EntityDefinition {
	out := make([]*EntityDefinition, 0, len(s.Models)+len(s.Serializers)+len(s.Views))
	out = append(out, s.Models...)
	out = append(out, s.Serializers...)
	out = append(out, s.Views...)
	return out
}

// Entity looks up any entity by name, preferring serializers over models
// when both exist under the same name.
func (s *AppSchema) Entity(name string) *EntityDefinition {
	for _, e := range s.Serializers {
		if e.Name == name {
			return e
		}
	}
	for _, e := range s.Models {
		if e.Name == name {
			return e
		}
	}
	for _, e := range s.Views {
		if e.Name == name {
			return e
		}
	}
	return nil
}
