package analyzer

import (
	"strings"

	"github.com/qosha1/easysdk/internal/naming"
)

// ReverseNamePolicy decides the accessor name a reverse relation gets on its
// target entity when the forward field carries no related_name override.
type ReverseNamePolicy interface {
	ReverseName(fromEntity, fromField string) string
}

// DjangoSuffixPolicy names reverse accessors the way Django's ORM does:
// the lowercased owning entity plus a _set suffix (Order -> order_set).
type DjangoSuffixPolicy struct{}

func (DjangoSuffixPolicy) ReverseName(fromEntity, _ string) string {
	return naming.ToSnakeCase(fromEntity) + "_set"
}

// PluralPolicy names reverse accessors after the owning entity's plural
// form (Order -> orders). Naive pluralization; entities already ending in s
// gain no suffix.
type PluralPolicy struct{}

func (PluralPolicy) ReverseName(fromEntity, _ string) string {
	name := naming.ToSnakeCase(fromEntity)
	if strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}

// Resolver links forward relation fields to their target entities and
// synthesizes the matching reverse relations. Resolution is idempotent:
// running it twice over the same schema set changes nothing.
type Resolver struct {
	policy ReverseNamePolicy
}

// NewResolver builds a Resolver. A nil policy defaults to DjangoSuffixPolicy.
func NewResolver(policy ReverseNamePolicy) *Resolver {
	if policy == nil {
		policy = DjangoSuffixPolicy{}
	}
	return &Resolver{policy: policy}
}

// Resolve processes every app schema in place. Forward references are
// resolved first within the owning app, then across the whole set; a
// reference that matches nothing is left as-is so emitters can fall back to
// an opaque type.
func (r *Resolver) Resolve(apps []*AppSchema) {
	for _, app := range apps {
		for _, entity := range app.Entities() {
			for _, field := range entity.Fields {
				if !field.IsRelation() {
					continue
				}
				target := r.lookup(field.RelatedEntity, app, apps)
				if target == nil {
					continue
				}
				entity.AddRelated(target.Name)
				r.addReverse(target, entity, field)
			}
		}
	}
}

// lookup finds the target entity for a forward reference. A reference may
// be app-qualified ("shop.Product"); otherwise the owning app wins over
// other apps, and models win over serializers for model relations.
func (r *Resolver) lookup(ref string, owner *AppSchema, apps []*AppSchema) *EntityDefinition {
	appName, name := splitAppRef(ref)
	if appName != "" {
		for _, app := range apps {
			if app.AppName == appName {
				return app.Entity(name)
			}
		}
		return nil
	}
	if e := owner.Entity(name); e != nil {
		return e
	}
	for _, app := range apps {
		if app == owner {
			continue
		}
		if e := app.Entity(name); e != nil {
			return e
		}
	}
	return nil
}

// addReverse records the reverse relation on the target, honoring an
// explicit related_name and skipping duplicates.
func (r *Resolver) addReverse(target, from *EntityDefinition, field *FieldDefinition) {
	name := field.ReverseName
	if name == "" {
		name = r.policy.ReverseName(from.Name, field.Name)
	}
	rel := ReverseRelation{Name: name, FromEntity: from.Name, FromField: field.Name}
	if target.HasReverse(rel) {
		return
	}
	target.Reverse = append(target.Reverse, rel)
	target.AddRelated(from.Name)
}

// splitAppRef splits "app.Entity" references. Plain names return an empty
// app.
func splitAppRef(ref string) (app, name string) {
	if idx := strings.LastIndex(ref, "."); idx >= 0 {
		return ref[:idx], ref[idx+1:]
	}
	return "", ref
}
