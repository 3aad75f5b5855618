package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/qosha1/easysdk/internal/pysrc"
)

// View kinds derived from DRF base classes. Ordered most-specific first so
// ModelViewSet matches before ViewSet.
var viewKinds = []struct {
	fragment string
	kind     string
}{
	{"ReadOnlyModelViewSet", "readonly_model_viewset"},
	{"ModelViewSet", "model_viewset"},
	{"GenericViewSet", "generic_viewset"},
	{"ViewSet", "viewset"},
	{"ListCreateAPIView", "list_create_view"},
	{"RetrieveUpdateDestroyAPIView", "retrieve_update_destroy_view"},
	{"RetrieveUpdateAPIView", "retrieve_update_view"},
	{"RetrieveDestroyAPIView", "retrieve_destroy_view"},
	{"CreateAPIView", "create_view"},
	{"ListAPIView", "list_view"},
	{"RetrieveAPIView", "retrieve_view"},
	{"UpdateAPIView", "update_view"},
	{"DestroyAPIView", "destroy_view"},
	{"GenericAPIView", "generic_api_view"},
	{"APIView", "api_view"},
}

// viewMethods maps each view kind to the HTTP methods it serves.
var viewMethods = map[string][]string{
	"api_view":                     {"GET", "POST", "PUT", "PATCH", "DELETE"},
	"create_view":                  {"POST"},
	"list_view":                    {"GET"},
	"retrieve_view":                {"GET"},
	"update_view":                  {"PUT", "PATCH"},
	"destroy_view":                 {"DELETE"},
	"list_create_view":             {"GET", "POST"},
	"retrieve_update_view":         {"GET", "PUT", "PATCH"},
	"retrieve_destroy_view":        {"GET", "DELETE"},
	"retrieve_update_destroy_view": {"GET", "PUT", "PATCH", "DELETE"},
}

// viewsetActions are the standard CRUD actions a ModelViewSet routes. Order
// matters: emitted endpoints follow it.
var viewsetActions = []struct {
	action     string
	method     string
	pathSuffix string
	detail     bool
}{
	{"list", "GET", "/", false},
	{"create", "POST", "/", false},
	{"retrieve", "GET", "/{id}/", true},
	{"update", "PUT", "/{id}/", true},
	{"partial_update", "PATCH", "/{id}/", true},
	{"destroy", "DELETE", "/{id}/", true},
}

// readOnlyActions restricts ReadOnlyModelViewSet to the safe subset.
var readOnlyActions = map[string]bool{"list": true, "retrieve": true}

// extractViewAttribute interprets one class-level assignment on a view.
// Only the attributes relevant to endpoint synthesis are recorded.
func (x *Extractor) extractViewAttribute(entity *EntityDefinition, assign *pysrc.Assign, imports map[string]string) {
	switch assign.Target {
	case "serializer_class":
		if name := relatedNameFromExpr(assign.Value, imports); name != "" {
			entity.SerializerClass = name
			entity.AddRelated(name)
		}
	case "queryset":
		if model := modelFromQueryset(assign.Value); model != "" {
			entity.ModelName = model
			entity.AddRelated(model)
		}
	case "permission_classes":
		entity.Permissions = nameList(assign.Value)
	}
}

// extractViewDetails resolves the view kind and synthesizes the endpoints
// the view routes. Called once per view class after attributes are read.
func extractViewDetails(entity *EntityDefinition, class *pysrc.ClassDef) {
	entity.ViewKind = determineViewKind(entity.BaseClasses)
	synthesizeEndpoints(entity, class)
}

// determineViewKind matches resolved base-class names against the kind
// table. Unrecognized bases yield "api_view" so the view still produces
// endpoints.
func determineViewKind(bases []string) string {
	for _, entry := range viewKinds {
		for _, base := range bases {
			if strings.Contains(base, entry.fragment) {
				return entry.kind
			}
		}
	}
	return "api_view"
}

// synthesizeEndpoints generates EndpointDefinitions for a view based on its
// kind: CRUD actions for viewsets (plus @action custom routes), one endpoint
// per HTTP method otherwise.
func synthesizeEndpoints(entity *EntityDefinition, class *pysrc.ClassDef) {
	base := resourcePath(entity.Name)

	if strings.Contains(entity.ViewKind, "viewset") {
		synthesizeViewsetEndpoints(entity, class, base)
		return
	}

	methods := viewMethods[entity.ViewKind]
	if methods == nil {
		// api_view and generic_api_view expose exactly the handler methods
		// the class defines.
		methods = handlerMethods(entity.Methods)
	}
	for _, method := range methods {
		ep := newEndpoint(entity, method, base, strings.ToLower(method))
		entity.Endpoints = append(entity.Endpoints, ep)
	}
}

func synthesizeViewsetEndpoints(entity *EntityDefinition, class *pysrc.ClassDef, base string) {
	readOnly := entity.ViewKind == "readonly_model_viewset"
	routed := entity.ViewKind == "model_viewset" || readOnly

	if routed {
		for _, a := range viewsetActions {
			if readOnly && !readOnlyActions[a.action] {
				continue
			}
			path := strings.TrimSuffix(base, "/") + a.pathSuffix
			ep := newEndpoint(entity, a.method, path, a.action)
			entity.Endpoints = append(entity.Endpoints, ep)
		}
	}

	// @action decorated methods become extra routes under the resource.
	for _, method := range class.Methods {
		dec := method.Decorator("action")
		if dec == nil {
			continue
		}
		info := parseActionDecorator(method, dec)
		for _, httpMethod := range info.methods {
			var path string
			if info.detail {
				path = strings.TrimSuffix(base, "/") + "/{id}/" + info.urlPath + "/"
			} else {
				path = strings.TrimSuffix(base, "/") + "/" + info.urlPath + "/"
			}
			ep := newEndpoint(entity, httpMethod, path, method.Name)
			entity.Endpoints = append(entity.Endpoints, ep)
		}
	}
}

type actionInfo struct {
	methods []string
	detail  bool
	urlPath string
}

// parseActionDecorator reads methods=, detail= and url_path= off an @action
// call. Defaults follow DRF: GET, detail=True, url_path=<method name>.
func parseActionDecorator(method *pysrc.FunctionDef, dec pysrc.Expr) actionInfo {
	info := actionInfo{methods: []string{"GET"}, detail: true, urlPath: method.Name}

	call, ok := dec.(*pysrc.Call)
	if !ok {
		return info
	}
	for _, kw := range call.Keywords {
		switch kw.Name {
		case "methods":
			if names := stringList(kw.Value); len(names) > 0 {
				info.methods = info.methods[:0]
				for _, m := range names {
					info.methods = append(info.methods, strings.ToUpper(m))
				}
			}
		case "detail":
			if v, ok := pysrc.Literal(kw.Value); ok {
				info.detail = v == true
			}
		case "url_path":
			if v, ok := pysrc.Literal(kw.Value); ok {
				if s, ok := v.(string); ok && s != "" {
					info.urlPath = s
				}
			}
		}
	}
	return info
}

// newEndpoint builds one endpoint carrying the view's serializer and
// permission context, with path parameters derived from the template.
func newEndpoint(entity *EntityDefinition, method, path, action string) *EndpointDefinition {
	ep := &EndpointDefinition{
		Method:         method,
		Path:           path,
		OwningView:     entity.Name,
		Action:         action,
		ResponseEntity: entity.SerializerClass,
		RequiresAuth:   requiresAuth(entity.Permissions),
		Description:    endpointDescription(method, action, entity.ModelName),
	}
	if method == "POST" || method == "PUT" || method == "PATCH" {
		ep.RequestEntity = entity.SerializerClass
	}
	ep.Parameters = pathParameters(path)
	if action == "list" {
		ep.Parameters = append(ep.Parameters,
			Parameter{Name: "page", In: "query", Type: "integer"},
			Parameter{Name: "page_size", In: "query", Type: "integer"},
		)
	}
	return ep
}

// requiresAuth reports true unless AllowAny is the only permission policy.
func requiresAuth(permissions []string) bool {
	if len(permissions) == 0 {
		return false
	}
	for _, p := range permissions {
		if !strings.Contains(p, "AllowAny") {
			return true
		}
	}
	return false
}

var pathParamPattern = regexp.MustCompile(`\{(\w+)\}`)

// pathParameters lists every {param} placeholder as a path parameter, in
// order of appearance.
func pathParameters(path string) []Parameter {
	matches := pathParamPattern.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}
	params := make([]Parameter, 0, len(matches))
	for _, m := range matches {
		typ := "string"
		if m[1] == "id" || m[1] == "pk" {
			typ = "integer"
		}
		params = append(params, Parameter{Name: m[1], In: "path", Type: typ})
	}
	return params
}

// resourcePath derives a default URL prefix from the view class name:
// ProductViewSet -> /product/.
func resourcePath(viewName string) string {
	name := strings.ToLower(viewName)
	for _, suffix := range []string{"viewset", "apiview", "view", "api"} {
		name = strings.TrimSuffix(name, suffix)
	}
	if name == "" {
		name = strings.ToLower(viewName)
	}
	return "/" + name + "/"
}

// handlerMethods filters a view's method names down to HTTP handlers.
func handlerMethods(methods []string) []string {
	var out []string
	for _, m := range methods {
		switch m {
		case "get", "post", "put", "patch", "delete":
			out = append(out, strings.ToUpper(m))
		}
	}
	if len(out) == 0 {
		out = []string{"GET"}
	}
	return out
}

// endpointDescription produces a readable summary for one operation.
func endpointDescription(method, action, model string) string {
	if model == "" {
		model = "resource"
	}
	switch action {
	case "list":
		return fmt.Sprintf("List all %s instances", model)
	case "create":
		return fmt.Sprintf("Create a new %s instance", model)
	case "retrieve":
		return fmt.Sprintf("Retrieve a specific %s instance", model)
	case "update":
		return fmt.Sprintf("Update a specific %s instance", model)
	case "partial_update":
		return fmt.Sprintf("Partially update a specific %s instance", model)
	case "destroy":
		return fmt.Sprintf("Delete a specific %s instance", model)
	}
	return fmt.Sprintf("%s %s", method, model)
}

// nameList extracts class names from a [Foo, bar.Baz] literal.
func nameList(e pysrc.Expr) []string {
	elts := listElements(e)
	var out []string
	for _, item := range elts {
		if name := pysrc.DottedName(item); name != "" {
			out = append(out, lastSegment(name))
		}
	}
	return out
}

// stringList extracts string literals from a list or tuple expression.
func stringList(e pysrc.Expr) []string {
	elts := listElements(e)
	var out []string
	for _, item := range elts {
		if s, ok := item.(*pysrc.Str); ok {
			out = append(out, s.Value)
		}
	}
	return out
}

func listElements(e pysrc.Expr) []pysrc.Expr {
	switch n := e.(type) {
	case *pysrc.List:
		return n.Elts
	case *pysrc.Tuple:
		return n.Elts
	}
	return nil
}

// ResolveURLPattern converts a Django path() pattern into a brace-style
// template: products/<int:pk>/ -> /products/{pk}/.
var urlConverterPattern = regexp.MustCompile(`<(?:int|str|slug|uuid|path):(\w+)>`)

func ResolveURLPattern(pattern string) string {
	resolved := urlConverterPattern.ReplaceAllString(pattern, `{$1}`)
	if !strings.HasPrefix(resolved, "/") {
		resolved = "/" + resolved
	}
	if !strings.HasSuffix(resolved, "/") {
		resolved += "/"
	}
	return resolved
}

// ApplyURLPatterns overrides synthesized endpoint paths with patterns
// declared in urls.py. A pattern applies to a view when the pattern's view
// reference names that class. Parameters are re-derived from the new path.
func ApplyURLPatterns(views []*EntityDefinition, patterns map[string]string) {
	for _, view := range views {
		pattern, ok := patterns[view.Name]
		if !ok {
			continue
		}
		resolved := ResolveURLPattern(pattern)
		for _, ep := range view.Endpoints {
			// Keep action sub-paths and detail segments appended after the
			// declared prefix.
			suffix := strings.TrimPrefix(ep.Path, resourcePath(view.Name))
			ep.Path = strings.TrimSuffix(resolved, "/") + "/" + suffix
			if !strings.HasSuffix(ep.Path, "/") {
				ep.Path += "/"
			}
			ep.Path = strings.ReplaceAll(ep.Path, "//", "/")
			params := pathParameters(ep.Path)
			var query []Parameter
			for _, p := range ep.Parameters {
				if p.In == "query" {
					query = append(query, p)
				}
			}
			ep.Parameters = append(params, query...)
		}
	}
}
