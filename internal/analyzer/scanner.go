package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qosha1/easysdk/internal/pysrc"
)

// ProjectApp is one discovered application directory with its source files
// grouped by role.
type ProjectApp struct {
	Name string
	Path string

	ModelFiles      []string
	SerializerFiles []string
	ViewFiles       []string
	URLFiles        []string
}

// SourceFiles returns every categorized file once, in extraction order:
// models first so serializers and views can reference them.
func (a *ProjectApp) SourceFiles() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range [][]string{a.ModelFiles, a.SerializerFiles, a.ViewFiles} {
		for _, f := range group {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// appMarkerFiles identify a package directory as an application. The
// __init__.py marker is required; at least one of these must also exist.
var appMarkerFiles = []string{"models.py", "views.py", "admin.py", "apps.py", "serializers.py", "viewsets.py", "urls.py"}

// skippedDirs are conventional non-app directories.
var skippedDirs = map[string]struct{}{
	"__pycache__":  {},
	"static":       {},
	"media":        {},
	"templates":    {},
	"migrations":   {},
	"node_modules": {},
	"venv":         {},
}

// Scanner discovers applications under a project root and validates the
// project layout. Include and exclude lists accept glob patterns; exclusion
// wins on conflict.
type Scanner struct {
	include []string
	exclude []string
}

// NewScanner builds a Scanner. Empty include means every app.
func NewScanner(include, exclude []string) *Scanner {
	return &Scanner{include: include, exclude: exclude}
}

// ValidateProject checks the project layout and returns every reason it is
// unusable. An empty slice means the project is valid. Callers treat a
// non-empty result as fatal.
func (s *Scanner) ValidateProject(root string) []string {
	var reasons []string

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		reasons = append(reasons, fmt.Sprintf("project root %q does not exist or is not a directory", root))
		return reasons
	}

	if _, err := os.Stat(filepath.Join(root, "manage.py")); err != nil {
		reasons = append(reasons, "manage.py not found in project root")
	}
	if !hasSettings(root) {
		reasons = append(reasons, "no settings module found (settings.py absent from root and immediate subdirectories)")
	}

	return reasons
}

func hasSettings(root string) bool {
	candidates := []string{
		filepath.Join(root, "settings.py"),
		filepath.Join(root, "settings", "__init__.py"),
	}
	entries, err := os.ReadDir(root)
	if err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if !entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__") {
				continue
			}
			candidates = append(candidates,
				filepath.Join(root, name, "settings.py"),
				filepath.Join(root, name, "settings", "__init__.py"),
			)
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return true
		}
	}
	return false
}

// DiscoverApps walks the immediate children of the project root and returns
// every directory that looks like an application, filtered through the
// include and exclude lists. Results are sorted by name so downstream output
// is deterministic.
func (s *Scanner) DiscoverApps(root string) ([]*ProjectApp, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read project root: %w", err)
	}

	var apps []*ProjectApp
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, skip := skippedDirs[name]; skip {
			continue
		}
		dir := filepath.Join(root, name)
		if !isApp(dir) {
			continue
		}
		if !s.shouldInclude(name) {
			continue
		}
		app, err := collectAppFiles(name, dir)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

// isApp requires the package marker plus at least one conventional file.
func isApp(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "__init__.py")); err != nil {
		return false
	}
	for _, marker := range appMarkerFiles {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func (s *Scanner) shouldInclude(name string) bool {
	for _, pattern := range s.exclude {
		if matched, _ := filepath.Match(pattern, name); matched || pattern == name {
			return false
		}
	}
	if len(s.include) == 0 {
		return true
	}
	for _, pattern := range s.include {
		if matched, _ := filepath.Match(pattern, name); matched || pattern == name {
			return true
		}
	}
	return false
}

// collectAppFiles categorizes the app's Python files by role. A file can
// fill more than one role (an api/ module holding both serializers and
// views).
func collectAppFiles(name, dir string) (*ProjectApp, error) {
	app := &ProjectApp{Name: name, Path: dir}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := skippedDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		base := d.Name()
		if !strings.HasSuffix(base, ".py") {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		inAPIDir := strings.HasPrefix(rel, "api"+string(filepath.Separator))

		if strings.Contains(base, "model") {
			app.ModelFiles = append(app.ModelFiles, path)
		}
		if strings.Contains(base, "serializer") || inAPIDir {
			app.SerializerFiles = append(app.SerializerFiles, path)
		}
		if strings.Contains(base, "view") || inAPIDir {
			app.ViewFiles = append(app.ViewFiles, path)
		}
		if strings.Contains(base, "urls") {
			app.URLFiles = append(app.URLFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk app %s: %w", name, err)
	}

	for _, group := range []*[]string{&app.ModelFiles, &app.SerializerFiles, &app.ViewFiles, &app.URLFiles} {
		sort.Strings(*group)
	}
	return app, nil
}

// ExtractURLPatterns parses a urls.py and maps view class names to the URL
// patterns declared for them via path() and re_path(). Router registrations
// and includes are out of scope; views without a declared pattern keep their
// synthesized paths.
func ExtractURLPatterns(path string) (map[string]string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	module, err := pysrc.ParseSource(string(source))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	patterns := make(map[string]string)
	for _, assign := range module.Assigns {
		if assign.Target != "urlpatterns" {
			continue
		}
		list, ok := assign.Value.(*pysrc.List)
		if !ok {
			continue
		}
		for _, elt := range list.Elts {
			call, ok := elt.(*pysrc.Call)
			if !ok {
				continue
			}
			callee := lastSegment(pysrc.DottedName(call.Func))
			if callee != "path" && callee != "re_path" && callee != "url" {
				continue
			}
			if len(call.Args) < 2 {
				continue
			}
			pattern, ok := call.Args[0].(*pysrc.Str)
			if !ok {
				continue
			}
			if view := viewFromURLArg(call.Args[1]); view != "" {
				patterns[view] = pattern.Value
			}
		}
	}
	return patterns, nil
}

// viewFromURLArg resolves the view reference in a path() call:
// ProductView.as_view(), ProductViewSet.as_view({...}), or a bare name.
func viewFromURLArg(e pysrc.Expr) string {
	if call, ok := e.(*pysrc.Call); ok {
		e = call.Func
	}
	if attr, ok := e.(*pysrc.Attribute); ok && attr.Attr == "as_view" {
		return lastSegment(pysrc.DottedName(attr.Value))
	}
	return lastSegment(pysrc.DottedName(e))
}
