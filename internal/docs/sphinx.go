package docs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// SphinxGenerator renders a reStructuredText tree mirroring the Docusaurus
// layout: one directory per app with entities and endpoints pages plus a
// toctree index. An existing Sphinx project (conf.py present) gets the pages
// under source/api and a marker-delimited index section.
type SphinxGenerator struct {
	config Config
}

func (*SphinxGenerator) Format() string { return "sphinx" }

func (g *SphinxGenerator) Generate(apps []*analyzer.AppSchema) ([]string, error) {
	root := g.config.OutputDir
	merging := hasExistingProject(root, "sphinx")
	if merging {
		root = filepath.Join(root, "source", "api")
	}

	var files []string
	for _, app := range apps {
		entPath := filepath.Join(root, app.AppName, "entities.rst")
		if err := writeDocFile(entPath, g.entitiesPage(app)); err != nil {
			return files, err
		}
		files = append(files, entPath)

		epPath := filepath.Join(root, app.AppName, "endpoints.rst")
		if err := writeDocFile(epPath, g.endpointsPage(app)); err != nil {
			return files, err
		}
		files = append(files, epPath)
	}

	indexPath := filepath.Join(root, "index.rst")
	if merging {
		if err := mergeSection(indexPath, g.toctree(apps), "sphinx"); err != nil {
			return files, err
		}
	} else {
		if err := writeDocFile(indexPath, g.indexPage(apps)); err != nil {
			return files, err
		}
	}
	files = append(files, indexPath)
	return files, nil
}

func (g *SphinxGenerator) indexPage(apps []*analyzer.AppSchema) string {
	var buf strings.Builder
	title := g.config.ProjectName
	if title == "" {
		title = "API Reference"
	} else {
		title += " API Reference"
	}
	writeRSTHeading(&buf, title, '=')
	if g.config.Version != "" {
		fmt.Fprintf(&buf, ":Version: %s\n\n", g.config.Version)
	}
	buf.WriteString(g.toctree(apps))
	return buf.String()
}

func (g *SphinxGenerator) toctree(apps []*analyzer.AppSchema) string {
	var buf strings.Builder
	buf.WriteString(".. toctree::\n   :maxdepth: 2\n\n")
	for _, app := range apps {
		fmt.Fprintf(&buf, "   %s/entities\n   %s/endpoints\n", app.AppName, app.AppName)
	}
	return buf.String()
}

func (g *SphinxGenerator) entitiesPage(app *analyzer.AppSchema) string {
	var buf strings.Builder
	writeRSTHeading(&buf, app.AppName+" entities", '=')

	for _, group := range []struct {
		title    string
		entities []*analyzer.EntityDefinition
	}{
		{"Models", app.Models},
		{"Serializers", app.Serializers},
	} {
		if len(group.entities) == 0 {
			continue
		}
		writeRSTHeading(&buf, group.title, '-')
		for _, entity := range group.entities {
			g.writeEntity(&buf, entity)
		}
	}
	return buf.String()
}

func (g *SphinxGenerator) writeEntity(buf *strings.Builder, entity *analyzer.EntityDefinition) {
	writeRSTHeading(buf, entity.Name, '~')
	if summary := entitySummary(entity); summary != "" {
		buf.WriteString(summary + "\n\n")
	}
	if len(entity.Fields) == 0 {
		buf.WriteString("No fields extracted.\n\n")
		return
	}

	buf.WriteString(".. list-table::\n   :header-rows: 1\n\n")
	buf.WriteString("   * - Name\n     - Type\n     - Required\n     - Description\n")
	for _, f := range entity.Fields {
		required := "No"
		if f.Required {
			required = "Yes"
		}
		description := fieldDescription(f)
		if constraints := fieldConstraints(f); constraints != "" {
			if description != "" {
				description += " "
			}
			description += "(" + constraints + ")"
		}
		if description == "" {
			description = "-"
		}
		fmt.Fprintf(buf, "   * - ``%s``\n     - ``%s``\n     - %s\n     - %s\n",
			f.Name, fieldTypeLabel(f), required, description)
	}
	buf.WriteByte('\n')
}

func (g *SphinxGenerator) endpointsPage(app *analyzer.AppSchema) string {
	var buf strings.Builder
	writeRSTHeading(&buf, app.AppName+" endpoints", '=')

	found := false
	for _, view := range app.Views {
		if len(view.Endpoints) == 0 {
			continue
		}
		found = true
		writeRSTHeading(&buf, view.Name, '-')
		for _, ep := range view.Endpoints {
			fmt.Fprintf(&buf, ".. http:%s:: %s\n\n", strings.ToLower(ep.Method), ep.Path)
			if ep.Description != "" {
				fmt.Fprintf(&buf, "   %s\n\n", ep.Description)
			}
			for _, p := range ep.Parameters {
				if p.In == "path" {
					fmt.Fprintf(&buf, "   :param %s: %s\n", p.Name, p.Type)
				} else {
					fmt.Fprintf(&buf, "   :query %s: %s\n", p.Name, p.Type)
				}
			}
			if len(ep.Parameters) > 0 {
				buf.WriteByte('\n')
			}
			if ep.RequiresAuth {
				buf.WriteString("   Requires authentication.\n\n")
			}
		}
	}
	if !found {
		buf.WriteString("No endpoints discovered.\n")
	}
	return buf.String()
}

// writeRSTHeading writes a title with its underline rule.
func writeRSTHeading(buf *strings.Builder, title string, rule byte) {
	buf.WriteString(title + "\n")
	buf.WriteString(strings.Repeat(string(rule), len(title)) + "\n\n")
}
