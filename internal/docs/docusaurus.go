package docs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// DocusaurusGenerator renders a Markdown documentation tree, one directory
// per app with entities and endpoints pages. When the output directory holds
// an existing Docusaurus project, pages go under docs/api-reference and the
// index is merged into place inside delimited markers.
type DocusaurusGenerator struct {
	config Config
}

func (*DocusaurusGenerator) Format() string { return "docusaurus" }

func (g *DocusaurusGenerator) Generate(apps []*analyzer.AppSchema) ([]string, error) {
	root := g.config.OutputDir
	merging := hasExistingProject(root, "docusaurus")
	if merging {
		root = filepath.Join(root, "docs", "api-reference")
	}

	var files []string
	for _, app := range apps {
		entPath := filepath.Join(root, app.AppName, "entities.md")
		if err := writeDocFile(entPath, g.entitiesPage(app)); err != nil {
			return files, err
		}
		files = append(files, entPath)

		epPath := filepath.Join(root, app.AppName, "endpoints.md")
		if err := writeDocFile(epPath, g.endpointsPage(app)); err != nil {
			return files, err
		}
		files = append(files, epPath)
	}

	indexPath := filepath.Join(root, "index.md")
	if merging {
		if err := mergeSection(indexPath, g.indexBody(apps), "docusaurus"); err != nil {
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

func (g *DocusaurusGenerator) indexPage(apps []*analyzer.AppSchema) string {
	var buf strings.Builder
	buf.WriteString("---\nsidebar_position: 1\n---\n\n")
	fmt.Fprintf(&buf, "# %s API Reference\n\n", g.projectName())
	if g.config.Version != "" {
		fmt.Fprintf(&buf, "**Version:** %s\n\n", g.config.Version)
	}
	buf.WriteString(g.indexBody(apps))
	return buf.String()
}

func (g *DocusaurusGenerator) indexBody(apps []*analyzer.AppSchema) string {
	var buf strings.Builder
	buf.WriteString("## Applications\n\n")
	for _, app := range apps {
		fmt.Fprintf(&buf, "- **%s**: [entities](%s/entities.md), [endpoints](%s/endpoints.md)\n",
			app.AppName, app.AppName, app.AppName)
	}
	if g.config.BaseURL != "" {
		fmt.Fprintf(&buf, "\n## Base URL\n\n```\n%s\n```\n", g.config.BaseURL)
	}
	return buf.String()
}

func (g *DocusaurusGenerator) entitiesPage(app *analyzer.AppSchema) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "# %s Entities\n\n", app.AppName)

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
		fmt.Fprintf(&buf, "## %s\n\n", group.title)
		for _, entity := range group.entities {
			g.writeEntity(&buf, entity)
		}
	}
	return buf.String()
}

func (g *DocusaurusGenerator) writeEntity(buf *strings.Builder, entity *analyzer.EntityDefinition) {
	fmt.Fprintf(buf, "### %s\n\n", entity.Name)
	if summary := entitySummary(entity); summary != "" {
		fmt.Fprintf(buf, "> %s\n\n", summary)
	}

	if len(entity.Fields) == 0 {
		buf.WriteString("No fields extracted.\n\n")
	} else {
		buf.WriteString("| Name | Type | Required | Constraints | Description |\n")
		buf.WriteString("|------|------|----------|-------------|-------------|\n")
		for _, f := range entity.Fields {
			required := "No"
			if f.Required {
				required = "Yes"
			}
			constraints := fieldConstraints(f)
			if constraints == "" {
				constraints = "-"
			}
			description := fieldDescription(f)
			if description == "" {
				description = "-"
			}
			fmt.Fprintf(buf, "| `%s` | `%s` | %s | %s | %s |\n",
				f.Name, fieldTypeLabel(f), required, constraints, description)
		}
		buf.WriteByte('\n')
	}

	if len(entity.Reverse) > 0 {
		buf.WriteString("**Reverse relations:**\n\n")
		for _, rel := range entity.Reverse {
			fmt.Fprintf(buf, "- `%s` ← %s.%s\n", rel.Name, rel.FromEntity, rel.FromField)
		}
		buf.WriteByte('\n')
	}
}

func (g *DocusaurusGenerator) endpointsPage(app *analyzer.AppSchema) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "# %s Endpoints\n\n", app.AppName)

	found := false
	for _, view := range app.Views {
		if len(view.Endpoints) == 0 {
			continue
		}
		found = true
		fmt.Fprintf(&buf, "## %s\n\n", view.Name)
		if summary := entitySummary(view); summary != "" {
			fmt.Fprintf(&buf, "> %s\n\n", summary)
		}
		for _, ep := range view.Endpoints {
			g.writeEndpoint(&buf, ep)
		}
	}
	if !found {
		buf.WriteString("No endpoints discovered.\n")
	}
	return buf.String()
}

func (g *DocusaurusGenerator) writeEndpoint(buf *strings.Builder, ep *analyzer.EndpointDefinition) {
	fmt.Fprintf(buf, "### %s\n\n", ep.Description)
	fmt.Fprintf(buf, "```http\n%s %s\n```\n\n", ep.Method, ep.Path)
	if ep.RequiresAuth {
		buf.WriteString("Requires authentication.\n\n")
	}

	if len(ep.Parameters) > 0 {
		buf.WriteString("| Parameter | In | Type |\n")
		buf.WriteString("|-----------|----|------|\n")
		for _, p := range ep.Parameters {
			fmt.Fprintf(buf, "| `%s` | %s | %s |\n", p.Name, p.In, p.Type)
		}
		buf.WriteByte('\n')
	}

	if ep.RequestEntity != "" {
		fmt.Fprintf(buf, "**Request body:** [`%s`](entities.md)\n\n", ep.RequestEntity)
	}
	if ep.ResponseEntity != "" {
		fmt.Fprintf(buf, "**Response:** [`%s`](entities.md)\n\n", ep.ResponseEntity)
	}
}

func (g *DocusaurusGenerator) projectName() string {
	if g.config.ProjectName != "" {
		return g.config.ProjectName
	}
	return "Generated"
}
