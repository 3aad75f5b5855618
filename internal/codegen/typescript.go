package codegen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// TypeScriptEmitter renders interfaces with optional/readonly/null markers.
type TypeScriptEmitter struct{}

func (*TypeScriptEmitter) Language() Language { return LangTypeScript }

func (e *TypeScriptEmitter) EmitApp(app *analyzer.AppSchema, cfg LanguageConfig) (string, []string, error) {
	types, warnings := buildRenderTypes(app, cfg)
	if len(types) == 0 {
		return "", warnings, fmt.Errorf("app %s: no entities to emit", app.AppName)
	}

	var buf bytes.Buffer
	writeTSHeader(&buf, fmt.Sprintf("Generated types for the %s app.", app.AppName))

	for i, t := range types {
		if i > 0 {
			buf.WriteByte('\n')
		}
		e.writeInterface(&buf, t)
	}
	return buf.String(), warnings, nil
}

func (e *TypeScriptEmitter) writeInterface(buf *bytes.Buffer, t renderType) {
	if t.Description != "" {
		fmt.Fprintf(buf, "/**\n * %s\n */\n", t.Description)
	}
	fmt.Fprintf(buf, "export interface %s {\n", t.Name)
	for _, f := range t.Fields {
		typ := f.Type
		if f.Array {
			typ += "[]"
		}
		if f.Nullable {
			typ += " | null"
		}
		optional := ""
		if f.Optional {
			optional = "?"
		}
		readonly := ""
		if f.ReadOnly {
			readonly = "readonly "
		}
		if f.Description != "" {
			fmt.Fprintf(buf, "  /** %s */\n", f.Description)
		}
		fmt.Fprintf(buf, "  %s%s%s: %s;\n", readonly, f.Name, optional, typ)
	}
	buf.WriteString("}\n")
}

func (e *TypeScriptEmitter) EmitIndex(apps []string, cfg LanguageConfig) string {
	var buf bytes.Buffer
	writeTSHeader(&buf, "Aggregated exports for every generated app.")
	sorted := append([]string(nil), apps...)
	sort.Strings(sorted)
	for _, app := range sorted {
		fmt.Fprintf(&buf, "export * from './%s';\n", app)
	}
	return buf.String()
}

func writeTSHeader(buf *bytes.Buffer, description string) {
	buf.WriteString("/**\n")
	buf.WriteString(" * Generated API types.\n")
	if description != "" {
		for _, line := range strings.Split(description, "\n") {
			fmt.Fprintf(buf, " * %s\n", line)
		}
	}
	buf.WriteString(" *\n * Do not edit manually.\n */\n\n")
}
