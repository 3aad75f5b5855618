package codegen

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/qosha1/easysdk/internal/analyzer"
	"github.com/qosha1/easysdk/internal/naming"
)

// JavaEmitter renders POJO classes with getters and setters.
type JavaEmitter struct{}

func (*JavaEmitter) Language() Language { return LangJava }

func (e *JavaEmitter) EmitApp(app *analyzer.AppSchema, cfg LanguageConfig) (string, []string, error) {
	types, warnings := buildRenderTypes(app, cfg)
	if len(types) == 0 {
		return "", warnings, fmt.Errorf("app %s: no entities to emit", app.AppName)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "/**\n * Generated types for the %s app.\n *\n * Do not edit manually.\n */\n\n", app.AppName)
	buf.WriteString("import java.math.BigDecimal;\n")
	buf.WriteString("import java.time.Duration;\n")
	buf.WriteString("import java.time.LocalDate;\n")
	buf.WriteString("import java.time.LocalDateTime;\n")
	buf.WriteString("import java.time.LocalTime;\n")
	buf.WriteString("import java.util.List;\n\n")

	for i, t := range types {
		if i > 0 {
			buf.WriteByte('\n')
		}
		e.writeClass(&buf, t)
	}
	return buf.String(), warnings, nil
}

func (e *JavaEmitter) writeClass(buf *bytes.Buffer, t renderType) {
	if t.Description != "" {
		fmt.Fprintf(buf, "/**\n * %s\n */\n", t.Description)
	}
	fmt.Fprintf(buf, "public class %s {\n", t.Name)

	for _, f := range t.Fields {
		typ := f.Type
		if f.Array {
			typ = "List<" + typ + ">"
		}
		if f.Description != "" {
			fmt.Fprintf(buf, "    /** %s */\n", f.Description)
		}
		fmt.Fprintf(buf, "    private %s %s;\n", typ, f.Name)
	}
	if len(t.Fields) > 0 {
		buf.WriteByte('\n')
	}

	for i, f := range t.Fields {
		typ := f.Type
		if f.Array {
			typ = "List<" + typ + ">"
		}
		accessor := naming.ToPascalCase(f.Name)
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(buf, "    public %s get%s() {\n        return %s;\n    }\n", typ, accessor, f.Name)
		if !f.ReadOnly {
			fmt.Fprintf(buf, "\n    public void set%s(%s %s) {\n        this.%s = %s;\n    }\n", accessor, typ, f.Name, f.Name, f.Name)
		}
	}
	buf.WriteString("}\n")
}

func (e *JavaEmitter) EmitIndex(apps []string, cfg LanguageConfig) string {
	var buf bytes.Buffer
	buf.WriteString("/**\n * Generated app type files in this directory:\n *\n")
	sorted := append([]string(nil), apps...)
	sort.Strings(sorted)
	for _, app := range sorted {
		fmt.Fprintf(&buf, " * - %s%s\n", app, LangJava.Extension())
	}
	// Java has no module re-export; the index is documentation only.
	buf.WriteString(" */\n")
	return buf.String()
}
