package codegen

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/qosha1/easysdk/internal/analyzer"
)

// PythonEmitter renders dataclasses with typing annotations.
type PythonEmitter struct{}

func (*PythonEmitter) Language() Language { return LangPython }

func (e *PythonEmitter) EmitApp(app *analyzer.AppSchema, cfg LanguageConfig) (string, []string, error) {
	types, warnings := buildRenderTypes(app, cfg)
	if len(types) == 0 {
		return "", warnings, fmt.Errorf("app %s: no entities to emit", app.AppName)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\"\"\"Generated types for the %s app.\n\nDo not edit manually.\n\"\"\"\n\n", app.AppName)
	buf.WriteString("from dataclasses import dataclass, field\n")
	buf.WriteString("from datetime import date, datetime, time, timedelta\n")
	buf.WriteString("from decimal import Decimal\n")
	buf.WriteString("from typing import Any, Dict, List, Optional\n\n")

	for i, t := range types {
		if i > 0 {
			buf.WriteByte('\n')
		}
		e.writeClass(&buf, t)
	}
	return buf.String(), warnings, nil
}

func (e *PythonEmitter) writeClass(buf *bytes.Buffer, t renderType) {
	buf.WriteString("@dataclass\n")
	fmt.Fprintf(buf, "class %s:\n", t.Name)
	if t.Description != "" {
		fmt.Fprintf(buf, "    \"\"\"%s\"\"\"\n\n", t.Description)
	}
	if len(t.Fields) == 0 {
		buf.WriteString("    pass\n")
		return
	}

	// dataclasses require defaulted fields after required ones.
	ordered := append([]renderField(nil), t.Fields...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !pyHasDefault(ordered[i]) && pyHasDefault(ordered[j])
	})

	for _, f := range ordered {
		typ := f.Type
		if f.Array {
			typ = "List[" + typ + "]"
		}
		if f.Nullable || f.Optional {
			typ = "Optional[" + typ + "]"
		}
		line := fmt.Sprintf("    %s: %s", f.Name, typ)
		if pyHasDefault(f) {
			if f.Array {
				line += " = field(default_factory=list)"
			} else {
				line += " = None"
			}
		}
		buf.WriteString(line + "\n")
	}
}

func pyHasDefault(f renderField) bool {
	return f.Optional || f.Nullable || f.Array
}

func (e *PythonEmitter) EmitIndex(apps []string, cfg LanguageConfig) string {
	var buf bytes.Buffer
	buf.WriteString("\"\"\"Aggregated exports for every generated app.\"\"\"\n\n")
	sorted := append([]string(nil), apps...)
	sort.Strings(sorted)
	for _, app := range sorted {
		fmt.Fprintf(&buf, "from .%s import *  # noqa: F401,F403\n", app)
	}
	return buf.String()
}
