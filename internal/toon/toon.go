// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/qmldoc/internal/report"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *report.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("project: %s", encodeValue(r.Project)))

	var typeRows [][]string
	for i := range r.Types {
		t := &r.Types[i]
		typeRows = append(typeRows, []string{
			t.Name,
			t.Module,
			t.Base,
			location(t.Entity),
			t.Status,
			t.Since,
			t.Deprecated,
			flag(t.Abstract, "abstract"),
		})
	}
	parts = append(parts, formatTabular("types",
		[]string{"name", "module", "base", "location", "status", "since", "deprecated", "abstract"}, typeRows))

	var propRows [][]string
	for i := range r.Properties {
		p := &r.Properties[i]
		propRows = append(propRows, []string{
			p.Type,
			p.Name,
			p.DataType,
			strings.Join(p.Flags, " "),
			p.Default,
			p.Enum,
			p.Status,
			p.Since,
		})
	}
	parts = append(parts, formatTabular("properties",
		[]string{"type", "name", "data_type", "flags", "default", "enum", "status", "since"}, propRows))

	var fnRows [][]string
	for i := range r.Functions {
		f := &r.Functions[i]
		fnRows = append(fnRows, []string{f.Type, f.Kind, f.Signature, location(f.Entity), f.Status, f.Since})
	}
	parts = append(parts, formatTabular("functions",
		[]string{"type", "kind", "signature", "location", "status", "since"}, fnRows))

	if len(r.Enums) > 0 {
		var enumRows [][]string
		for i := range r.Enums {
			e := &r.Enums[i]
			enumRows = append(enumRows, []string{e.Parent, e.Name, strings.Join(e.Values, " ")})
		}
		parts = append(parts, formatTabular("enums", []string{"parent", "name", "values"}, enumRows))
	}

	if len(r.Imports) > 0 {
		var importRows [][]string
		for i := range r.Imports {
			imp := &r.Imports[i]
			importRows = append(importRows, []string{imp.Type, imp.Module, imp.Version, imp.Alias})
		}
		parts = append(parts, formatTabular("imports", []string{"type", "module", "version", "alias"}, importRows))
	}

	for _, g := range []struct {
		name   string
		groups []report.Group
	}{{"modules", r.Modules}, {"groups", r.Groups}} {
		if len(g.groups) == 0 {
			continue
		}
		var rows [][]string
		for _, grp := range g.groups {
			rows = append(rows, []string{grp.Name, strings.Join(grp.Members, " ")})
		}
		parts = append(parts, formatTabular(g.name, []string{"name", "members"}, rows))
	}

	return strings.Join(parts, "\n")
}

func location(e report.Entity) string {
	if e.File == "" {
		return ""
	}
	if e.Line == 0 {
		return e.File
	}
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

func flag(set bool, name string) string {
	if set {
		return name
	}
	return ""
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
