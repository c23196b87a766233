// Package email turns a process record into the SEF/CC appointment request
// that is mailed to the client: a subject line and an HTML table.
package email

import (
	"bytes"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Document typed content of one appointment request
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
	Notes    string
}

// Section titled block of rows in the request table
type Section struct {
	Heading string
	Rows    []Row
}

// Row one labelled cell. Highlight paints the value cell yellow.
type Row struct {
	Label     string
	Value     string
	Highlight bool
}

var upper = cases.Upper(language.Portuguese)

// Upper returns s in upper case using Portuguese rules.
func Upper(s string) string {
	return upper.String(s)
}

const bodyTemplate = `<!DOCTYPE html>
<html lang="pt">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:Arial,Helvetica,sans-serif;font-size:13px;color:#222">
<h2 style="margin:0 0 4px 0">{{.Title}}</h2>
<p style="margin:0 0 12px 0">{{.Subtitle}}</p>
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse:collapse;width:100%;max-width:760px">
{{- range .Sections}}
<tr><th colspan="2" style="background:#1f4e79;color:#fff;text-align:left">{{.Heading}}</th></tr>
{{- range .Rows}}
<tr><td style="width:40%;background:#f2f2f2">{{.Label}}</td>{{if .Highlight}}<td style="background:#ffff00;font-weight:bold">{{.Value}}</td>{{else}}<td>{{.Value}}</td>{{end}}</tr>
{{- end}}
{{- end}}
<tr><th colspan="2" style="background:#1f4e79;color:#fff;text-align:left">Observações</th></tr>
<tr><td colspan="2">{{.Notes}}</td></tr>
</table>
</body>
</html>
`

var body = template.Must(template.New("pedido").Parse(bodyTemplate))

// HTML renders the document. Static template and string-only data make
// execution errors impossible in practice; if one happens the skeleton of an
// empty document is returned instead.
func (d Document) HTML() string {
	var buf bytes.Buffer
	if err := body.Execute(&buf, d); err != nil {
		return emptySkeleton
	}
	return buf.String()
}

var emptySkeleton = func() string {
	var buf bytes.Buffer
	_ = body.Execute(&buf, Document{})
	return buf.String()
}()

// Blank returns a copy of d with every value cell emptied.
func (d Document) Blank() Document {
	out := Document{Title: d.Title, Subtitle: d.Subtitle}
	for _, s := range d.Sections {
		bs := Section{Heading: s.Heading}
		for _, r := range s.Rows {
			bs.Rows = append(bs.Rows, Row{Label: r.Label})
		}
		out.Sections = append(out.Sections, bs)
	}
	return out
}

// firstNonEmpty is the fallback chain used when reading record paths.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
