// Package report renders the outcome of a generation run.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"regexp"
	"strings"
	"text/template"

	"github.com/FranksOps/scribe/internal/pipeline"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Format selects a report renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a flag value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Write renders res in format f.
func Write(w io.Writer, f Format, res *pipeline.Result) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatMarkdown:
		return WriteMarkdown(w, res)
	case FormatHTML:
		return WriteHTML(w, res)
	default:
		return WriteText(w, res)
	}
}

var (
	imagePattern    = regexp.MustCompile(`\[\[\s*(.+?)\s*\]\]`)
	citationPattern = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)
)

// Placeholders lists the image captions and citation notes the model left
// in text for a human to fill in, in order of appearance.
func Placeholders(text string) (images, citations []string) {
	for _, m := range imagePattern.FindAllStringSubmatch(text, -1) {
		images = append(images, m[1])
	}
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		citations = append(citations, m[1])
	}
	return images, citations
}

type view struct {
	*pipeline.Result
	Images    []string
	Citations []string
	Body      htmltemplate.HTML
}

func newView(res *pipeline.Result) view {
	v := view{Result: res}
	v.Images, v.Citations = Placeholders(res.Generated)
	return v
}

// WriteJSON writes the full result as indented JSON.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

const textTmpl = `Scribe Run Summary
------------------
Run:        {{.RunID}}
Topic:      {{.Topic}}
Started:    {{.StartedAt.Format "2006-01-02 15:04:05"}}
Duration:   {{.Duration}}
{{- with .Source}}
Source:     {{.Link}}
{{- end}}
{{- with .Article}}
Article:    {{len .Text}} chars via {{.Extractor}}
{{- end}}
{{- if .Model}}
Model:      {{.Model}}
{{- end}}

Stages:
{{- range .Timings}}
  {{printf "%-9s" .Stage}} {{.Duration}}
{{- else}}
  None
{{- end}}

{{if .KeywordSummary}}{{.KeywordSummary}}{{else}}No keywords extracted.{{end}}
{{- if .Generated}}

Generated:  {{len .Generated}} chars, {{len .Images}} image placeholders, {{len .Citations}} citations
{{- with .Coverage}}
Coverage:   {{.Used}}/{{.Total}} keywords used
{{- with .Missing}}
Missing:    {{join . ", "}}
{{- end}}
{{- end}}
{{- else if .DryRun}}

Dry run: prompt built, no article generated.
{{- end}}
`

var textTemplate = template.Must(template.New("text").Funcs(template.FuncMap{"join": strings.Join}).Parse(textTmpl))

// WriteText writes a human-readable summary of the run.
func WriteText(w io.Writer, res *pipeline.Result) error {
	if err := textTemplate.Execute(w, newView(res)); err != nil {
		return fmt.Errorf("failed to render text report: %w", err)
	}
	return nil
}

const markdownTmpl = `---
run_id: {{.RunID}}
topic: {{printf "%q" .Topic}}
{{- with .Source}}
source: {{.Link}}
{{- end}}
{{- if .Model}}
model: {{.Model}}
{{- end}}
generated_at: {{.StartedAt.Format "2006-01-02T15:04:05Z07:00"}}
---

{{if .Generated}}{{.Generated}}{{else}}_No article was generated._{{end}}
{{- if or .Images .Citations}}

<!--
{{- range .Images}}
image: {{.}}
{{- end}}
{{- range .Citations}}
citation: {{.}}
{{- end}}
-->
{{- end}}
`

var markdownTemplate = template.Must(template.New("markdown").Parse(markdownTmpl))

// WriteMarkdown writes the generated article with front matter naming the
// run, plus an HTML comment listing placeholders still to be filled.
func WriteMarkdown(w io.Writer, res *pipeline.Result) error {
	if err := markdownTemplate.Execute(w, newView(res)); err != nil {
		return fmt.Errorf("failed to render markdown report: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Topic}}</title>
<style>
  body { font-family: sans-serif; margin: 40px auto; max-width: 860px; color: #333; line-height: 1.5; }
  header { border-bottom: 2px solid #ccc; padding-bottom: 10px; color: #666; font-size: 14px; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 6px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  aside { background: #f4f4f4; border-radius: 5px; padding: 10px 20px; margin-top: 30px; }
</style>
</head>
<body>
<header>
  Run {{.RunID}} · {{.StartedAt.Format "2006-01-02 15:04"}}
  {{- with .Source}} · source <a href="{{.Link}}">{{.Link}}</a>{{end}}
  {{- if .Model}} · {{.Model}}{{end}}
</header>
<article>
{{if .Body}}{{.Body}}{{else}}<p><em>No article was generated.</em></p>{{end}}
</article>
<aside>
  <h3>Keywords</h3>
  <table>
    <tr><th>Term</th><th>Count</th><th>Kind</th></tr>
    {{- range .Keywords}}
    <tr><td>{{.Term}}</td><td>{{.Count}}</td><td>{{.Kind}}</td></tr>
    {{- else}}
    <tr><td colspan="3">None</td></tr>
    {{- end}}
  </table>
  {{- with .Coverage}}
  <h3>Keyword coverage</h3>
  <p>{{.Used}} of {{.Total}} keywords used.{{with .Missing}} Missing: {{range $i, $t := .}}{{if $i}}, {{end}}<code>{{$t}}</code>{{end}}{{end}}</p>
  {{- end}}
  {{- if .Images}}
  <h3>Image placeholders</h3>
  <ul>{{range .Images}}<li>{{.}}</li>{{end}}</ul>
  {{- end}}
  {{- if .Citations}}
  <h3>Citations needed</h3>
  <ul>{{range .Citations}}<li>{{.}}</li>{{end}}</ul>
  {{- end}}
</aside>
</body>
</html>
`

var htmlTemplate = htmltemplate.Must(htmltemplate.New("html").Parse(htmlTmpl))

// WriteHTML renders the generated Markdown article as a standalone page
// with the keyword table and outstanding placeholders.
func WriteHTML(w io.Writer, res *pipeline.Result) error {
	v := newView(res)
	v.Body = RenderMarkdown(res.Generated)
	if err := htmlTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

// RenderMarkdown converts Markdown to HTML. Raw HTML in the input is
// dropped.
func RenderMarkdown(md string) htmltemplate.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML})
	return htmltemplate.HTML(markdown.ToHTML([]byte(md), p, r))
}
