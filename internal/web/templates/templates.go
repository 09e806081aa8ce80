// Package templates renders the HTML pages with templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// ColumnView describes one column header of the dataset page.
type ColumnView struct {
	Name       string
	Type       string
	Inferred   string
	Overridden bool
}

// DatasetView is the data behind the dataset page.
type DatasetView struct {
	ID         string
	FileName   string
	UploadedAt time.Time
	Columns    []ColumnView
	Rows       [][]string
	TotalRows  int
}

const styles = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;font-size:.875rem}
th,td{border:1px solid #e5e7eb;padding:.25rem .5rem;text-align:left}
th small{display:block;color:#6b7280;font-weight:normal}
.overridden{color:#b45309}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.25rem}
.muted{color:#6b7280}`

// Layout wraps body in the page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			"<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), styles); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// Index is the upload page.
func Index(latestID string, types []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Column type inference</h1>`)
		b.WriteString(`<form method="post" action="/api/upload" enctype="multipart/form-data">`)
		b.WriteString(`<input type="file" name="datafile" accept=".csv,.xlsx" required> `)
		b.WriteString(`<button type="submit">Upload</button></form>`)
		if latestID != "" {
			fmt.Fprintf(&b, `<p>Latest dataset: <a href="/datasets/%s">%s</a></p>`,
				templ.EscapeString(latestID), templ.EscapeString(latestID))
		}
		b.WriteString(`<p class="muted">Recognised types: `)
		b.WriteString(templ.EscapeString(strings.Join(types, ", ")))
		b.WriteString(`</p>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Dataset renders the converted table with each column's active type.
func Dataset(v DatasetView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<h1>%s</h1>`, templ.EscapeString(v.FileName))
		fmt.Fprintf(&b, `<p class="muted">Dataset %s, uploaded %s, %d rows</p>`,
			templ.EscapeString(v.ID), v.UploadedAt.UTC().Format(time.RFC3339), v.TotalRows)

		b.WriteString(`<table><thead><tr>`)
		for _, c := range v.Columns {
			class := ""
			note := ""
			if c.Overridden {
				class = ` class="overridden"`
				note = " (inferred " + templ.EscapeString(c.Inferred) + ")"
			}
			fmt.Fprintf(&b, `<th%s>%s<small>%s%s</small></th>`,
				class, templ.EscapeString(c.Name), templ.EscapeString(c.Type), note)
		}
		b.WriteString(`</tr></thead><tbody>`)
		for _, row := range v.Rows {
			b.WriteString(`<tr>`)
			for _, cell := range row {
				fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(cell))
			}
			b.WriteString(`</tr>`)
		}
		b.WriteString(`</tbody></table>`)
		if len(v.Rows) < v.TotalRows {
			fmt.Fprintf(&b, `<p class="muted">Showing %d of %d rows.</p>`, len(v.Rows), v.TotalRows)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert" role="alert"><strong>%s</strong><p>%s</p><p class="muted">Code: %s</p></div>`,
			templ.EscapeString(message), templ.EscapeString(action), templ.EscapeString(code))
		return err
	})
}
