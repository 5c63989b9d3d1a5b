package formatting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/giantswarm/lantern/internal/api"
	pkgstrings "github.com/giantswarm/lantern/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{options: options}
}

// FormatServers prints servers as a table followed by a summary line.
func (f *TableFormatter) FormatServers(servers []ServerStatus) error {
	if len(servers) == 0 {
		return f.printEmpty("No servers configured")
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("NAME"), f.header("TRANSPORT"), f.header("STATE"), f.header("OPERATIONS"), f.header("MANIFEST"), f.header("ERROR")})

	ready := 0
	for _, s := range servers {
		if s.State == api.StateReady.String() {
			ready++
		}
		t.AppendRow(table.Row{s.Name, s.Transport, f.state(s.State), s.Operations, manifestCell(s.Manifest), pkgstrings.TruncateDescription(s.Error, pkgstrings.DescriptionMaxLen)})
	}
	t.Render()

	if !f.options.Quiet {
		_, err := fmt.Fprintf(f.options.writer(), "\n%s %d of %d servers ready\n", f.paint(text.FgHiBlue, "Total:"), ready, len(servers))
		return err
	}
	return nil
}

// FormatOperation prints an operation with its parameter table.
func (f *TableFormatter) FormatOperation(op api.Operation) error {
	w := f.options.writer()
	fmt.Fprintf(w, "%s %s/%s\n", f.paint(text.FgHiCyan, "Operation:"), op.Server, op.Name)
	if op.Description != "" {
		fmt.Fprintf(w, "%s %s\n", f.paint(text.FgHiCyan, "Description:"), op.Description)
	}

	if len(op.Parameters) == 0 {
		_, err := fmt.Fprintln(w, "\nNo parameters required.")
		return err
	}

	fmt.Fprintln(w)
	t := f.createTable()
	t.AppendHeader(table.Row{f.header("PARAMETER"), f.header("TYPE"), f.header("REQUIRED"), f.header("DESCRIPTION")})
	for _, p := range op.Parameters {
		required := "no"
		if p.Required {
			required = f.paint(text.FgYellow, "yes")
		}
		t.AppendRow(table.Row{p.Name, p.Type, required, p.Description})
	}
	t.Render()
	return nil
}

// FormatResult prints the text content of a result, or its structured
// content when there is no text.
func (f *TableFormatter) FormatResult(result *api.InvocationResult) error {
	w := f.options.writer()
	if msg := result.ErrorMessage(); msg != "" {
		fmt.Fprintf(w, "%s %s\n", f.paint(text.FgRed, "Error:"), msg)
		return nil
	}

	switch {
	case result.Content != "":
		fmt.Fprintln(w, result.Content)
	case result.Structured != nil:
		fmt.Fprintln(w, PrettyJSON(result.Structured))
	default:
		for _, b := range result.Blocks {
			fmt.Fprintf(w, "[%s %s]\n", b.Kind, strings.TrimSpace(b.MIMEType+" "+b.URI))
		}
	}
	return nil
}

// FormatData formats generic data using table logic
func (f *TableFormatter) FormatData(data any) error {
	switch d := data.(type) {
	case map[string]any:
		return f.formatObjectData(d)
	case []any:
		return f.formatArrayData(d)
	case string:
		fmt.Fprintln(f.options.writer(), d)
	default:
		fmt.Fprintf(f.options.writer(), "%v\n", d)
	}
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.writer())
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.paint(text.FgHiCyan, s)
}

func (f *TableFormatter) state(s string) string {
	switch s {
	case api.StateReady.String():
		return f.paint(text.FgGreen, s)
	case api.StateFailed.String():
		return f.paint(text.FgRed, s)
	default:
		return f.paint(text.FgYellow, s)
	}
}

func manifestCell(published bool) string {
	if published {
		return "yes"
	}
	return "-"
}

// paint colours s when colour output is enabled.
func (f *TableFormatter) paint(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func (f *TableFormatter) printEmpty(message string) error {
	_, err := fmt.Fprintln(f.options.writer(), f.paint(text.FgYellow, message))
	return err
}

// formatObjectData formats object data as key-value pairs
func (f *TableFormatter) formatObjectData(data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})
	for _, key := range keys {
		t.AppendRow(table.Row{key, pkgstrings.Truncate(fmt.Sprintf("%v", data[key]), 100)})
	}
	t.Render()
	return nil
}

// formatArrayData formats array data as a numbered list
func (f *TableFormatter) formatArrayData(data []any) error {
	if len(data) == 0 {
		return f.printEmpty("No items found")
	}

	w := f.options.writer()
	for i, item := range data {
		fmt.Fprintf(w, "  %d. %v\n", i+1, item)
	}
	fmt.Fprintf(w, "\n%s %d items\n", f.paint(text.FgHiBlue, "Total:"), len(data))
	return nil
}
