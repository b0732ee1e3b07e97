package output

import (
	"io"
	"strings"
	"text/tabwriter"
)

// Table is pre-rendered tabular data.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes t with its headers.
func (t *Table) Render(w io.Writer) error {
	return t.render(w, false)
}

func (t *Table) render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if t.Title != "" {
		if _, err := io.WriteString(tw, t.Title+":\n"); err != nil {
			return err
		}
	}
	if !noHeaders && len(t.Headers) > 0 {
		if _, err := io.WriteString(tw, strings.Join(t.Headers, "\t")+"\n"); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		if _, err := io.WriteString(tw, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Sections are tables rendered one after another, separated by a blank
// line. Commands with more than one result set return them.
type Sections []*Table

// TableFormatter renders tables.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format implements Formatter. Structs become FIELD/VALUE tables,
// slices one row per element, maps KEY/VALUE tables sorted by key.
// Anything else is printed as JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case *Table:
		return v.render(w, f.NoHeaders)
	case Table:
		return v.render(w, f.NoHeaders)
	case Sections:
		for i, t := range v {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := t.render(w, f.NoHeaders); err != nil {
				return err
			}
		}
		return nil
	}

	t, ok := Tabulate(data, f.Wide)
	if !ok {
		return (&JSONFormatter{}).Format(w, data)
	}
	return t.render(w, f.NoHeaders)
}
