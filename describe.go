package xltpl

import (
	"errors"
	"fmt"
	"strings"
)

// Describe returns a human-readable summary of the workbook: its archive
// parts, each worksheet's cells, formulas, and embedded expressions, and the
// shared-string table. Useful for inspecting templates during development.
func (f *File) Describe(opts ...Option) string {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workbook: %d parts, %d worksheets, %d shared strings\n",
		len(f.archive.names), len(f.sheets), f.strings.Len())

	displayNames := make(map[string]string)
	if f.wb != nil {
		for _, name := range f.wb.order {
			if fileName, ok := f.wb.fileFor(name); ok {
				displayNames[fileName] = name
			}
		}
	}

	for _, name := range f.WorksheetFiles() {
		ws := f.sheets[name]

		formulas := 0
		var exprs []string
		for _, ref := range ws.refs {
			cell := ws.cells[ref]
			if _, ok := cell.Formula(); ok {
				formulas++
			}
			value, err := cell.Value()
			if err != nil {
				if !errors.Is(err, ErrNoValue) {
					exprs = append(exprs, fmt.Sprintf("    %s: <%v>", ref, err))
				}
				continue
			}
			if strings.Contains(value, o.notationBegin) {
				exprs = append(exprs, fmt.Sprintf("    %s: %s", ref, value))
			}
		}

		if display, ok := displayNames[name]; ok {
			fmt.Fprintf(&b, "Sheet %s (%s): %d cells, %d formulas\n", name, display, len(ws.refs), formulas)
		} else {
			fmt.Fprintf(&b, "Sheet %s: %d cells, %d formulas\n", name, len(ws.refs), formulas)
		}
		if len(exprs) > 0 {
			b.WriteString("  Expressions:\n")
			for _, e := range exprs {
				b.WriteString(e)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// Describe opens the workbook at templatePath and returns its summary.
func Describe(templatePath string, opts ...Option) (string, error) {
	f, err := OpenFile(templatePath)
	if err != nil {
		return "", err
	}
	return f.Describe(opts...), nil
}
