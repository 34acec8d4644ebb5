package xltpl

import (
	"fmt"
	"path"
)

// worksheetDir is the archive directory that holds worksheet parts.
const worksheetDir = "xl/worksheets"

// Worksheet is one worksheet part with every cell element indexed by its
// reference attribute.
type Worksheet struct {
	file  *File
	part  *xmlPart
	base  string // file name within xl/worksheets, e.g. "sheet1.xml"
	cells map[string]*Cell
	refs  []string // document order
}

// newWorksheet parses and indexes the worksheet stored at entryName.
// Malformed, missing, or duplicate cell references are rejected here so a
// damaged template fails at open instead of silently dropping cells.
func newWorksheet(f *File, a *archive, entryName string) (*Worksheet, error) {
	part, err := loadPart(a, entryName)
	if err != nil {
		return nil, err
	}

	ws := &Worksheet{
		file:  f,
		part:  part,
		base:  path.Base(entryName),
		cells: make(map[string]*Cell),
	}

	for _, el := range elementsByTag(part.doc.Root(), "c") {
		ref, ok := attrByKey(el, "r")
		if !ok {
			return nil, fmt.Errorf("worksheet %s: cell element without a reference attribute", ws.base)
		}
		if _, _, err := ParseRef(ref); err != nil {
			return nil, fmt.Errorf("worksheet %s: %w", ws.base, err)
		}
		if _, exists := ws.cells[ref]; exists {
			return nil, fmt.Errorf("worksheet %s: duplicate cell reference %q", ws.base, ref)
		}

		kind := PlainCell
		if t, _ := attrByKey(el, "t"); t == "s" {
			kind = SharedStringCell
		}
		ws.cells[ref] = &Cell{ws: ws, el: el, ref: ref, kind: kind}
		ws.refs = append(ws.refs, ref)
	}

	return ws, nil
}

// FileName returns the worksheet's file name within the archive's
// worksheets directory, e.g. "sheet1.xml".
func (ws *Worksheet) FileName() string {
	return ws.base
}

// Cell returns the cell with the given reference, e.g. "A1".
func (ws *Worksheet) Cell(ref string) (*Cell, error) {
	c, ok := ws.cells[ref]
	if !ok {
		return nil, fmt.Errorf("cell %q not found in worksheet %s", ref, ws.base)
	}
	return c, nil
}

// Refs returns every indexed cell reference in document order.
func (ws *Worksheet) Refs() []string {
	out := make([]string, len(ws.refs))
	copy(out, ws.refs)
	return out
}

// ResetFormulas removes the cached result element from every formula cell,
// leaving the formula expression in place so the consuming application
// recomputes it on next open. Calling it again is a no-op.
func (ws *Worksheet) ResetFormulas() {
	for _, f := range elementsByTag(ws.part.doc.Root(), "f") {
		parent := f.Parent()
		if parent == nil {
			continue
		}
		for _, v := range childrenByTag(parent, "v") {
			parent.RemoveChild(v)
		}
	}
}

// flush serializes the worksheet back into its archive entry.
func (ws *Worksheet) flush(a *archive) error {
	return ws.part.flush(a)
}
