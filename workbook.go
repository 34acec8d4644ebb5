package xltpl

import (
	"path"

	"github.com/beevik/etree"
)

const (
	workbookPath     = "xl/workbook.xml"
	workbookRelsPath = "xl/_rels/workbook.xml.rels"
)

// workbookPart wraps xl/workbook.xml. It resolves sheet display names to
// worksheet file names through the workbook relationships and carries the
// calculation properties used by SetRecalculateOnOpen.
type workbookPart struct {
	part       *xmlPart
	sheetFiles map[string]string // display name → worksheet file base name
	order      []string          // display names in workbook order
	dirty      bool
}

// newWorkbookPart loads the workbook part when the archive has one.
// Returns (nil, nil) when absent: the core cell API works without it, only
// name-based lookup and the recalc flag need it.
func newWorkbookPart(a *archive) (*workbookPart, error) {
	if _, ok := a.entry(workbookPath); !ok {
		return nil, nil
	}
	part, err := loadPart(a, workbookPath)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]string) // relationship id → target
	if _, ok := a.entry(workbookRelsPath); ok {
		rels, err := loadPart(a, workbookRelsPath)
		if err != nil {
			return nil, err
		}
		for _, rel := range elementsByTag(rels.doc.Root(), "Relationship") {
			id, _ := attrByKey(rel, "Id")
			target, _ := attrByKey(rel, "Target")
			if id != "" && target != "" {
				targets[id] = target
			}
		}
	}

	wb := &workbookPart{part: part, sheetFiles: make(map[string]string)}
	for _, sheet := range elementsByTag(part.doc.Root(), "sheet") {
		name, ok := attrByKey(sheet, "name")
		if !ok {
			continue
		}
		wb.order = append(wb.order, name)
		if id, ok := attrByKey(sheet, "id"); ok {
			if target, ok := targets[id]; ok {
				wb.sheetFiles[name] = path.Base(target)
			}
		}
	}
	return wb, nil
}

// fileFor resolves a sheet display name to its worksheet file name.
func (wb *workbookPart) fileFor(name string) (string, bool) {
	file, ok := wb.sheetFiles[name]
	return file, ok
}

// sheetNames returns the display names in workbook order.
func (wb *workbookPart) sheetNames() []string {
	out := make([]string, len(wb.order))
	copy(out, wb.order)
	return out
}

// setRecalculateOnOpen sets or clears fullCalcOnLoad on the workbook's
// calculation properties. When no calcPr exists one is created right after
// the sheets element to keep the part schema-ordered.
func (wb *workbookPart) setRecalculateOnOpen(recalc bool) {
	root := wb.part.doc.Root()
	calcPr := childByTag(root, "calcPr")
	if calcPr == nil {
		if !recalc {
			return
		}
		calcPr = etree.NewElement("calcPr")
		insertAfter(root, childByTag(root, "sheets"), calcPr)
	}
	if recalc {
		calcPr.CreateAttr("fullCalcOnLoad", "1")
	} else {
		calcPr.RemoveAttr("fullCalcOnLoad")
	}
	wb.dirty = true
}

// insertAfter places el directly after the sibling after among parent's
// children, or appends it when after is nil or not found.
func insertAfter(parent, after, el *etree.Element) {
	if after != nil {
		for i, tok := range parent.Child {
			if child, ok := tok.(*etree.Element); ok && child == after {
				parent.InsertChildAt(i+1, el)
				return
			}
		}
	}
	parent.AddChild(el)
}

// flush serializes the workbook back into its archive entry. An unmodified
// workbook part is left alone so its raw bytes survive a save untouched.
func (wb *workbookPart) flush(a *archive) error {
	if !wb.dirty {
		return nil
	}
	return wb.part.flush(a)
}
