package xltpl

import (
	"fmt"

	"github.com/beevik/etree"
)

// sharedStringsPath is where the spreadsheet package keeps its string table.
const sharedStringsPath = "xl/sharedStrings.xml"

// SharedStrings is the workbook's shared-string table: the ordered list of
// string-bearing (t) elements in xl/sharedStrings.xml. Cells of the
// shared-string kind store an index into this table instead of their own
// text, so one table slot can back many cells at once.
type SharedStrings struct {
	part  *xmlPart
	items []*etree.Element
}

// newSharedStrings loads and indexes the shared-string part. The part is
// required: templates without one cannot be opened.
func newSharedStrings(a *archive) (*SharedStrings, error) {
	part, err := loadPart(a, sharedStringsPath)
	if err != nil {
		return nil, err
	}
	return &SharedStrings{
		part:  part,
		items: elementsByTag(part.doc.Root(), "t"),
	}, nil
}

// Len returns the number of indexed string elements. Rich-text entries
// contribute one element per text run, matching the document-order indexing
// of the underlying part.
func (ss *SharedStrings) Len() int {
	return len(ss.items)
}

// GetString returns the current text of the string at index.
func (ss *SharedStrings) GetString(index int) (string, error) {
	if index < 0 || index >= len(ss.items) {
		return "", fmt.Errorf("shared string index %d out of range [0,%d)", index, len(ss.items))
	}
	return ss.items[index].Text(), nil
}

// SetString replaces the text of the string at index. The change is global:
// every cell referencing this index displays the new text. Empty slots
// (<t/> with no text node) are filled rather than rejected.
func (ss *SharedStrings) SetString(index int, value string) error {
	if index < 0 || index >= len(ss.items) {
		return fmt.Errorf("shared string index %d out of range [0,%d)", index, len(ss.items))
	}
	ss.items[index].SetText(value)
	return nil
}

// flush serializes the table back into its archive entry.
func (ss *SharedStrings) flush(a *archive) error {
	return ss.part.flush(a)
}
