package xltpl

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// ErrNoValue reports that a cell has no value payload element. Callers that
// treat empty cells as normal should test for it with errors.Is.
var ErrNoValue = errors.New("cell has no value")

// CellKind tells how a cell's stored value is interpreted. The kind is
// decided once, when the worksheet is indexed, from the cell's type
// attribute, and never changes for the life of the Cell.
type CellKind int

const (
	// PlainCell stores its value directly in its v element (numbers,
	// booleans, formula results, inline content).
	PlainCell CellKind = iota
	// SharedStringCell stores a zero-based index into the workbook's
	// shared-string table in its v element.
	SharedStringCell
)

// String returns a human-readable name for the CellKind.
func (k CellKind) String() string {
	switch k {
	case PlainCell:
		return "Plain"
	case SharedStringCell:
		return "SharedString"
	default:
		return "Unknown"
	}
}

// Cell is a typed accessor bound to one cell element of a worksheet.
type Cell struct {
	ws   *Worksheet
	el   *etree.Element
	ref  string
	kind CellKind
}

// Ref returns the cell's reference within its worksheet, e.g. "B3".
func (c *Cell) Ref() string {
	return c.ref
}

// Kind returns how the cell's stored value is interpreted.
func (c *Cell) Kind() CellKind {
	return c.kind
}

// Formula returns the cell's formula expression, without a leading =, and
// whether the cell has one.
func (c *Cell) Formula() (string, bool) {
	f := childByTag(c.el, "f")
	if f == nil {
		return "", false
	}
	return f.Text(), true
}

// Value returns the cell's displayed value. For a plain cell that is the
// text of its value element; for a shared-string cell the stored index is
// resolved through the shared-string table. A cell without a value element
// yields ErrNoValue.
func (c *Cell) Value() (string, error) {
	raw, err := c.rawValue()
	if err != nil {
		return "", err
	}
	if c.kind == PlainCell {
		return raw, nil
	}
	index, err := c.stringIndex(raw)
	if err != nil {
		return "", err
	}
	s, err := c.ws.file.strings.GetString(index)
	if err != nil {
		return "", fmt.Errorf("cell %s: %w", c.ref, err)
	}
	return s, nil
}

// SetValue sets the cell's displayed value, converting value to text. A
// plain cell's value element is updated in place, or created and appended
// when missing. A shared-string cell must already hold a valid table index;
// its table slot is overwritten, so every other cell sharing that index
// displays the new text too. No new table slot is ever allocated.
func (c *Cell) SetValue(value any) error {
	text := valueText(value)
	if c.kind == PlainCell {
		v := childByTag(c.el, "v")
		if v == nil {
			v = c.el.CreateElement("v")
		}
		v.SetText(text)
		return nil
	}

	raw, err := c.rawValue()
	if err != nil {
		return err
	}
	index, err := c.stringIndex(raw)
	if err != nil {
		return err
	}
	if err := c.ws.file.strings.SetString(index, text); err != nil {
		return fmt.Errorf("cell %s: %w", c.ref, err)
	}
	return nil
}

// rawValue returns the text of the cell's value element.
func (c *Cell) rawValue() (string, error) {
	v := childByTag(c.el, "v")
	if v == nil {
		return "", fmt.Errorf("cell %s: %w", c.ref, ErrNoValue)
	}
	return v.Text(), nil
}

// stringIndex interprets raw as a shared-string table index.
func (c *Cell) stringIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("cell %s: shared string index %q is not an integer", c.ref, raw)
	}
	return index, nil
}

// valueText converts a value to the text stored in the document.
func valueText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
