package xltpl

import (
	"fmt"

	"github.com/beevik/etree"
)

// xmlPart is one archive entry parsed into a mutable XML tree. Mutations
// stay invisible to the archive until flush writes the tree back into the
// entry's byte slot.
type xmlPart struct {
	name string
	doc  *etree.Document
}

// loadPart parses the named entry. Missing entries and malformed XML are
// both open-time failures.
func loadPart(a *archive, name string) (*xmlPart, error) {
	data, ok := a.entry(name)
	if !ok {
		return nil, fmt.Errorf("part %q not found in archive", name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse part %q: %w", name, err)
	}
	// etree reads rootless input (empty bytes, bare text) without error.
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse part %q: no root element", name)
	}
	return &xmlPart{name: name, doc: doc}, nil
}

// flush serializes the tree and stores the bytes under the part's name.
func (p *xmlPart) flush(a *archive) error {
	data, err := p.doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serialize part %q: %w", p.name, err)
	}
	a.setEntry(p.name, data)
	return nil
}

// elementsByTag returns every descendant element whose local tag matches,
// in document order. Matching ignores namespace prefixes; spreadsheet parts
// use the default namespace, so local tags are unambiguous.
func elementsByTag(root *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			if child.Tag == tag {
				out = append(out, child)
			}
			walk(child)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// childByTag returns the first direct child element with the given local tag.
func childByTag(e *etree.Element, tag string) *etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// childrenByTag returns all direct child elements with the given local tag.
func childrenByTag(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// attrByKey returns the value of the first attribute with the given local
// key, ignoring namespace prefixes (so it finds both id and r:id).
func attrByKey(e *etree.Element, key string) (string, bool) {
	for _, a := range e.Attr {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
