// Package xltpl edits cell values inside existing xlsx workbooks while
// leaving every other part of the archive byte-for-byte untouched, so the
// styling, formulas, charts, and layout of a hand-designed template survive
// exactly as authored.
//
// Shared strings are written through: setting the value of a shared-string
// cell overwrites its slot in the workbook's shared-string table, and every
// cell referencing the same slot displays the new text. That aliasing is how
// the format shares text between cells; this package preserves it rather
// than copying strings on write.
package xltpl

import (
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"
)

// File is an open workbook: the raw archive entries plus parsed views of
// the worksheet, shared-string, and workbook parts. A File is not safe for
// concurrent use.
type File struct {
	archive *archive
	sheets  map[string]*Worksheet
	strings *SharedStrings
	wb      *workbookPart
}

// OpenFile opens the workbook at the given path.
func OpenFile(path string) (*File, error) {
	a, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	return newFile(a)
}

// OpenReader opens a workbook from r, reading it fully into memory.
func OpenReader(r io.Reader) (*File, error) {
	a, err := readArchiveReader(r)
	if err != nil {
		return nil, err
	}
	return newFile(a)
}

func newFile(a *archive) (*File, error) {
	f := &File{
		archive: a,
		sheets:  make(map[string]*Worksheet),
	}

	for _, name := range a.names {
		if strings.ToLower(path.Dir(name)) != worksheetDir {
			continue
		}
		ws, err := newWorksheet(f, a, name)
		if err != nil {
			return nil, err
		}
		f.sheets[ws.base] = ws
	}

	ss, err := newSharedStrings(a)
	if err != nil {
		return nil, err
	}
	f.strings = ss

	wb, err := newWorkbookPart(a)
	if err != nil {
		return nil, err
	}
	f.wb = wb

	return f, nil
}

// Worksheet returns the worksheet stored under the given file name within
// the archive's worksheets directory, e.g. "sheet1.xml".
func (f *File) Worksheet(fileName string) (*Worksheet, error) {
	ws, ok := f.sheets[fileName]
	if !ok {
		return nil, fmt.Errorf("worksheet %q not found", fileName)
	}
	return ws, nil
}

// WorksheetByName returns the worksheet whose display name matches, e.g.
// "Sheet1", resolved through the workbook part.
func (f *File) WorksheetByName(sheetName string) (*Worksheet, error) {
	if f.wb == nil {
		return nil, fmt.Errorf("sheet %q: part %q not found in archive", sheetName, workbookPath)
	}
	fileName, ok := f.wb.fileFor(sheetName)
	if !ok {
		return nil, fmt.Errorf("sheet %q not found in workbook", sheetName)
	}
	ws, ok := f.sheets[fileName]
	if !ok {
		return nil, fmt.Errorf("sheet %q resolves to %q, which is not a worksheet part", sheetName, fileName)
	}
	return ws, nil
}

// WorksheetFiles returns the file names of all loaded worksheets, sorted.
func (f *File) WorksheetFiles() []string {
	names := make([]string, 0, len(f.sheets))
	for name := range f.sheets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SheetNames returns the sheet display names in workbook order, or nil when
// the archive has no workbook part.
func (f *File) SheetNames() []string {
	if f.wb == nil {
		return nil
	}
	return f.wb.sheetNames()
}

// SharedStrings returns the workbook's shared-string table.
func (f *File) SharedStrings() *SharedStrings {
	return f.strings
}

// ResetAllFormulas removes the cached result from every formula cell in
// every worksheet so the consuming application recalculates them on open.
func (f *File) ResetAllFormulas() {
	for _, name := range f.WorksheetFiles() {
		f.sheets[name].ResetFormulas()
	}
}

// SetRecalculateOnOpen marks the workbook so the consuming application
// recalculates all formulas when the file is opened.
func (f *File) SetRecalculateOnOpen(recalc bool) error {
	if f.wb == nil {
		return fmt.Errorf("part %q not found in archive", workbookPath)
	}
	f.wb.setRecalculateOnOpen(recalc)
	return nil
}

// Write flushes every parsed part back into the archive and writes the
// whole container to w.
func (f *File) Write(w io.Writer) error {
	if err := f.strings.flush(f.archive); err != nil {
		return err
	}
	for _, name := range f.WorksheetFiles() {
		if err := f.sheets[name].flush(f.archive); err != nil {
			return err
		}
	}
	if f.wb != nil {
		if err := f.wb.flush(f.archive); err != nil {
			return err
		}
	}
	return f.archive.writeTo(w)
}

// SaveAs writes the workbook to path, overwriting any existing file.
func (f *File) SaveAs(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	if err := f.Write(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
