package xltpl

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Raw fixture parts. Hand-written XML keeps the exact byte layout under
// test control, including cached formula results, rich-text runs, and
// entries the library never parses.
const (
	testContentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/></Types>`

	testRootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/></Relationships>`

	testWorkbookXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Report" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets></workbook>`

	testWorkbookRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet2.xml"/><Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="sharedStrings.xml"/></Relationships>`

	// sheet1: A1/A2 shared strings, B1 plain number, C1 formula with a
	// cached result, B2 empty cell without a value element.
	testSheet1XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1"><v>42</v></c><c r="C1"><f>SUM(B1:B1)</f><v>42</v></c></row><row r="2"><c r="A2" t="s"><v>1</v></c><c r="B2"/></row></sheetData></worksheet>`

	// sheet2: one shared-string cell pointing into a rich-text run plus a
	// second cached formula.
	testSheet2XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1" t="s"><v>2</v></c><c r="B1"><f>1+1</f><v>2</v></c></row></sheetData></worksheet>`

	// Four indexed string elements: two plain entries and a rich-text
	// entry whose two runs are indexed separately.
	testSharedStringsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="4" uniqueCount="4"><si><t>Name: ${name}</t></si><si><t>${city}</t></si><si><r><rPr><b/></rPr><t>Hello </t></r><r><t>World</t></r></si></sst>`

	testStylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><fonts count="1"><font><sz val="11"/><name val="Calibri"/></font></fonts></styleSheet>`

	testAppPropsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>xltpl test</Application></Properties>`
)

// rawEntry is one archive entry for buildRawXlsx. Entries keep their slice
// order in the container, which the byte-preservation tests depend on.
type rawEntry struct {
	name string
	data string
}

// defaultRawEntries returns a small but structurally complete workbook.
func defaultRawEntries() []rawEntry {
	return []rawEntry{
		{"[Content_Types].xml", testContentTypesXML},
		{"_rels/.rels", testRootRelsXML},
		{"docProps/app.xml", testAppPropsXML},
		{"xl/workbook.xml", testWorkbookXML},
		{"xl/_rels/workbook.xml.rels", testWorkbookRelsXML},
		{"xl/worksheets/sheet1.xml", testSheet1XML},
		{"xl/worksheets/sheet2.xml", testSheet2XML},
		{"xl/sharedStrings.xml", testSharedStringsXML},
		{"xl/styles.xml", testStylesXML},
		{"xl/media/image1.bin", "\x89PNG\r\n\x1a\n not actually a png"},
	}
}

// buildRawXlsx zips the entries in order and returns the container bytes.
func buildRawXlsx(t *testing.T, entries []rawEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// openRaw builds a raw container and opens it.
func openRaw(t *testing.T, entries []rawEntry) *File {
	t.Helper()
	f, err := OpenReader(bytes.NewReader(buildRawXlsx(t, entries)))
	require.NoError(t, err)
	return f
}

// withEntry returns entries with the named entry's data replaced.
func withEntry(entries []rawEntry, name, data string) []rawEntry {
	out := make([]rawEntry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].name == name {
			out[i].data = data
		}
	}
	return out
}

// withoutEntry returns entries with the named entry removed.
func withoutEntry(entries []rawEntry, name string) []rawEntry {
	out := make([]rawEntry, 0, len(entries))
	for _, e := range entries {
		if e.name != name {
			out = append(out, e)
		}
	}
	return out
}

// saveAndReopen writes the workbook to memory and opens the result.
func saveAndReopen(t *testing.T, f *File) *File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	out, err := OpenReader(&buf)
	require.NoError(t, err)
	return out
}

// readZipEntries lists a container's entry names in order and their bytes.
func readZipEntries(t *testing.T, data []byte) ([]string, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	contents := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		entry, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		names = append(names, f.Name)
		contents[f.Name] = entry
	}
	return names, contents
}

// testdataDir returns the path to testdata directory, creating it if needed.
func testdataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("testdata")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// createFillTemplate creates a spreadsheet template with expression
// placeholders. Layout:
//
//	A1: "Name:"                       B1: "${name}"
//	A2: "Total: ${quantity * price}"  B2: 7
func createFillTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	require.NoError(t, f.SetCellValue(sheet, "A1", "Name:"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "${name}"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Total: ${quantity * price}"))
	require.NoError(t, f.SetCellValue(sheet, "B2", 7))

	path := filepath.Join(testdataDir(t), "fill_template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// createStyledTemplate creates a template with styles and a merged range to
// exercise preservation of parts this library never parses.
func createStyledTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	require.NoError(t, err)

	require.NoError(t, f.SetCellValue(sheet, "A1", "Header ${title}"))
	require.NoError(t, f.SetCellStyle(sheet, "A1", "A1", boldStyle))
	require.NoError(t, f.MergeCell(sheet, "A1", "C1"))
	require.NoError(t, f.SetCellValue(sheet, "A2", 1234.5))

	path := filepath.Join(testdataDir(t), "styled_template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
