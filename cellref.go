package xltpl

import "fmt"

// ParseRef parses a cell reference like "A1" or "BC12" into a 0-based
// column and row. References inside worksheet parts never carry sheet
// prefixes or $ anchors, so neither is accepted here.
func ParseRef(ref string) (col, row int, err error) {
	if ref == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}

	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference: %q", ref)
	}

	col, err = NameToCol(ref[:i])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell reference %q: %w", ref, err)
	}

	rowNum := 0
	for _, ch := range ref[i:] {
		if ch < '0' || ch > '9' {
			return 0, 0, fmt.Errorf("invalid row in cell reference: %q", ref)
		}
		rowNum = rowNum*10 + int(ch-'0')
	}
	if rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row number in cell reference: %q", ref)
	}

	return col, rowNum - 1, nil // convert 1-based row to 0-based
}

// FormatRef formats a 0-based column and row as a cell reference.
// FormatRef(0, 0) → "A1", FormatRef(27, 9) → "AB10".
func FormatRef(col, row int) string {
	return fmt.Sprintf("%s%d", ColToName(col), row+1)
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	result := ""
	col++ // convert to 1-based for algorithm
	for col > 0 {
		col-- // adjust for 0-indexed letter
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts an uppercase column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}
