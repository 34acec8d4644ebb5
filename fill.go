package xltpl

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Options holds configuration for filling a template.
type Options struct {
	notationBegin     string
	notationEnd       string
	resetFormulas     bool
	recalculateOnOpen bool
}

func defaultOptions() *Options {
	return &Options{
		notationBegin: "${",
		notationEnd:   "}",
		resetFormulas: true,
	}
}

// Option configures template filling.
type Option func(*Options)

// WithExpressionNotation sets the expression delimiters (default: "${", "}").
// Empty delimiters fall back to the defaults.
func WithExpressionNotation(begin, end string) Option {
	return func(o *Options) {
		if begin == "" || end == "" {
			begin = "${"
			end = "}"
		}
		o.notationBegin = begin
		o.notationEnd = end
	}
}

// WithResetFormulas controls whether cached formula results are removed after
// filling so the consuming application recalculates them (default: true).
func WithResetFormulas(reset bool) Option {
	return func(o *Options) { o.resetFormulas = reset }
}

// WithRecalculateOnOpen tells the consuming application to recalculate all
// formulas when the file is opened.
func WithRecalculateOnOpen(recalc bool) Option {
	return func(o *Options) { o.recalculateOnOpen = recalc }
}

// evaluator evaluates template expressions using expr-lang/expr.
type evaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

func (e *evaluator) evaluate(expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := e.compile(expression, data)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	result, err := expr.Run(program, data)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", expression, err)
	}
	return result, nil
}

func (e *evaluator) compile(expression string, env map[string]any) (*vm.Program, error) {
	if cached, ok := e.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	e.cache.Store(expression, program)
	return program, nil
}

// segment is a part of a cell value: either literal text or an expression.
type segment struct {
	isExpression bool
	text         string // literal text or expression content without delimiters
}

// parseSegments splits a cell value into literal and expression segments.
// For example, "Name: ${name}" → [{false, "Name: "}, {true, "name"}].
func parseSegments(value, begin, end string) []segment {
	var segments []segment
	remaining := value

	for {
		startIdx := strings.Index(remaining, begin)
		if startIdx < 0 {
			break
		}

		searchFrom := startIdx + len(begin)
		endIdx := findMatchingEnd(remaining[searchFrom:], begin, end)
		if endIdx < 0 {
			break
		}
		endIdx += searchFrom

		if startIdx > 0 {
			segments = append(segments, segment{text: remaining[:startIdx]})
		}
		segments = append(segments, segment{
			isExpression: true,
			text:         remaining[startIdx+len(begin) : endIdx],
		})

		remaining = remaining[endIdx+len(end):]
	}

	if remaining != "" {
		segments = append(segments, segment{text: remaining})
	}
	return segments
}

// findMatchingEnd finds the position of the matching end delimiter, handling
// nested begin/end pairs.
func findMatchingEnd(s, begin, end string) int {
	depth := 0
	for i := 0; i <= len(s)-len(end); i++ {
		if strings.HasPrefix(s[i:], begin) {
			depth++
		} else if strings.HasPrefix(s[i:], end) {
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// extractSingleExpression extracts the expression from a value like
// "${name}". It returns the expression and true only when the whole value is
// one expression with no surrounding text.
func extractSingleExpression(value, begin, end string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, begin) || !strings.HasSuffix(trimmed, end) {
		return "", false
	}
	inner := trimmed[len(begin) : len(trimmed)-len(end)]
	if strings.Contains(inner, begin) {
		return "", false
	}
	return inner, true
}

// evalCellValue evaluates every expression embedded in a cell value. The
// second result reports whether the value contained any expression; callers
// must leave the cell untouched when it is false.
func (e *evaluator) evalCellValue(value string, data map[string]any, begin, end string) (any, bool, error) {
	if exprStr, ok := extractSingleExpression(value, begin, end); ok {
		result, err := e.evaluate(exprStr, data)
		if err != nil {
			return nil, false, err
		}
		return result, true, nil
	}

	segments := parseSegments(value, begin, end)
	hasExpr := false
	for _, seg := range segments {
		if seg.isExpression {
			hasExpr = true
			break
		}
	}
	if !hasExpr {
		return nil, false, nil
	}

	var b strings.Builder
	for _, seg := range segments {
		if !seg.isExpression {
			b.WriteString(seg.text)
			continue
		}
		val, err := e.evaluate(seg.text, data)
		if err != nil {
			return nil, false, err
		}
		if val != nil {
			fmt.Fprintf(&b, "%v", val)
		}
	}
	return b.String(), true, nil
}

// Fill evaluates every expression embedded in the workbook's cell values
// against data and writes the results back through each cell's existing
// storage, so a shared-string slot referenced by several cells is expanded
// once and displayed by all of them. Cells without expressions, and cells
// without a stored value, are left untouched. Expressions follow the
// expr-lang syntax, delimited by the configured notation.
func (f *File) Fill(data map[string]any, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if data == nil {
		data = make(map[string]any)
	}

	ev := &evaluator{}
	for _, name := range f.WorksheetFiles() {
		ws := f.sheets[name]
		for _, ref := range ws.refs {
			cell := ws.cells[ref]
			value, err := cell.Value()
			if errors.Is(err, ErrNoValue) {
				continue
			}
			if err != nil {
				return fmt.Errorf("fill %s in %s: %w", ref, name, err)
			}

			result, found, err := ev.evalCellValue(value, data, o.notationBegin, o.notationEnd)
			if err != nil {
				return fmt.Errorf("fill %s in %s: %w", ref, name, err)
			}
			if !found {
				continue
			}
			if result == nil {
				result = ""
			}
			if err := cell.SetValue(result); err != nil {
				return fmt.Errorf("fill %s in %s: %w", ref, name, err)
			}
		}
	}

	if o.resetFormulas {
		f.ResetAllFormulas()
	}
	if o.recalculateOnOpen {
		if err := f.SetRecalculateOnOpen(true); err != nil {
			return err
		}
	}
	return nil
}

// Fill opens the template at templatePath, fills it with data, and writes
// the populated workbook to outputPath.
func Fill(templatePath, outputPath string, data map[string]any, opts ...Option) error {
	f, err := OpenFile(templatePath)
	if err != nil {
		return err
	}
	if err := f.Fill(data, opts...); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// FillBytes opens the template at templatePath, fills it with data, and
// returns the populated workbook as bytes.
func FillBytes(templatePath string, data map[string]any, opts ...Option) ([]byte, error) {
	f, err := OpenFile(templatePath)
	if err != nil {
		return nil, err
	}
	if err := f.Fill(data, opts...); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
