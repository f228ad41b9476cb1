package thesisaf

import (
	"strings"
	"unicode"
)

// Marker-cell table tokens emitted by extractors for sources with no native
// table structure. The stream declares no column count; see inferColumnCount.
const (
	tableStartMarker = "[TABLE]"
	tableEndMarker   = "[/TABLE]"
	tableCellMarker  = "[CELL]"
)

// ---- Table normalization ----

// NormalizeTables converts both raw table dialects into ruled LaTeX tables:
// the explicit marker-cell dialect first, then pipe-delimited blocks. Blocks
// that cannot form at least two rows are left untouched.
func NormalizeTables(text string) string {
	if text == "" {
		return text
	}
	return convertPipeTables(convertMarkerTables(text))
}

// ---- Marker-cell dialect ----

// convertMarkerTables replaces every [TABLE]...[/TABLE] span whose cell
// stream yields a plausible table. Unmatched or underfilled spans stay
// literal.
func convertMarkerTables(text string) string {
	var result strings.Builder
	result.Grow(len(text))
	rest := text
	for {
		s := strings.Index(rest, tableStartMarker)
		if s < 0 {
			result.WriteString(rest)
			break
		}
		e := strings.Index(rest[s+len(tableStartMarker):], tableEndMarker)
		if e < 0 {
			result.WriteString(rest)
			break
		}
		body := rest[s+len(tableStartMarker) : s+len(tableStartMarker)+e]
		span := rest[s : s+len(tableStartMarker)+e+len(tableEndMarker)]
		result.WriteString(rest[:s])
		if table, ok := markerCellsToTable(body); ok {
			result.WriteString(table)
		} else {
			result.WriteString(span)
		}
		rest = rest[s+len(tableStartMarker)+e+len(tableEndMarker):]
	}
	return result.String()
}

// markerCellsToTable parses a flat [CELL] stream, infers the column count,
// and renders the ruled table. Returns false when fewer than two rows form.
func markerCellsToTable(body string) (string, bool) {
	parts := strings.Split(body, tableCellMarker)
	cells := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == 0 && p == "" {
			// Text before the first cell token, normally empty.
			continue
		}
		cells = append(cells, p)
	}
	if len(cells) == 0 {
		return "", false
	}

	columns := inferColumnCount(cells)
	rows := make([][]string, 0, (len(cells)+columns-1)/columns)
	for start := 0; start < len(cells); start += columns {
		row := make([]string, columns)
		for c := 0; c < columns; c++ {
			if start+c < len(cells) {
				row[c] = cells[start+c]
			}
		}
		rows = append(rows, row)
	}
	if len(rows) < 2 {
		return "", false
	}
	return renderLaTeXTable(rows, columns), true
}

// inferColumnCount runs the ranked inference heuristics in priority order:
// a leading header run first, the numeric-gap measure second, then a safe
// default. Each heuristic answers confidently or passes.
func inferColumnCount(cells []string) int {
	if n, ok := headerRunColumns(cells); ok {
		return n
	}
	if n, ok := numericGapColumns(cells); ok {
		return n
	}
	return 3
}

// headerRunColumns measures the leading run of short, script-homogeneous
// header-like cells. A run of 2..6 followed by at least one data cell is a
// confident column count.
func headerRunColumns(cells []string) (int, bool) {
	run := 0
	for _, c := range cells {
		if !headerLikeCell(c) {
			break
		}
		run++
	}
	if run >= 2 && run <= 6 && run < len(cells) {
		return run, true
	}
	return 0, false
}

// numericGapColumns finds the first numeric-looking cell and measures the
// distance to the next numeric-looking cell. Gaps of 2..6 are plausible
// column counts; anything else is no opinion.
func numericGapColumns(cells []string) (int, bool) {
	first := -1
	for i, c := range cells {
		if !numericLookingCell(c) {
			continue
		}
		if first < 0 {
			first = i
			continue
		}
		gap := i - first
		if gap >= 2 && gap <= 6 {
			return gap, true
		}
		return 0, false
	}
	return 0, false
}

// headerLikeCell reports whether a cell reads as a column header: short,
// non-empty, digit-free, and written in one script throughout (CJK or
// Latin letters, spaces allowed between Latin words).
func headerLikeCell(cell string) bool {
	runes := []rune(cell)
	if len(runes) == 0 || len(runes) > 12 {
		return false
	}
	han, latin := 0, 0
	for _, r := range runes {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case isASCIILetter(r):
			latin++
		case r == ' ' && latin > 0:
			// space inside a Latin header like "Model Name"
		default:
			return false
		}
	}
	return (han > 0) != (latin > 0)
}

// numericLookingCell reports whether a cell is a bare number, optionally
// signed, decimal, grouped, or percent-suffixed.
func numericLookingCell(cell string) bool {
	if cell == "" {
		return false
	}
	digits := 0
	for _, r := range cell {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == '.' || r == ',' || r == '%':
		default:
			return false
		}
	}
	return digits > 0
}

// ---- Pipe dialect ----

// convertPipeTables rewrites runs of pipe-delimited lines that carry a
// header-separator row. Runs without a separator, or with no data rows, are
// left as they came.
func convertPipeTables(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if !strings.Contains(lines[i], "|") {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) && strings.Contains(lines[j], "|") {
			j++
		}
		if table, ok := pipeLinesToTable(lines[i:j]); ok {
			out = append(out, table)
		} else {
			out = append(out, lines[i:j]...)
		}
		i = j
	}
	return strings.Join(out, "\n")
}

// pipeLinesToTable parses header / separator / data lines. The header row
// fixes the column count; data rows are padded or truncated to fit.
func pipeLinesToTable(block []string) (string, bool) {
	if len(block) < 3 || !pipeSeparatorLine(block[1]) {
		return "", false
	}
	header := splitPipeRow(block[0])
	if len(header) == 0 {
		return "", false
	}
	columns := len(header)

	rows := [][]string{header}
	for _, line := range block[2:] {
		if pipeSeparatorLine(line) {
			continue
		}
		cells := splitPipeRow(line)
		if len(cells) == 0 {
			continue
		}
		row := make([]string, columns)
		for c := 0; c < columns; c++ {
			if c < len(cells) {
				row[c] = cells[c]
			}
		}
		rows = append(rows, row)
	}
	if len(rows) < 2 {
		return "", false
	}
	return renderLaTeXTable(rows, columns), true
}

// pipeSeparatorLine matches header-separator rows such as |---|:--:|---|.
func pipeSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "-") {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '-', '|', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// splitPipeRow splits a row on pipes, trimming cells and dropping the empty
// boundary cells produced by leading and trailing pipes.
func splitPipeRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// ---- Rendering ----

// renderLaTeXTable emits a fully ruled tabular: one vertical rule per column
// boundary, one horizontal rule per row boundary.
func renderLaTeXTable(rows [][]string, columns int) string {
	var b strings.Builder
	b.WriteString(`\begin{tabular}{|`)
	for c := 0; c < columns; c++ {
		b.WriteString("c|")
	}
	b.WriteString("}\n\\hline\n")
	for _, row := range rows {
		for c, cell := range row {
			if c > 0 {
				b.WriteString(" & ")
			}
			b.WriteString(EscapeLaTeX(cell))
		}
		b.WriteString(" \\\\\n\\hline\n")
	}
	b.WriteString(`\end{tabular}`)
	return b.String()
}
