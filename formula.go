package thesisaf

import (
	"strings"
	"unicode"
)

// Formula marker pair emitted by the upstream extractors. The single-line
// form encloses the fragment within one line; the multi-line form puts each
// marker alone on its own line around the fragment lines.
const (
	formulaStartMarker = "[FORMULA]"
	formulaEndMarker   = "[/FORMULA]"
)

// ---- Formula normalization ----

// NormalizeFormulas converts fragmented and marked formula text into LaTeX
// math. Stages, in order: reassemble the four-line fragmentation pattern,
// convert marker-pair fragments, convert unmarked glyph-dense equation
// lines, then collapse stray delimiters. Running it again on its own output
// is a no-op.
func NormalizeFormulas(text string) string {
	if text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = reassembleFragmentedFormulas(lines)
	out := convertMarkedFormulas(strings.Join(lines, "\n"))
	out = convertBareFormulaLines(out)
	return cleanupMathDelimiters(out)
}

// ---- Four-line fragmentation repair ----

// PDF text extraction frequently shreds a displayed sum or product into four
// consecutive lines: the upper limit, the bare operator glyph, the left-hand
// side ending in "=", and the lower limit followed by the body. Example:
//
//	N
//	∑
//	L =
//	i=1 log p(i)
//
// reassembleFragmentedFormulas stitches such runs back into one marked
// single-line formula so the marker converter can finish the job.
func reassembleFragmentedFormulas(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if i+3 < len(lines) {
			upper := strings.TrimSpace(lines[i])
			op, opOK := operatorGlyphLine(lines[i+1])
			lhs := strings.TrimSpace(lines[i+2])
			lower, body, lowerOK := splitLowerAndBody(lines[i+3])
			if opOK && upperLimitLine(upper) && strings.HasSuffix(lhs, "=") && lowerOK {
				var b strings.Builder
				b.WriteString(formulaStartMarker)
				b.WriteString(lhs)
				b.WriteByte(' ')
				b.WriteRune(op)
				b.WriteString("_{" + lower + "}^{" + upper + "}")
				if body != "" {
					b.WriteByte(' ')
					b.WriteString(body)
				}
				b.WriteString(formulaEndMarker)
				out = append(out, b.String())
				i += 3
				continue
			}
		}
		out = append(out, lines[i])
	}
	return out
}

// operatorGlyphLine reports whether the line consists of exactly one large
// operator glyph.
func operatorGlyphLine(line string) (rune, bool) {
	trimmed := strings.TrimSpace(line)
	runes := []rune(trimmed)
	if len(runes) != 1 {
		return 0, false
	}
	switch runes[0] {
	case '∑', '∏', '∫':
		return runes[0], true
	}
	return 0, false
}

// upperLimitLine reports whether the line looks like a detached upper limit:
// a short token such as "N", "∞" or "n-1", never containing "=".
func upperLimitLine(trimmed string) bool {
	if trimmed == "" || len([]rune(trimmed)) > 8 {
		return false
	}
	return !strings.ContainsAny(trimmed, "= \t")
}

// splitLowerAndBody splits "i=1 log p(i)" into the lower limit "i=1" and the
// remaining body. The first token must contain "=" to count as a limit.
func splitLowerAndBody(line string) (lower, body string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.Contains(fields[0], "=") {
		return "", "", false
	}
	return fields[0], strings.Join(fields[1:], " "), true
}

// ---- Marker-pair conversion ----

// convertMarkedFormulas replaces every [FORMULA]...[/FORMULA] pair with a
// delimiter-wrapped LaTeX span. A start marker with no matching end marker is
// left literal so the defect stays visible downstream.
func convertMarkedFormulas(text string) string {
	var result strings.Builder
	result.Grow(len(text))
	rest := text
	for {
		s := strings.Index(rest, formulaStartMarker)
		if s < 0 {
			result.WriteString(rest)
			break
		}
		e := strings.Index(rest[s+len(formulaStartMarker):], formulaEndMarker)
		if e < 0 {
			result.WriteString(rest)
			break
		}
		body := rest[s+len(formulaStartMarker) : s+len(formulaStartMarker)+e]
		result.WriteString(rest[:s])
		writeMathSpan(&result, body)
		rest = rest[s+len(formulaStartMarker)+e+len(formulaEndMarker):]
	}
	return result.String()
}

// writeMathSpan glyph-substitutes a formula body and writes it wrapped as
// inline or display math. Empty bodies write nothing; bodies that already
// carry delimiters are written unwrapped.
func writeMathSpan(result *strings.Builder, body string) {
	// Collapse the multi-line form onto one line.
	body = strings.Join(strings.Fields(body), " ")
	if body == "" {
		return
	}
	latex := SubstituteGlyphs(body)
	out := latex
	if !alreadyDelimited(latex) {
		if displayMath(latex) {
			out = "$$" + latex + "$$"
		} else {
			out = "$" + latex + "$"
		}
	}
	// Keep adjacent spans from fusing their delimiters.
	if s := result.String(); strings.HasSuffix(s, "$") && strings.HasPrefix(out, "$") {
		result.WriteByte(' ')
	}
	result.WriteString(out)
}

// alreadyDelimited reports whether a fragment is wrapped in $ or $$ pairs.
func alreadyDelimited(s string) bool {
	if len(s) >= 4 && strings.HasPrefix(s, "$$") && strings.HasSuffix(s, "$$") {
		return true
	}
	return len(s) >= 2 && strings.HasPrefix(s, "$") && strings.HasSuffix(s, "$")
}

// displayMath decides display versus inline wrapping: large operators,
// fractions, and top-level equations read as displayed formulas.
func displayMath(latex string) bool {
	for _, cmd := range []string{`\sum`, `\prod`, `\int`, `\frac`} {
		if strings.Contains(latex, cmd) {
			return true
		}
	}
	// A bare "=" outside braces marks an equation.
	depth := 0
	for _, r := range latex {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '=':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// ---- Unmarked equation lines ----

// convertBareFormulaLines converts lines the extractors failed to mark:
// short, CJK-free lines dense in math glyphs with an equals sign. Lines that
// already contain math delimiters or marker tokens are never touched.
func convertBareFormulaLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.ContainsRune(trimmed, '$') ||
			strings.ContainsRune(trimmed, '|') || strings.HasPrefix(trimmed, "[") {
			continue
		}
		if !bareFormulaLine(trimmed) {
			continue
		}
		latex := SubstituteGlyphs(trimmed)
		if displayMath(latex) {
			lines[i] = "$$" + latex + "$$"
		} else {
			lines[i] = "$" + latex + "$"
		}
	}
	return strings.Join(lines, "\n")
}

// bareFormulaLine holds the confidence heuristic: two or more recognized
// glyphs, or one glyph on a short equation line, and no CJK text.
func bareFormulaLine(trimmed string) bool {
	if !strings.ContainsRune(trimmed, '=') {
		return false
	}
	glyphs := 0
	for _, r := range trimmed {
		if unicode.Is(unicode.Han, r) {
			return false
		}
		if IsMathGlyph(r) {
			glyphs++
		}
	}
	if glyphs >= 2 {
		return true
	}
	return glyphs == 1 && len([]rune(trimmed)) <= 60
}

// ---- Delimiter cleanup ----

// cleanupMathDelimiters collapses delimiter junk carried in from the input:
// runs of three or more dollar signs shrink to one display pair, and
// whitespace-only inline spans vanish. Text produced by the converters above
// never trips these rules, which keeps the whole pass idempotent.
func cleanupMathDelimiters(text string) string {
	var result strings.Builder
	result.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '$' {
			result.WriteRune(runes[i])
			continue
		}
		j := i
		for j < len(runes) && runes[j] == '$' {
			j++
		}
		run := j - i
		if run >= 3 {
			result.WriteString("$$")
			i = j - 1
			continue
		}
		if run == 1 {
			// Drop "$   $" spans that enclose nothing.
			k := j
			for k < len(runes) && (runes[k] == ' ' || runes[k] == '\t') {
				k++
			}
			if k < len(runes) && runes[k] == '$' && k > j {
				i = k
				continue
			}
		}
		result.WriteString(strings.Repeat("$", run))
		i = j - 1
	}
	return result.String()
}
