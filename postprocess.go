package thesisaf

import "strings"

// ---- Content post-processing ----

// PostProcess runs the deterministic normalization stages over one text
// block in fixed order: formulas, tables, figures, inline Markdown, then
// LaTeX escaping of bare specials. The order matters: each later stage
// leaves the previous stage's output alone (tables and figures skip math
// spans by construction, the escape pass skips math and generated
// environments), so no stage reworks another's result.
func PostProcess(text string, manifest *FigureManifest) string {
	if text == "" {
		return text
	}
	text = NormalizeFormulas(text)
	text = NormalizeTables(text)
	text = NormalizeFigures(text, manifest)
	text = MarkdownToLaTeX(text)
	return escapeSpecialsOutsideMath(text)
}

// PostProcessRecord applies PostProcess to every free-text block of a chunk
// record: section bodies, the abstracts, references, and acknowledgements.
// Keywords and metadata fields are short labels and stay untouched.
func PostProcessRecord(rec *StructuredRecord, manifest *FigureManifest) {
	if rec == nil {
		return
	}
	for i := range rec.Sections {
		rec.Sections[i].Content = PostProcess(rec.Sections[i].Content, manifest)
	}
	rec.Abstract = PostProcess(rec.Abstract, manifest)
	rec.AbstractEn = PostProcess(rec.AbstractEn, manifest)
	rec.References = PostProcess(rec.References, manifest)
	rec.Acknowledgements = PostProcess(rec.Acknowledgements, manifest)
}

// escapeSpecialsOutsideMath escapes the bare LaTeX specials % & # _ that
// appear in prose. Math spans, begin/end environments, and characters
// already behind a backslash are copied verbatim, which keeps the pass from
// re-escaping its own output or breaking tables and figure blocks assembled
// by the earlier stages.
func escapeSpecialsOutsideMath(text string) string {
	if !strings.ContainsAny(text, "%&#_") {
		return text
	}
	runes := []rune(text)
	var result strings.Builder
	result.Grow(len(text) + 16)

	inMath := false
	envDepth := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' {
			switch {
			case runeSliceHasPrefix(runes[i+1:], `begin{`):
				envDepth++
			case runeSliceHasPrefix(runes[i+1:], `end{`):
				if envDepth > 0 {
					envDepth--
				}
			}
			// Copy the backslash with its next rune so escaped specials and
			// command starts pass through untouched.
			result.WriteRune(r)
			if i+1 < len(runes) {
				i++
				result.WriteRune(runes[i])
			}
			continue
		}

		if r == '$' {
			// A $$ pair is one display delimiter, not two toggles.
			j := i
			for j < len(runes) && runes[j] == '$' {
				result.WriteRune('$')
				j++
			}
			inMath = !inMath
			i = j - 1
			continue
		}

		if !inMath && envDepth == 0 {
			switch r {
			case '%', '&', '#', '_':
				result.WriteRune('\\')
			}
		}
		result.WriteRune(r)
	}
	return result.String()
}

func runeSliceHasPrefix(runes []rune, prefix string) bool {
	for _, p := range prefix {
		if len(runes) == 0 || runes[0] != p {
			return false
		}
		runes = runes[1:]
	}
	return true
}
