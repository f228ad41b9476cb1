package thesisaf

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ---- Extracted-text cleanup ----

// CleanExtractedText runs the deterministic cleanup pre-pass over raw
// extractor output before splitting: line endings are normalized, Unicode is
// composed to NFC, invisible characters are stripped, and box-drawing
// artifacts from PDF extraction are blanked. The pass never touches marker
// tokens or content characters.
func CleanExtractedText(text string) string {
	if text == "" {
		return text
	}
	text = normalizeLineEndings(text)
	text = norm.NFC.String(text)
	text = stripInvisibleChars(text)
	text = cleanBoxDrawingChars(text)
	return text
}

// normalizeLineEndings rewrites CRLF and bare CR to LF.
func normalizeLineEndings(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// stripInvisibleChars removes zero-width and invisible control characters
// that break marker matching and heading recognition.
func stripInvisibleChars(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '­', // soft hyphen
			'​', // zero-width space
			'‌', // zero-width non-joiner
			'‍', // zero-width joiner
			'‎', // left-to-right mark
			'‏', // right-to-left mark
			'\ufeff', // zero-width no-break space (BOM)
			'⁠', // word joiner
			'⁡', // function application
			'⁢', // invisible times
			'⁣', // invisible separator
			'⁤', // invisible plus
			'͏': // combining grapheme joiner
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// cleanBoxDrawingChars blanks box drawing and control picture characters
// carried in from PDF forms and ruled layouts, collapsing each run to a
// single space.
func cleanBoxDrawingChars(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	prevSpace := false
	for _, r := range text {
		if (r >= 0x2500 && r <= 0x257F) || (r >= 0x2400 && r <= 0x243F) ||
			r == '⎪' || r == '⏐' {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = r == ' '
		result.WriteRune(r)
	}
	return result.String()
}
