package thesisaf

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkBudget is the maximum chunk size in characters. Documents
// under the budget form a single chunk.
const DefaultChunkBudget = 45000

// UnitKind classifies one top-level logical unit of a document. Chunk
// boundaries fall only between units.
type UnitKind int

const (
	UnitHeader UnitKind = iota // cover/front matter before the first recognized heading
	UnitAbstract
	UnitSection
	UnitReferences
	UnitAcknowledgements
)

// DocumentUnit is one scanned top-level unit: the heading line (if any) plus
// everything up to the next unit boundary.
type DocumentUnit struct {
	Kind  UnitKind
	Title string // heading line text, empty for the header unit
	Level int    // heading level for section units, 0 otherwise
	Text  string // full unit text including the heading line
}

var (
	// chapterHeadingRe matches Chinese chapter headings (第一章, 第2章).
	chapterHeadingRe = regexp.MustCompile(`^第[0-9一二三四五六七八九十百]+章\b?`)

	// numberedHeadingRe matches dotted numeric headings (1.1, 2.3.1) with a
	// title after the number.
	numberedHeadingRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)*)[.、]?\s+\S`)

	// abstractHeadingRe matches the Chinese and English abstract headings,
	// alone on a line, optionally with full-width padding.
	abstractHeadingRe = regexp.MustCompile(`^(?:摘\s*　?要|ABSTRACT|Abstract)\s*$`)

	referencesHeadingRe = regexp.MustCompile(`^(?:参\s*考\s*文\s*献|References?|REFERENCES?)\s*$`)

	acknowledgementsHeadingRe = regexp.MustCompile(`^(?:致\s*　?谢|Acknowledgements?|ACKNOWLEDGEMENTS?)\s*$`)
)

// maxHeadingLen bounds how long a line may be and still count as a heading.
// Body lines that happen to start with a number run well past this.
const maxHeadingLen = 80

// classifyHeading decides whether a line opens a new top-level unit.
func classifyHeading(line string) (kind UnitKind, level int, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len([]rune(trimmed)) > maxHeadingLen {
		return 0, 0, false
	}
	switch {
	case abstractHeadingRe.MatchString(trimmed):
		return UnitAbstract, 1, true
	case referencesHeadingRe.MatchString(trimmed):
		return UnitReferences, 1, true
	case acknowledgementsHeadingRe.MatchString(trimmed):
		return UnitAcknowledgements, 1, true
	case chapterHeadingRe.MatchString(trimmed):
		return UnitSection, 1, true
	}
	if m := numberedHeadingRe.FindStringSubmatch(trimmed); m != nil {
		level := strings.Count(m[1], ".") + 1
		if level > 3 {
			level = 3
		}
		return UnitSection, level, true
	}
	return 0, 0, false
}

// ScanUnits partitions document text into top-level units in document order.
// Everything before the first recognized heading forms the header unit;
// sub-headings (level 2-3) stay inside their enclosing level-1 unit so a
// section's content is never divided.
func ScanUnits(text string) []DocumentUnit {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	var units []DocumentUnit
	var cur []string
	curUnit := DocumentUnit{Kind: UnitHeader}

	flush := func() {
		body := strings.TrimRight(strings.Join(cur, "\n"), "\n")
		if strings.TrimSpace(body) != "" {
			curUnit.Text = body
			units = append(units, curUnit)
		}
		cur = cur[:0]
	}

	for _, line := range lines {
		if kind, level, ok := classifyHeading(line); ok && level == 1 {
			flush()
			curUnit = DocumentUnit{Kind: kind, Title: strings.TrimSpace(line), Level: level}
		}
		cur = append(cur, line)
	}
	flush()
	return units
}

// SplitDocument partitions a document into ordered chunks of at most budget
// characters, with boundaries only between top-level units. budget <= 0 uses
// DefaultChunkBudget. Chunk 0 carries the header and is the only chunk asked
// for metadata; a single unit over the budget becomes one oversized chunk.
// Empty input yields zero chunks.
func SplitDocument(text string, budget int) []Chunk {
	if budget <= 0 {
		budget = DefaultChunkBudget
	}
	units := ScanUnits(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []Chunk
	var pending []DocumentUnit
	size := 0

	flush := func() {
		if len(pending) == 0 {
			return
		}
		texts := make([]string, len(pending))
		for i, u := range pending {
			texts[i] = u.Text
		}
		// Joining normalizes inter-unit spacing to one blank line; chunk text
		// covers the source span but is not byte-identical to it.
		c := Chunk{
			Index: len(chunks),
			Text:  strings.Join(texts, "\n\n"),
			Units: pending,
		}
		for _, u := range pending {
			switch u.Kind {
			case UnitAbstract:
				c.HasAbstract = true
			case UnitReferences:
				c.HasReferences = true
			case UnitAcknowledgements:
				c.HasAcknowledgements = true
			}
		}
		chunks = append(chunks, c)
		pending = nil
		size = 0
	}

	for _, u := range units {
		// The budget counts characters, not bytes: CJK body text runs three
		// bytes per rune and would split far too early otherwise.
		n := utf8.RuneCountInString(u.Text)
		if len(pending) > 0 && size+n+2 > budget {
			flush()
		}
		pending = append(pending, u)
		size += n + 2
	}
	flush()

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	// The header unit, when present, is always the first unit, so the
	// metadata request always lands on chunk 0.
	chunks[0].WantMetadata = true
	return chunks
}
