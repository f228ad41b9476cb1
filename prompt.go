package thesisaf

import (
	"fmt"
	"strings"
)

// extractionPrompt is the fixed instruction head shared by every chunk.
const extractionPrompt = `You are extracting the structure of one part of an academic thesis from raw text produced by a format-specific extractor. Return ONE JSON object with these fields:

- "sections": array of {"title": string, "content": string, "level": 1|2|3}, in the order the sections appear in the text
- "abstract": Chinese abstract text if this part contains one, else omit
- "abstract_en": English abstract text if this part contains one, else omit
- "keywords": Chinese keywords line if present, else omit
- "keywords_en": English keywords line if present, else omit
- "references": the references/bibliography text verbatim if this part contains it, else omit
- "acknowledgements": the acknowledgements text if this part contains it, else omit

Rules:
- Keep section content verbatim, including [FORMULA], [TABLE], [CELL] and [FIGURE:...] marker tokens. Do not convert, repair or reflow them.
- level 1 is a chapter, level 2 a section, level 3 a subsection.
- Do not invent sections; a heading with no body gets an empty "content".
- Do not include the abstract, references or acknowledgements inside "sections".

Respond with ONLY the JSON object, no other text.`

// metadataPrompt is appended only for the chunk that carries the document
// header.
const metadataPrompt = `
This part contains the document's cover/header. Also return:

- "metadata": {"title", "title_en", "author_name", "student_id", "school", "major", "supervisor", "date"} — all strings; omit fields you cannot find. If no header information exists, omit "metadata" entirely.`

// conversionExamples shows the model what the marker tokens look like so it
// preserves them verbatim instead of guessing at repairs.
const conversionExamples = `
Marker examples (copy such spans through unchanged):
- Fragmented formula: [FORMULA]L = -∑ᵢ yᵢ log(pᵢ)[/FORMULA]
- Marker table: [TABLE][CELL]模型[CELL]准确率[CELL]ResNet-50[CELL]76.0[/TABLE]
- Figure placeholder: [FIGURE:pdfimg1]`

// BuildChunkPrompt renders the extraction instruction for one chunk.
// Deterministic: identical inputs always produce an identical string.
func BuildChunkPrompt(c Chunk, manifest *FigureManifest, requiredFields []string) string {
	var sb strings.Builder
	sb.Grow(len(extractionPrompt) + len(c.Text) + 512)
	sb.WriteString(extractionPrompt)

	if c.WantMetadata {
		sb.WriteString(metadataPrompt)
		if len(requiredFields) > 0 {
			sb.WriteString("\nMandatory fields for this template (extract even if you must take them from running heads or the title page): ")
			sb.WriteString(strings.Join(requiredFields, ", "))
			sb.WriteString(".")
		}
	}

	if ids := manifest.IDs(); len(ids) > 0 {
		sb.WriteString("\n\nKnown figure identifiers for this document: ")
		sb.WriteString(strings.Join(ids, ", "))
		sb.WriteString(". [FIGURE:...] placeholders use exactly these identifiers; NEVER invent an identifier that is not in this list.")
	}

	sb.WriteString("\n")
	sb.WriteString(conversionExamples)

	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Part %d of %d\n", c.Index+1, c.Total))
	sb.WriteString("---\n")
	sb.WriteString(c.Text)
	return sb.String()
}
