package thesisaf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// figureMarkerRe matches bare [FIGURE:id] placeholders. Suffixed failure
	// variants such as [FIGURE:id:extraction_failed] do not match and stay
	// literal, keeping missing assets visible downstream.
	figureMarkerRe = regexp.MustCompile(`\[FIGURE:([A-Za-z0-9_-]+)\]`)

	// legacyImageRe matches the older DOCX extractor placeholders, which
	// reference figures by 1-based position instead of identifier.
	legacyImageRe = regexp.MustCompile(`\{%(?:img|media)_([0-9]+)%\}`)

	// captionLineRe matches figure caption lines near a placeholder, in
	// either Chinese (图2-1 ...) or English (Figure 3.2 ...) numbering.
	captionLineRe = regexp.MustCompile(`^(图\s*[0-9]+(?:[-.][0-9]+)?|Figure\s*[0-9]+(?:[-.][0-9]+)?|Fig\.?\s*[0-9]+(?:[-.][0-9]+)?)`)
)

// NormalizeFigures replaces recognized figure placeholders with LaTeX figure
// blocks bound to manifest assets. Placeholders whose identifier is absent
// from the manifest are left as literal text, never dropped. With a caption
// taken from the asset label, from an adjacent caption line, or synthesized
// from the asset index, in that order.
func NormalizeFigures(text string, manifest *FigureManifest) string {
	if text == "" || manifest.Len() == 0 {
		return text
	}
	text = resolveLegacyPlaceholders(text, manifest)
	if !strings.Contains(text, "[FIGURE:") {
		return text
	}

	lines := strings.Split(text, "\n")
	consumed := make(map[int]bool)
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if consumed[i] {
			continue
		}
		if !strings.Contains(line, "[FIGURE:") {
			out = append(out, line)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if m := figureMarkerRe.FindStringSubmatch(trimmed); m != nil && m[0] == trimmed {
			// The extractors put each placeholder on its own line; that is
			// the one position where an adjacent caption can be claimed.
			asset, ok := manifest.Lookup(m[1])
			if !ok {
				out = append(out, line)
				continue
			}
			caption := asset.Label
			if caption == "" {
				if c, at := adjacentCaption(lines, i); at >= 0 {
					caption = c
					consumed[at] = true
				}
			}
			if caption == "" {
				caption = "图 " + strconv.Itoa(asset.Index)
			}
			out = append(out, figureBlock(asset, caption))
			continue
		}

		// Placeholder embedded mid-line: replace in place, captions from
		// label or index only.
		out = append(out, figureMarkerRe.ReplaceAllStringFunc(line, func(marker string) string {
			id := figureMarkerRe.FindStringSubmatch(marker)[1]
			asset, ok := manifest.Lookup(id)
			if !ok {
				return marker
			}
			caption := asset.Label
			if caption == "" {
				caption = "图 " + strconv.Itoa(asset.Index)
			}
			return figureBlock(asset, caption)
		}))
	}
	return strings.Join(out, "\n")
}

// resolveLegacyPlaceholders translates {%img_N%} and {%media_N%} tokens into
// [FIGURE:id] markers by looking up the manifest index. Unknown indices stay
// literal; {%table_N%} tokens are not figures and pass through.
func resolveLegacyPlaceholders(text string, manifest *FigureManifest) string {
	if !strings.Contains(text, "{%") {
		return text
	}
	return legacyImageRe.ReplaceAllStringFunc(text, func(token string) string {
		n, err := strconv.Atoi(legacyImageRe.FindStringSubmatch(token)[1])
		if err != nil {
			return token
		}
		asset, ok := manifest.ByIndex(n)
		if !ok {
			return token
		}
		return "[FIGURE:" + asset.ID + "]"
	})
}

// adjacentCaption scans up to two lines below a placeholder for a caption
// line. Returns the caption and its line index, or -1 when none is found.
func adjacentCaption(lines []string, at int) (string, int) {
	for j := at + 1; j <= at+2 && j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		if captionLineRe.MatchString(trimmed) {
			return trimmed, j
		}
		break
	}
	return "", -1
}

// figureBlock renders one LaTeX figure environment for a manifest asset.
func figureBlock(asset FigureAsset, caption string) string {
	name := asset.Filename
	if name == "" {
		name = asset.ID
	}
	var b strings.Builder
	b.WriteString("\\begin{figure}[htbp]\n\\centering\n")
	fmt.Fprintf(&b, "\\includegraphics[width=0.8\\textwidth]{%s}\n", name)
	fmt.Fprintf(&b, "\\caption{%s}\n", EscapeLaTeX(caption))
	fmt.Fprintf(&b, "\\label{fig:%s}\n", asset.ID)
	b.WriteString("\\end{figure}")
	return b.String()
}
