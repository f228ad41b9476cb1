package thesisaf

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// latexEscaper rewrites LaTeX special characters in plain text. Single pass,
// so already-escaped output is not re-escaped within one call.
var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// EscapeLaTeX escapes LaTeX special characters in a plain-text fragment.
// Used at assembly points (table cells, figure captions, emphasis bodies),
// never as a blanket pass over normalized text.
func EscapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}

// spanReplacement is one byte range of the source slated for rewriting.
type spanReplacement struct {
	start, stop int
	repl        string
}

// MarkdownToLaTeX converts the inline Markdown constructs models habitually
// emit inside section content: **strong** to \textbf, *emphasis* to \emph,
// and `code` to \texttt. Everything else, math spans included, passes
// through byte for byte. Parsing uses goldmark and replacements are applied
// only at spans whose markers verify against the source, so running it on
// its own output changes nothing.
func MarkdownToLaTeX(content string) string {
	if content == "" || !strings.ContainsAny(content, "*_`") {
		return content
	}
	src := []byte(content)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var spans []spanReplacement
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Emphasis:
			if sp, ok := emphasisSpan(src, node); ok {
				spans = append(spans, sp)
			}
		case *ast.CodeSpan:
			if sp, ok := codeSpan(src, node); ok {
				spans = append(spans, sp)
			}
		}
		return ast.WalkContinue, nil
	})
	if len(spans) == 0 {
		return content
	}

	// Keep outermost spans only; nested markdown inside a converted span
	// stays literal rather than risking overlapping rewrites.
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].stop > spans[j].stop
	})
	kept := spans[:0]
	lastStop := -1
	for _, sp := range spans {
		if sp.start < lastStop {
			continue
		}
		kept = append(kept, sp)
		lastStop = sp.stop
	}

	var b strings.Builder
	b.Grow(len(content))
	pos := 0
	for _, sp := range kept {
		b.Write(src[pos:sp.start])
		b.WriteString(sp.repl)
		pos = sp.stop
	}
	b.Write(src[pos:])
	return b.String()
}

// emphasisSpan locates an emphasis node's full source range, markers
// included, and builds its LaTeX replacement. Spans touching math text or
// with markers that do not verify are rejected.
func emphasisSpan(src []byte, node *ast.Emphasis) (spanReplacement, bool) {
	first, last, ok := textExtent(node)
	if !ok {
		return spanReplacement{}, false
	}
	level := node.Level
	start := first - level
	stop := last + level
	if start < 0 || stop > len(src) {
		return spanReplacement{}, false
	}
	for i := 0; i < level; i++ {
		if !emphasisMarker(src[start+i]) || !emphasisMarker(src[stop-1-i]) {
			return spanReplacement{}, false
		}
	}
	inner := string(src[first:last])
	if strings.ContainsRune(inner, '$') {
		return spanReplacement{}, false
	}
	cmd := `\emph`
	if level >= 2 {
		cmd = `\textbf`
	}
	return spanReplacement{start: start, stop: stop, repl: cmd + "{" + EscapeLaTeX(inner) + "}"}, true
}

// codeSpan locates a single-backtick code span and builds its \texttt
// replacement.
func codeSpan(src []byte, node *ast.CodeSpan) (spanReplacement, bool) {
	first, last, ok := textExtent(node)
	if !ok {
		return spanReplacement{}, false
	}
	start := first - 1
	stop := last + 1
	if start < 0 || stop > len(src) || src[start] != '`' || src[stop-1] != '`' {
		return spanReplacement{}, false
	}
	inner := string(src[first:last])
	if strings.ContainsRune(inner, '$') {
		return spanReplacement{}, false
	}
	return spanReplacement{start: start, stop: stop, repl: `\texttt{` + EscapeLaTeX(inner) + `}`}, true
}

func emphasisMarker(b byte) bool {
	return b == '*' || b == '_'
}

// textExtent returns the byte range covered by a node's text descendants.
func textExtent(n ast.Node) (start, stop int, ok bool) {
	start, stop = -1, -1
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, isText := child.(*ast.Text); isText {
			if start < 0 {
				start = t.Segment.Start
			}
			stop = t.Segment.Stop
		}
		return ast.WalkContinue, nil
	})
	return start, stop, start >= 0 && stop > start
}
