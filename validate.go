package thesisaf

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrMalformedResponse reports a model response with no parseable JSON
// object. Treated like a transient call failure by the extractor.
var ErrMalformedResponse = errors.New("no JSON object in model response")

var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeFence removes a surrounding Markdown code fence, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// extractJSONObject returns the first balanced {...} span in s. Models wrap
// JSON in prose often enough that a prefix check is not sufficient; the scan
// counts braces and is string- and escape-aware so braces inside field
// values do not end the span early.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseRecordJSON parses one model response into a validated chunk record.
// Fast path assumes the trimmed response is the JSON object itself; the
// fallback digs the first balanced object out of surrounding prose.
func ParseRecordJSON(raw string) (*StructuredRecord, error) {
	text := stripCodeFence(raw)

	var rec StructuredRecord
	if strings.HasPrefix(text, "{") {
		if err := sonic.UnmarshalString(text, &rec); err == nil {
			validateRecord(&rec)
			return &rec, nil
		}
	}

	span, ok := extractJSONObject(text)
	if !ok {
		return nil, ErrMalformedResponse
	}
	rec = StructuredRecord{}
	if err := sonic.UnmarshalString(span, &rec); err != nil {
		return nil, fmt.Errorf("parsing record JSON: %w", err)
	}
	validateRecord(&rec)
	return &rec, nil
}

// validateRecord normalizes a freshly parsed chunk record in place: text
// fields are trimmed, out-of-range section levels become 1, contentless
// sections and identifier-less figures are dropped, and an all-empty
// metadata object becomes nil so merging can tell "no metadata here" from
// empty fields.
func validateRecord(rec *StructuredRecord) {
	if rec.Metadata != nil {
		m := rec.Metadata
		m.Title = strings.TrimSpace(m.Title)
		m.TitleEn = strings.TrimSpace(m.TitleEn)
		m.AuthorName = strings.TrimSpace(m.AuthorName)
		m.StudentID = strings.TrimSpace(m.StudentID)
		m.School = strings.TrimSpace(m.School)
		m.Major = strings.TrimSpace(m.Major)
		m.Supervisor = strings.TrimSpace(m.Supervisor)
		m.Date = strings.TrimSpace(m.Date)
		if m.IsEmpty() {
			rec.Metadata = nil
		}
	}

	rec.Abstract = strings.TrimSpace(rec.Abstract)
	rec.AbstractEn = strings.TrimSpace(rec.AbstractEn)
	rec.Keywords = strings.TrimSpace(rec.Keywords)
	rec.KeywordsEn = strings.TrimSpace(rec.KeywordsEn)
	rec.References = strings.TrimSpace(rec.References)
	rec.Acknowledgements = strings.TrimSpace(rec.Acknowledgements)

	sections := rec.Sections[:0]
	for _, s := range rec.Sections {
		s.Title = strings.TrimSpace(s.Title)
		s.Content = strings.TrimSpace(s.Content)
		if s.Title == "" && s.Content == "" {
			continue
		}
		if s.Level < 1 || s.Level > 3 {
			s.Level = 1
		}
		sections = append(sections, s)
	}
	rec.Sections = sections

	figures := rec.Figures[:0]
	for _, f := range rec.Figures {
		f.ID = strings.TrimSpace(f.ID)
		if f.ID == "" {
			continue
		}
		figures = append(figures, f)
	}
	if len(figures) == 0 {
		rec.Figures = nil
	} else {
		rec.Figures = figures
	}
}
