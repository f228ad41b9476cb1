package thesisaf

import (
	"testing"
)

func TestParseRecordJSON_FastPath(t *testing.T) {
	raw := `{"sections": [{"title": "绪论", "content": "正文", "level": 1}], "abstract": "摘要内容"}`
	rec, err := ParseRecordJSON(raw)
	if err != nil {
		t.Fatalf("ParseRecordJSON() error: %v", err)
	}
	if len(rec.Sections) != 1 || rec.Sections[0].Title != "绪论" {
		t.Errorf("Sections = %+v, want one section 绪论", rec.Sections)
	}
	if rec.Abstract != "摘要内容" {
		t.Errorf("Abstract = %q, want 摘要内容", rec.Abstract)
	}
}

func TestParseRecordJSON_WrappedResponses(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "code fence",
			raw:  "```json\n{\"sections\": [{\"title\": \"A\", \"content\": \"b\"}]}\n```",
		},
		{
			name: "leading prose",
			raw:  `Here is the extracted structure: {"sections": [{"title": "A", "content": "b"}]} Hope this helps!`,
		},
		{
			name: "nested braces in content",
			raw:  `result: {"sections": [{"title": "A", "content": "uses $x^{2}$ and {braces}"}]}`,
		},
		{
			name: "escaped quote and brace in string",
			raw:  `{"sections": [{"title": "A", "content": "say \"hi\" }"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecordJSON(tt.raw)
			if err != nil {
				t.Fatalf("ParseRecordJSON() error: %v", err)
			}
			if len(rec.Sections) != 1 || rec.Sections[0].Title != "A" {
				t.Errorf("Sections = %+v, want one section A", rec.Sections)
			}
		})
	}
}

func TestParseRecordJSON_Malformed(t *testing.T) {
	for _, raw := range []string{"", "no json here", "{never closed", "[1, 2, 3]"} {
		if _, err := ParseRecordJSON(raw); err == nil {
			t.Errorf("ParseRecordJSON(%q) succeeded, want error", raw)
		}
	}
}

func TestValidateRecord_Clamping(t *testing.T) {
	raw := `{
		"metadata": {"title": "  论文题目  "},
		"abstract": "  padded  ",
		"sections": [
			{"title": "好", "content": "内容", "level": 2},
			{"title": "坏层级", "content": "内容", "level": 7},
			{"title": "", "content": "", "level": 1},
			{"title": "", "content": "无标题内容"}
		],
		"figures": [{"id": "pdfimg1", "filename": "a.png"}, {"id": "", "filename": "b.png"}]
	}`
	rec, err := ParseRecordJSON(raw)
	if err != nil {
		t.Fatalf("ParseRecordJSON() error: %v", err)
	}

	if rec.Metadata == nil || rec.Metadata.Title != "论文题目" {
		t.Errorf("Metadata = %+v, want trimmed title", rec.Metadata)
	}
	if rec.Abstract != "padded" {
		t.Errorf("Abstract = %q, want trimmed", rec.Abstract)
	}
	if len(rec.Sections) != 3 {
		t.Fatalf("Sections = %d, want 3 (empty one dropped)", len(rec.Sections))
	}
	if rec.Sections[0].Level != 2 {
		t.Errorf("valid level rewritten to %d", rec.Sections[0].Level)
	}
	if rec.Sections[1].Level != 1 {
		t.Errorf("level 7 clamped to %d, want 1", rec.Sections[1].Level)
	}
	if rec.Sections[2].Level != 1 {
		t.Errorf("missing level defaulted to %d, want 1", rec.Sections[2].Level)
	}
	if len(rec.Figures) != 1 || rec.Figures[0].ID != "pdfimg1" {
		t.Errorf("Figures = %+v, want only pdfimg1", rec.Figures)
	}
}

func TestValidateRecord_EmptyMetadataOmitted(t *testing.T) {
	rec, err := ParseRecordJSON(`{"metadata": {"title": "  "}, "sections": []}`)
	if err != nil {
		t.Fatalf("ParseRecordJSON() error: %v", err)
	}
	if rec.Metadata != nil {
		t.Errorf("Metadata = %+v, want nil for an all-empty object", rec.Metadata)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"prose around", `text {"a": {"b": 2}} tail`, `{"a": {"b": 2}}`, true},
		{"brace in string", `{"a": "}"}`, `{"a": "}"}`, true},
		{"unbalanced", `{"a": 1`, "", false},
		{"no object", "plain text", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractJSONObject(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
