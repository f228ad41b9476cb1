package thesisaf

import (
	"strings"
	"testing"
)

func TestNormalizeFigures_ManifestGatesConversion(t *testing.T) {
	manifest := NewFigureManifest([]FigureAsset{
		{ID: "docximg1", Filename: "docximg1.png"},
	})
	text := "[FIGURE:docximg1]\n正文\n[FIGURE:docximg2]"
	got := NormalizeFigures(text, manifest)

	if !strings.Contains(got, `\includegraphics[width=0.8\textwidth]{docximg1.png}`) {
		t.Errorf("known placeholder not converted:\n%s", got)
	}
	if !strings.Contains(got, "[FIGURE:docximg2]") {
		t.Errorf("unknown placeholder docximg2 was not left literal:\n%s", got)
	}
	if strings.Contains(got, "[FIGURE:docximg1]") {
		t.Errorf("known placeholder left behind:\n%s", got)
	}
}

func TestNormalizeFigures_FailureVariantsStayLiteral(t *testing.T) {
	manifest := NewFigureManifest([]FigureAsset{
		{ID: "pdfimg1", Filename: "pdfimg1.png"},
	})
	for _, text := range []string{
		"[FIGURE:pdfimg1:extraction_failed]",
		"[FIGURE:pdfimg1:no_xref]",
	} {
		if got := NormalizeFigures(text, manifest); got != text {
			t.Errorf("NormalizeFigures(%q) = %q, want unchanged", text, got)
		}
	}
}

func TestNormalizeFigures_CaptionPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		assets  []FigureAsset
		text    string
		caption string
	}{
		{
			name:    "manifest label wins",
			assets:  []FigureAsset{{ID: "a", Filename: "a.png", Label: "系统架构图"}},
			text:    "[FIGURE:a]\n图1-1 被忽略的行",
			caption: `\caption{系统架构图}`,
		},
		{
			name:    "adjacent caption line claimed",
			assets:  []FigureAsset{{ID: "a", Filename: "a.png"}},
			text:    "[FIGURE:a]\n图2-1 研究框架图",
			caption: `\caption{图2-1 研究框架图}`,
		},
		{
			name:    "english caption line claimed",
			assets:  []FigureAsset{{ID: "a", Filename: "a.png"}},
			text:    "[FIGURE:a]\nFigure 3.2 Architecture overview",
			caption: `\caption{Figure 3.2 Architecture overview}`,
		},
		{
			name:    "synthesized from index",
			assets:  []FigureAsset{{ID: "a", Filename: "a.png"}},
			text:    "[FIGURE:a]\n普通正文行。",
			caption: `\caption{图 1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFigures(tt.text, NewFigureManifest(tt.assets))
			if !strings.Contains(got, tt.caption) {
				t.Errorf("NormalizeFigures() = %q, want caption %q", got, tt.caption)
			}
		})
	}
}

func TestNormalizeFigures_ClaimedCaptionNotDuplicated(t *testing.T) {
	manifest := NewFigureManifest([]FigureAsset{{ID: "a", Filename: "a.png"}})
	got := NormalizeFigures("[FIGURE:a]\n图2-1 研究框架图\n后续正文", manifest)
	if strings.Count(got, "图2-1 研究框架图") != 1 {
		t.Errorf("claimed caption appears more than once:\n%s", got)
	}
	if !strings.Contains(got, "后续正文") {
		t.Errorf("line after the caption was lost:\n%s", got)
	}
}

func TestNormalizeFigures_LegacyPlaceholders(t *testing.T) {
	manifest := NewFigureManifest([]FigureAsset{
		{ID: "docximg1", Filename: "docximg1.png"},
		{ID: "docximg2", Filename: "docximg2.png"},
	})
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "img placeholder resolves by index",
			text: "{%img_2%}",
			want: `\label{fig:docximg2}`,
		},
		{
			name: "media placeholder resolves by index",
			text: "{%media_1%}",
			want: `\label{fig:docximg1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFigures(tt.text, manifest)
			if !strings.Contains(got, tt.want) {
				t.Errorf("NormalizeFigures(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}

	for _, literal := range []string{"{%img_9%}", "{%table_1%}"} {
		if got := NormalizeFigures(literal, manifest); got != literal {
			t.Errorf("NormalizeFigures(%q) = %q, want unchanged", literal, got)
		}
	}
}

func TestNormalizeFigures_NilOrEmptyManifest(t *testing.T) {
	text := "[FIGURE:pdfimg1]"
	if got := NormalizeFigures(text, nil); got != text {
		t.Errorf("NormalizeFigures(nil manifest) = %q, want unchanged", got)
	}
	if got := NormalizeFigures(text, NewFigureManifest(nil)); got != text {
		t.Errorf("NormalizeFigures(empty manifest) = %q, want unchanged", got)
	}
}
