package thesisaf

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// scriptedPipelineCaller answers per chunk with canned records so the full
// pipeline can run without a model.
type scriptedPipelineCaller struct {
	byPart map[int]string
}

func (c *scriptedPipelineCaller) Call(_ context.Context, prompt string, _ *CallOptions) (string, error) {
	for part, resp := range c.byPart {
		if strings.Contains(prompt, fmt.Sprintf("Part %d of", part)) {
			return resp, nil
		}
	}
	return "", fmt.Errorf("unscripted prompt: %s", truncate(prompt, 80))
}

func (c *scriptedPipelineCaller) Close() error { return nil }

func TestPipelineRun_TwoChunkEndToEnd(t *testing.T) {
	// Budget small enough to force the header+intro and conclusion+references
	// into separate chunks.
	doc := "论文题目：测试\n作者：张三\n\n" +
		"第一章 Intro\n\n" + strings.Repeat("引言内容。", 30) + "\n\n" +
		"第二章 Conclusion\n\n" + strings.Repeat("结论内容。", 30) + "\n\n" +
		"参考文献\n\n[1] 某文献"

	caller := &scriptedPipelineCaller{byPart: map[int]string{
		1: `{"metadata": {"title": "测试", "author_name": "张三"},
			"sections": [{"title": "Intro", "content": "引言", "level": 1}]}`,
		2: `{"sections": [{"title": "Conclusion", "content": "结论", "level": 1}],
			"references": "[1] 某文献"}`,
	}}

	// In characters: header+chapter one ≈ 180, chapter two+references ≈ 185,
	// so a 200-char budget splits between the chapters.
	p, err := NewPipeline(PipelineConfig{ChunkBudget: 200}, caller, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	report, err := p.Run(context.Background(), DocumentInput{Text: doc, TemplateID: "njuthesis"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("Failed = %+v, want none", report.Failed)
	}

	rec := report.Record
	want := []string{"Intro", "Conclusion"}
	if len(rec.Sections) != len(want) {
		t.Fatalf("Sections = %+v, want %v", rec.Sections, want)
	}
	for i := range want {
		if rec.Sections[i].Title != want[i] {
			t.Errorf("section %d = %q, want %q", i, rec.Sections[i].Title, want[i])
		}
	}
	if rec.Metadata.IsEmpty() {
		t.Error("merged record has no metadata")
	}
	if rec.References == "" {
		t.Error("merged record has no references")
	}
}

func TestPipelineRun_EmptyDocument(t *testing.T) {
	caller := &scriptedPipelineCaller{} // any call would fail the test
	p, err := NewPipeline(PipelineConfig{}, caller, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	report, err := p.Run(context.Background(), DocumentInput{Text: "  \n  "})
	if err != nil {
		t.Fatalf("Run() error: %v, want empty-but-valid success", err)
	}
	if report.Record == nil || len(report.Record.Sections) != 0 {
		t.Errorf("Record = %+v, want empty valid record", report.Record)
	}
}

func TestPipelineRun_ManifestFiguresAttached(t *testing.T) {
	manifest := NewFigureManifest([]FigureAsset{
		{ID: "pdfimg1", Filename: "pdfimg1.png"},
	})
	caller := &scriptedPipelineCaller{byPart: map[int]string{
		1: `{"sections": [{"title": "A", "content": "[FIGURE:pdfimg1]"}]}`,
	}}
	p, err := NewPipeline(PipelineConfig{}, caller, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	report, err := p.Run(context.Background(), DocumentInput{
		Text:     "第一章 图\n\n[FIGURE:pdfimg1]",
		Manifest: manifest,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	rec := report.Record
	if len(rec.Figures) != 1 || rec.Figures[0].ID != "pdfimg1" {
		t.Errorf("Figures = %+v, want the manifest entry", rec.Figures)
	}
	if !strings.Contains(rec.Sections[0].Content, `\includegraphics`) {
		t.Errorf("figure placeholder not normalized: %q", rec.Sections[0].Content)
	}
}
