package thesisaf

import (
	"strings"
	"testing"
)

func TestBuildChunkPrompt_Deterministic(t *testing.T) {
	manifest := NewFigureManifest([]FigureAsset{
		{ID: "pdfimg1", Filename: "pdfimg1.png"},
		{ID: "pdfimg2", Filename: "pdfimg2.png"},
	})
	c := Chunk{Index: 0, Total: 2, Text: "第一章 绪论\n\n正文。", WantMetadata: true}
	fields := []string{"metadata.title", "metadata.author_name"}

	a := BuildChunkPrompt(c, manifest, fields)
	b := BuildChunkPrompt(c, manifest, fields)
	if a != b {
		t.Error("BuildChunkPrompt() is not deterministic for identical inputs")
	}
}

func TestBuildChunkPrompt_MetadataOnlyForHeaderChunk(t *testing.T) {
	fields := []string{"metadata.title"}

	header := BuildChunkPrompt(Chunk{Index: 0, Total: 2, Text: "封面", WantMetadata: true}, nil, fields)
	if !strings.Contains(header, `"metadata"`) {
		t.Error("header chunk prompt does not request metadata")
	}
	if !strings.Contains(header, "metadata.title") {
		t.Error("header chunk prompt does not annotate required fields")
	}

	body := BuildChunkPrompt(Chunk{Index: 1, Total: 2, Text: "第二章"}, nil, fields)
	if strings.Contains(body, `"metadata"`) {
		t.Error("body chunk prompt requests metadata")
	}
	if strings.Contains(body, "metadata.title") {
		t.Error("body chunk prompt lists required fields")
	}
}

func TestBuildChunkPrompt_EnumeratesManifestIDs(t *testing.T) {
	manifest := NewFigureManifest([]FigureAsset{
		{ID: "docximg1", Filename: "img1.png"},
		{ID: "docximg2", Filename: "img2.png"},
	})
	got := BuildChunkPrompt(Chunk{Index: 0, Total: 1, Text: "正文"}, manifest, nil)
	if !strings.Contains(got, "docximg1, docximg2") {
		t.Errorf("prompt does not enumerate manifest ids:\n%s", got)
	}
	if !strings.Contains(got, "NEVER invent") {
		t.Error("prompt does not forbid inventing identifiers")
	}

	empty := BuildChunkPrompt(Chunk{Index: 0, Total: 1, Text: "正文"}, nil, nil)
	if strings.Contains(empty, "Known figure identifiers") {
		t.Error("prompt lists figure identifiers for an empty manifest")
	}
}

func TestBuildChunkPrompt_CarriesWorkedExamplesAndText(t *testing.T) {
	c := Chunk{Index: 1, Total: 3, Text: "第三章 实验\n\n内容。"}
	got := BuildChunkPrompt(c, nil, nil)

	for _, want := range []string{
		"[FORMULA]L = -∑ᵢ yᵢ log(pᵢ)[/FORMULA]",
		"[TABLE][CELL]",
		"[FIGURE:pdfimg1]",
		"Part 2 of 3",
		c.Text,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
