package thesisaf

import (
	"fmt"
	"strings"

	"github.com/antflydb/antfly-go/libaf/ai"
	"github.com/bytedance/sonic"
)

// FigureAsset is one figure manifest entry produced by an upstream
// extractor. ID is opaque and preserved verbatim; Index is the 1-based
// position used by legacy {%img_N%} placeholders. Content optionally carries
// the binary payload for the downstream compile step; the extraction core
// itself never reads it.
type FigureAsset struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Index    int       `json:"index,omitempty"`
	Label    string    `json:"label,omitempty"`
	Page     int       `json:"page,omitempty"`
	BBox     []float64 `json:"bbox,omitempty"`

	Content ai.BinaryContent `json:"-"`
}

// FigureManifest is the ordered identifier-to-asset mapping for one
// document. Immutable after construction and safe for concurrent reads.
type FigureManifest struct {
	assets []FigureAsset
	byID   map[string]int
}

// NewFigureManifest builds a manifest from extractor entries. Entries with
// an empty ID are dropped; a missing Index is assigned from position,
// 1-based, to keep legacy placeholder numbering stable.
func NewFigureManifest(assets []FigureAsset) *FigureManifest {
	m := &FigureManifest{byID: make(map[string]int, len(assets))}
	for _, a := range assets {
		if a.ID == "" {
			continue
		}
		if _, dup := m.byID[a.ID]; dup {
			continue
		}
		if a.Index == 0 {
			a.Index = len(m.assets) + 1
		}
		m.byID[a.ID] = len(m.assets)
		m.assets = append(m.assets, a)
	}
	return m
}

// ParseManifestJSON parses an extractor manifest: either a bare entry array
// or an extraction envelope carrying an "images" array.
func ParseManifestJSON(data []byte) (*FigureManifest, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return NewFigureManifest(nil), nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var assets []FigureAsset
		if err := sonic.Unmarshal(data, &assets); err != nil {
			return nil, fmt.Errorf("parsing figure manifest: %w", err)
		}
		return NewFigureManifest(assets), nil
	}
	var envelope struct {
		Images []FigureAsset `json:"images"`
	}
	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parsing figure manifest envelope: %w", err)
	}
	return NewFigureManifest(envelope.Images), nil
}

// Len returns the number of manifest entries.
func (m *FigureManifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.assets)
}

// Lookup returns the asset for an identifier.
func (m *FigureManifest) Lookup(id string) (FigureAsset, bool) {
	if m == nil {
		return FigureAsset{}, false
	}
	i, ok := m.byID[id]
	if !ok {
		return FigureAsset{}, false
	}
	return m.assets[i], true
}

// ByIndex returns the asset with the given 1-based index.
func (m *FigureManifest) ByIndex(index int) (FigureAsset, bool) {
	if m == nil {
		return FigureAsset{}, false
	}
	for _, a := range m.assets {
		if a.Index == index {
			return a, true
		}
	}
	return FigureAsset{}, false
}

// IDs returns the identifiers in manifest order.
func (m *FigureManifest) IDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, len(m.assets))
	for i, a := range m.assets {
		ids[i] = a.ID
	}
	return ids
}

// Figures returns the manifest as record figure entries, in manifest order.
func (m *FigureManifest) Figures() []Figure {
	if m == nil || len(m.assets) == 0 {
		return nil
	}
	figs := make([]Figure, len(m.assets))
	for i, a := range m.assets {
		figs[i] = Figure{ID: a.ID, Filename: a.Filename, Index: a.Index, Label: a.Label}
	}
	return figs
}
