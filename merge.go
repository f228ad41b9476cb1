package thesisaf

import (
	"errors"
	"sort"
)

// ErrAllChunksFailed means every chunk exhausted its retries and no record
// could be produced. The only hard failure of the merge step.
var ErrAllChunksFailed = errors.New("extraction failed for every chunk")

// MergeResults combines chunk results into one record, walking ascending by
// chunk index so the outcome is independent of completion order. Metadata is
// taken from the first result that has it; sections concatenate in chunk
// order; each front/back-matter text field is taken from the first result
// declaring it; figures concatenate unique by identifier. Failed chunks
// contribute nothing and come back as warnings; the merge errors only when
// every chunk failed.
func MergeResults(results []ChunkExtractionResult) (*StructuredRecord, []ChunkFailure, error) {
	merged := &StructuredRecord{Sections: []Section{}}
	if len(results) == 0 {
		return merged, nil, nil
	}

	ordered := make([]ChunkExtractionResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ChunkIndex < ordered[j].ChunkIndex
	})

	var failed []ChunkFailure
	seenFigures := make(map[string]bool)

	for _, r := range ordered {
		if !r.Success || r.Record == nil {
			failed = append(failed, ChunkFailure{ChunkIndex: r.ChunkIndex, Err: r.Err})
			continue
		}
		rec := r.Record

		if merged.Metadata == nil && !rec.Metadata.IsEmpty() {
			merged.Metadata = rec.Metadata
		}
		merged.Sections = append(merged.Sections, rec.Sections...)

		if merged.Abstract == "" {
			merged.Abstract = rec.Abstract
		}
		if merged.AbstractEn == "" {
			merged.AbstractEn = rec.AbstractEn
		}
		if merged.Keywords == "" {
			merged.Keywords = rec.Keywords
		}
		if merged.KeywordsEn == "" {
			merged.KeywordsEn = rec.KeywordsEn
		}
		if merged.References == "" {
			merged.References = rec.References
		}
		if merged.Acknowledgements == "" {
			merged.Acknowledgements = rec.Acknowledgements
		}

		for _, f := range rec.Figures {
			if seenFigures[f.ID] {
				continue
			}
			seenFigures[f.ID] = true
			merged.Figures = append(merged.Figures, f)
		}
	}

	if len(failed) == len(ordered) {
		return nil, failed, ErrAllChunksFailed
	}
	return merged, failed, nil
}
