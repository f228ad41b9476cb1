package thesisaf

// Metadata holds the document header fields collected from the cover page.
// All fields are free text; which of them are mandatory is decided by the
// template registry, not here.
type Metadata struct {
	Title      string `json:"title,omitempty"`       // Chinese title
	TitleEn    string `json:"title_en,omitempty"`    // English title
	AuthorName string `json:"author_name,omitempty"` // Student name
	StudentID  string `json:"student_id,omitempty"`  // Student number
	School     string `json:"school,omitempty"`      // School or department
	Major      string `json:"major,omitempty"`       // Major / discipline
	Supervisor string `json:"supervisor,omitempty"`  // Supervisor name
	Date       string `json:"date,omitempty"`        // Submission date, free form
}

// IsEmpty reports whether no metadata field carries any text.
func (m *Metadata) IsEmpty() bool {
	if m == nil {
		return true
	}
	return m.Title == "" && m.TitleEn == "" && m.AuthorName == "" &&
		m.StudentID == "" && m.School == "" && m.Major == "" &&
		m.Supervisor == "" && m.Date == ""
}

// Section is one titled body of content at heading level 1-3.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Level   int    `json:"level,omitempty"` // 1, 2 or 3; anything else is coerced to 1
}

// Figure describes one extracted image referenced from the document body.
// ID is the opaque identifier assigned by the upstream extractor and must be
// preserved verbatim; the pipeline never invents identifiers.
type Figure struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Index    int    `json:"index"`
	Label    string `json:"label,omitempty"`
}

// StructuredRecord is the aggregate, template-agnostic representation of one
// extracted document. Field names follow the downstream renderer's schema.
// Metadata is a pointer so that a document with no recognizable header
// serializes without a metadata key at all.
type StructuredRecord struct {
	Metadata         *Metadata `json:"metadata,omitempty"`
	Abstract         string    `json:"abstract,omitempty"`
	AbstractEn       string    `json:"abstract_en,omitempty"`
	Keywords         string    `json:"keywords,omitempty"`
	KeywordsEn       string    `json:"keywords_en,omitempty"`
	Sections         []Section `json:"sections"`
	References       string    `json:"references,omitempty"`
	Acknowledgements string    `json:"acknowledgements,omitempty"`
	Figures          []Figure  `json:"figures,omitempty"`
}

// Chunk is one ordered, bounded slice of a document's extracted text,
// covering a contiguous run of top-level units. Concatenating chunk texts in
// index order reproduces the document's units in original order, with
// inter-unit spacing normalized to one blank line. Exactly one chunk per
// document, normally index 0, carries the opening header and has
// WantMetadata set.
type Chunk struct {
	Index int    // zero-based position in the split
	Total int    // total number of chunks in the split
	Text  string // raw text of this chunk

	// Units are the scanned top-level units packed into this chunk, in
	// document order. Section units carry the heading line and level.
	Units []DocumentUnit

	WantMetadata        bool // this chunk holds the header; ask the model for Metadata
	HasAbstract         bool // an abstract block starts inside this chunk
	HasReferences       bool // the references unit starts inside this chunk
	HasAcknowledgements bool // the acknowledgements unit starts inside this chunk
}

// ChunkExtractionResult is the terminal outcome of extracting one chunk,
// after all retries. It is created once and never mutated.
type ChunkExtractionResult struct {
	Success    bool
	ChunkIndex int
	Record     *StructuredRecord // nil when Success is false
	Err        string            // last error text when Success is false
	Retries    int               // retries consumed (0 when the first attempt succeeded)
}

// ChunkFailure identifies one chunk that exhausted its retries.
type ChunkFailure struct {
	ChunkIndex int    `json:"chunk_index"`
	Err        string `json:"error"`
}

// ExtractionReport is the pipeline's output: the merged record plus the
// failures of any chunks that could not be extracted. A non-empty Failed
// list with a non-nil Record is a partial success; callers decide whether
// to surface it.
type ExtractionReport struct {
	Record *StructuredRecord `json:"record"`
	Failed []ChunkFailure    `json:"failed,omitempty"`
}
