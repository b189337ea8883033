package domain

// Document is a source document handed to the ingestion pipeline.
type Document struct {
	// Path is the relative, slash-separated key of the document.
	// It is unique within a run and is written into every record payload.
	Path string

	// Content is the full UTF-8 text of the document.
	Content string

	// Metadata holds the parsed front-matter, if any.
	Metadata map[string]any
}

// Title returns the front-matter title, or "" when absent.
func (d Document) Title() string {
	if d.Metadata == nil {
		return ""
	}
	title, ok := d.Metadata["title"].(string)
	if !ok {
		return ""
	}
	return title
}

// ChunkKind classifies a chunk.
type ChunkKind string

// Chunk kinds emitted by the segmenter. Metadata blocks are never emitted.
const (
	// ChunkKindProse is a paragraph of consecutive non-empty lines.
	ChunkKindProse ChunkKind = "prose"

	// ChunkKindCode is a fenced code block including both fence lines.
	ChunkKindCode ChunkKind = "code"
)

// IsValid returns true if the chunk kind is recognised.
func (k ChunkKind) IsValid() bool {
	return k == ChunkKindProse || k == ChunkKindCode
}

// String returns the string representation.
func (k ChunkKind) String() string {
	return string(k)
}

// Chunk is a contiguous span of a document that is embedded and indexed.
type Chunk struct {
	// Kind is prose or code.
	Kind ChunkKind

	// Text is the chunk content. Every line ends with a newline.
	Text string

	// Position is the 0-based ordinal of the chunk within its document.
	Position int

	// StartLine is the 1-based source line of the first line in the chunk.
	StartLine int

	// EndLine is the 1-based source line of the last line in the chunk.
	EndLine int
}
