package driven

import "github.com/custodia-labs/docsync/internal/core/domain"

// Segmenter splits document text into chunks.
// Implementations must be pure: the same text always yields the same chunks.
type Segmenter interface {
	// Name returns the segmenter identifier.
	Name() string

	// Segment returns the chunks of text in document order.
	Segment(text string) []domain.Chunk
}
