// Package segmenter splits markdown-like documents into prose and code chunks.
//
// Segmentation is a line-oriented state machine with four states. Lines are
// fed one at a time through transition, which returns the next state and the
// action to apply to the open buffer. Front-matter blocks delimited by "---"
// lines are skipped, headings outside paragraphs are ignored, and any buffer
// still open at the end of input is dropped.
package segmenter

import (
	"strings"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure Segmenter implements the interface.
var _ driven.Segmenter = (*Segmenter)(nil)

const (
	fenceMarker = "```"
	metaMarker  = "---"
	headingMark = "#"
)

type state int

const (
	stateNone state = iota
	stateCodeBlock
	stateMeta
	stateSentence
)

func (s state) String() string {
	switch s {
	case stateNone:
		return "none"
	case stateCodeBlock:
		return "code_block"
	case stateMeta:
		return "meta"
	case stateSentence:
		return "sentence"
	default:
		return "unknown"
	}
}

type action int

const (
	// actSkip leaves the buffer untouched.
	actSkip action = iota
	// actOpen starts a new buffer with the line.
	actOpen
	// actAppend adds the line to the open buffer.
	actAppend
	// actAppendEmit adds the line and emits the buffer as a chunk.
	actAppendEmit
	// actEmit emits the buffer without the line.
	actEmit
)

// transition consumes one line in state s.
func transition(s state, line string) (state, action) {
	switch s {
	case stateNone:
		switch {
		case strings.HasPrefix(line, fenceMarker):
			return stateCodeBlock, actOpen
		case strings.HasPrefix(line, metaMarker):
			return stateMeta, actSkip
		case line != "" && !strings.HasPrefix(line, headingMark):
			return stateSentence, actOpen
		default:
			return stateNone, actSkip
		}
	case stateCodeBlock:
		if strings.HasPrefix(line, fenceMarker) {
			return stateNone, actAppendEmit
		}
		return stateCodeBlock, actAppend
	case stateMeta:
		if strings.HasPrefix(line, metaMarker) {
			return stateNone, actSkip
		}
		return stateMeta, actSkip
	case stateSentence:
		if line == "" {
			return stateNone, actEmit
		}
		return stateSentence, actAppend
	default:
		return stateNone, actSkip
	}
}

// kindOf returns the chunk kind accumulated while in state s.
func kindOf(s state) domain.ChunkKind {
	if s == stateCodeBlock {
		return domain.ChunkKindCode
	}
	return domain.ChunkKindProse
}

// machine applies transitions and collects chunks.
type machine struct {
	state  state
	buf    strings.Builder
	kind   domain.ChunkKind
	start  int
	last   int
	chunks []domain.Chunk
}

func (m *machine) feed(line string, lineNo int) {
	next, act := transition(m.state, line)

	switch act {
	case actOpen:
		m.buf.Reset()
		m.kind = kindOf(next)
		m.start = lineNo
		m.append(line, lineNo)
	case actAppend:
		m.append(line, lineNo)
	case actAppendEmit:
		m.append(line, lineNo)
		m.emit()
	case actEmit:
		m.emit()
	case actSkip:
	}

	m.state = next
}

func (m *machine) append(line string, lineNo int) {
	m.buf.WriteString(line)
	m.buf.WriteByte('\n')
	m.last = lineNo
}

func (m *machine) emit() {
	m.chunks = append(m.chunks, domain.Chunk{
		Kind:      m.kind,
		Text:      m.buf.String(),
		Position:  len(m.chunks),
		StartLine: m.start,
		EndLine:   m.last,
	})
	m.buf.Reset()
}

// Segment splits text into chunks in document order.
// It is pure and total: every input, including the empty string, is valid.
func Segment(text string) []domain.Chunk {
	m := &machine{state: stateNone}
	for i, line := range splitLines(text) {
		m.feed(line, i+1)
	}
	// Buffers left open by a missing blank line or closing fence are dropped.
	return m.chunks
}

// splitLines splits on "\n". A leading UTF-8 byte order mark is dropped,
// a trailing newline does not produce a final empty line, and a "\r"
// before a "\n" is removed.
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	terminated := strings.HasSuffix(text, "\n")
	if terminated {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		if i == len(lines)-1 && !terminated {
			break
		}
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Segmenter exposes Segment through the driven.Segmenter port.
type Segmenter struct{}

// New creates a segmenter.
func New() *Segmenter {
	return &Segmenter{}
}

// Name returns the segmenter name.
func (s *Segmenter) Name() string {
	return "markdown"
}

// Segment splits text into chunks.
func (s *Segmenter) Segment(text string) []domain.Chunk {
	return Segment(text)
}
