package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontMatter(t *testing.T) {
	text := "---\ntitle: Getting started\ntags: [setup, cli]\n---\n# Getting started\n\nBody\n\n"

	meta := FrontMatter(text)

	require.NotNil(t, meta)
	assert.Equal(t, "Getting started", meta["title"])
	assert.Equal(t, []any{"setup", "cli"}, meta["tags"])
}

func TestFrontMatter_DoesNotAffectSegmentation(t *testing.T) {
	text := "---\ntitle: A\n---\nBody\n\n"

	assert.NotNil(t, FrontMatter(text))
	chunks := Segment(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Body\n", chunks[0].Text)
}

func TestFrontMatter_Absent(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no block", "# Title\n\nBody\n\n"},
		{"block not leading", "Intro\n---\ntitle: x\n---\n"},
		{"unclosed", "---\ntitle: x\n"},
		{"empty block", "---\n---\n"},
		{"invalid yaml", "---\ntitle: [unclosed\n---\n"},
		{"scalar yaml", "---\njust text\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, FrontMatter(tt.text))
		})
	}
}

func TestFrontMatter_ByteOrderMark(t *testing.T) {
	meta := FrontMatter("\ufeff---\ntitle: BOM\n---\n")

	require.NotNil(t, meta)
	assert.Equal(t, "BOM", meta["title"])
}
