package segmenter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter parses the leading "---" delimited block of text as YAML.
// It returns nil when the document has no such block, the block is never
// closed, or it does not decode to a mapping. Segmentation is not affected.
func FrontMatter(text string) map[string]any {
	lines := splitLines(text)
	if len(lines) == 0 || !strings.HasPrefix(lines[0], metaMarker) {
		return nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], metaMarker) {
			end = i
			break
		}
	}
	if end < 0 {
		return nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &raw); err != nil {
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}
