package repair

import (
	"regexp"
	"strings"
)

var (
	// lazy and dot-all: each match runs to the nearest closing fence
	fencedBlockRe = regexp.MustCompile("(?s)```.*?```")
	markerPairRe  = regexp.MustCompile(`\x{FFFD}\?`)
)

// HasMarker reports whether content still carries the replacement character.
func HasMarker(content string) bool {
	return strings.Contains(content, Marker)
}

// Transform applies the rule tables, the fenced-block glyph fix and the
// generic marker-pair strip, in that order. It does not check for the marker
// first; callers that want the "no marker, no change" shortcut use HasMarker.
func (rs RuleSet) Transform(content string) string {
	out := content
	for _, r := range rs.Structure {
		out = strings.ReplaceAll(out, r.From, r.To)
	}
	for _, r := range rs.Text {
		out = strings.ReplaceAll(out, r.From, r.To)
	}
	out = fixFencedBlocks(out)
	return markerPairRe.ReplaceAllLiteralString(out, "")
}

// fixFencedBlocks swaps marker pairs for tree bars inside fenced blocks. Each
// fixed block is spliced back over every occurrence of the original text.
func fixFencedBlocks(content string) string {
	if !strings.Contains(content, "```") {
		return content
	}
	for _, block := range fencedBlockRe.FindAllString(content, -1) {
		fixed := strings.ReplaceAll(block, MarkerPair, treeBar)
		if fixed == block {
			continue
		}
		content = strings.ReplaceAll(content, block, fixed)
	}
	return content
}
