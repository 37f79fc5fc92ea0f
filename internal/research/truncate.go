package research

import (
	"strings"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

const (
	// maxSnippetChars caps a single source snippet. Search APIs occasionally
	// return page-sized content blobs; one greedy document must not eat the
	// whole evidence budget.
	maxSnippetChars = 1200

	// docFrameChars approximates the rendering overhead per source line
	// (numbering, separators, newlines) on top of the document text itself.
	docFrameChars = 16
)

// fitEvidence reduces a document set to fit a character budget.
// CRITICAL: this drops information. Snippets are clamped first; if the set
// still exceeds the budget, the oldest documents are removed until it fits.
// Newer documents survive because re-collection rounds fetch the more
// targeted material.
func fitEvidence(docs []contracts.SourceDocument, budget int) []contracts.SourceDocument {
	if len(docs) == 0 {
		return docs
	}

	out := make([]contracts.SourceDocument, len(docs))
	copy(out, docs)
	for i := range out {
		out[i].Snippet = clampSnippet(out[i].Snippet, maxSnippetChars)
	}

	if budget <= 0 {
		return out
	}
	for estimateDocChars(out) > budget && len(out) > 1 {
		out = out[1:]
	}
	return out
}

// estimateDocChars estimates the rendered size of a document set.
func estimateDocChars(docs []contracts.SourceDocument) int {
	var total int
	for _, d := range docs {
		total += len(d.Title) + len(d.URL) + len(d.Snippet) + docFrameChars
	}
	return total
}

// clampSnippet hard-caps one snippet, cutting back to a word boundary when
// one is near the limit.
func clampSnippet(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut
}
