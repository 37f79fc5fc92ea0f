package research

import (
	"strconv"
	"strings"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// Analysis replies follow a line-oriented convention the prompts demand:
//
//	SUMMARY: <prose>
//	<FIELD>: <value>
//	CONFIDENCE: <0.0-1.0>
//
// parseFinding is tolerant: unknown lines are ignored, a missing confidence
// defaults to 0.5, and a reply with no recognizable structure still yields a
// finding whose summary is the raw text. Model output is data, never a
// reason to fail the node.
func parseFinding(node contracts.NodeID, text string, wantFields []string, sources []string, model contracts.ModelID) *contracts.Finding {
	f := &contracts.Finding{
		Node:       node,
		Fields:     make(map[string]string, len(wantFields)),
		Confidence: 0.5,
		Sources:    sources,
		Model:      model,
	}

	expected := make(map[string]string, len(wantFields))
	for _, field := range wantFields {
		expected[strings.ToUpper(field)] = strings.ToLower(field)
	}

	var summary []string
	var inSummary bool
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := splitField(line)
		switch {
		case ok && key == "SUMMARY":
			summary = append(summary, value)
			inSummary = true
		case ok && key == "CONFIDENCE":
			if c, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				f.Confidence = clamp01(c)
			}
			inSummary = false
		case ok && expected[key] != "":
			if !isEmptyValue(value) {
				f.Fields[expected[key]] = value
			}
			inSummary = false
		case inSummary:
			// Continuation of a multi-line summary.
			summary = append(summary, line)
		}
	}

	f.Summary = strings.Join(summary, " ")
	if f.Summary == "" {
		f.Summary = strings.TrimSpace(text)
	}
	return f
}

// splitField splits "KEY: value" lines. The key side must look like an
// uppercase identifier for the line to count as a field.
func splitField(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(strings.TrimPrefix(line[:idx], "-"))
	if key != strings.ToUpper(key) {
		return "", "", false
	}
	for _, r := range key {
		if (r < 'A' || r > 'Z') && r != '_' {
			return "", "", false
		}
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

// isEmptyValue filters the placeholder answers models give for unknowns.
func isEmptyValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "unknown", "n/a", "na", "none", "not available", "not found", "-":
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
