// Package report renders batch outcomes into their file surfaces: one
// Markdown report per entity, the batch summary JSON, and the comparison
// table. Rendering is pure; writing is the only I/O.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/research"
)

// sectionOrder fixes the report layout. Grounding and coverage are internal
// bookkeeping nodes and never rendered as sections.
var sectionOrder = []contracts.NodeID{
	research.NodeProfile,
	research.NodeFinancials,
	research.NodeNews,
	research.NodeIndustry,
	research.NodeCompetitors,
	research.NodeTechnology,
	research.NodeRisks,
}

var sectionTitles = map[contracts.NodeID]string{
	research.NodeBrief:       "Executive Brief",
	research.NodeProfile:     "Company Profile",
	research.NodeFinancials:  "Financials",
	research.NodeNews:        "Recent News",
	research.NodeIndustry:    "Industry Position",
	research.NodeCompetitors: "Competitive Landscape",
	research.NodeTechnology:  "Product & Technology",
	research.NodeRisks:       "Risk Register",
}

// RenderEntity renders one sealed record as a Markdown report.
func RenderEntity(rec *contracts.BatchRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research report: %s\n\n", rec.Entity)

	if rec.Success {
		b.WriteString("Status: completed\n\n")
	} else {
		fmt.Fprintf(&b, "Status: failed (%s)\n\n", rec.FailureKind)
		if rec.FailureMsg != "" {
			fmt.Fprintf(&b, "> %s\n\n", rec.FailureMsg)
		}
	}

	state := rec.FinalState
	if state == nil {
		b.WriteString("No findings were collected before the run ended.\n")
		return b.String()
	}

	if brief := state.TaskOutputs[research.NodeBrief]; brief != nil && brief.Summary != "" {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionTitles[research.NodeBrief], brief.Summary)
	}

	for _, node := range sectionOrder {
		finding := state.TaskOutputs[node]
		if finding == nil || finding.Summary == "" {
			continue
		}
		renderSection(&b, sectionTitles[node], finding)
	}

	renderSources(&b, state.RawInputs)
	renderRunNotes(&b, state)
	renderFooter(&b, rec)
	return b.String()
}

func renderSection(b *strings.Builder, title string, finding *contracts.Finding) {
	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, finding.Summary)

	if len(finding.Fields) > 0 {
		keys := make([]string, 0, len(finding.Fields))
		for k := range finding.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, "- **%s**: %s\n", strings.ReplaceAll(k, "_", " "), finding.Fields[k])
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "_Confidence: %.2f_\n\n", finding.Confidence)
}

func renderSources(b *strings.Builder, docs []contracts.SourceDocument) {
	if len(docs) == 0 {
		return
	}
	b.WriteString("## Sources\n\n")
	seen := make(map[string]bool, len(docs))
	n := 0
	for _, d := range docs {
		if d.URL == "" || seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		n++
		title := d.Title
		if title == "" {
			title = d.URL
		}
		fmt.Fprintf(b, "%d. [%s](%s)\n", n, title, d.URL)
	}
	b.WriteString("\n")
}

func renderRunNotes(b *strings.Builder, state *contracts.State) {
	if state.TerminalErr == nil && len(state.NodeErrs) == 0 {
		return
	}
	b.WriteString("## Run Notes\n\n")
	if state.TerminalErr != nil {
		fmt.Fprintf(b, "- Terminal: %s\n", state.TerminalErr.Error())
	}
	for _, e := range state.NodeErrs {
		fmt.Fprintf(b, "- %s\n", e.Error())
	}
	b.WriteString("\n")
}

func renderFooter(b *strings.Builder, rec *contracts.BatchRecord) {
	b.WriteString("---\n\n")
	fmt.Fprintf(b, "- Quality score: %.1f/100\n", rec.QualityScore)
	fmt.Fprintf(b, "- Iterations: %d\n", rec.Iterations)
	fmt.Fprintf(b, "- Cost: $%.4f\n", rec.CostUSD)
	fmt.Fprintf(b, "- Duration: %dms\n", rec.Duration.Milliseconds())
	fmt.Fprintf(b, "- Fast path: %t\n", rec.CacheHit)
}
