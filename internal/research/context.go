package research

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// Evidence assembly for task prompts. Dependency findings always survive;
// source snippets are dropped oldest-first when the char budget is tight,
// since newer rounds fetch the more targeted material.

// buildEvidence renders the prompt evidence block for one task: prior
// findings first, then numbered sources, trimmed to in.CharBudget.
func buildEvidence(in *contracts.TaskInput, fresh []contracts.SourceDocument) string {
	findings := findingsBlock(in.Deps)

	budget := in.CharBudget
	if budget <= 0 {
		budget = 20000
	}
	remaining := budget - len(findings)
	if remaining < 0 {
		remaining = 0
	}

	docs := append(append([]contracts.SourceDocument(nil), in.State.RawInputs...), fresh...)
	sources := sourcesBlock(docs, remaining)

	var b strings.Builder
	if findings != "" {
		b.WriteString(findings)
		b.WriteString("\n")
	}
	b.WriteString(sources)
	return b.String()
}

// findingsBlock renders dependency findings in sorted node order so the same
// inputs always produce the same prompt.
func findingsBlock(deps map[contracts.NodeID]*contracts.Finding) string {
	if len(deps) == 0 {
		return ""
	}

	nodes := make([]contracts.NodeID, 0, len(deps))
	for node := range deps {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	var b strings.Builder
	b.WriteString("## Prior findings\n")
	for _, node := range nodes {
		f := deps[node]
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "### %s\n%s\n", node, f.Summary)
		for _, key := range sortedFieldKeys(f.Fields) {
			fmt.Fprintf(&b, "- %s: %s\n", key, f.Fields[key])
		}
	}
	return b.String()
}

// sourcesBlock renders numbered source snippets, fitted to the budget via
// fitEvidence.
func sourcesBlock(docs []contracts.SourceDocument, budget int) string {
	if len(docs) == 0 {
		return "## Sources\n(none collected yet)\n"
	}

	docs = fitEvidence(docs, budget)
	var b strings.Builder
	b.WriteString("## Sources\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "[%d] %s - %s\n%s\n", i+1, d.Title, d.URL, d.Snippet)
	}
	return b.String()
}

func sortedFieldKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
