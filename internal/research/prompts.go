package research

import (
	"fmt"
	"strings"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// Node names. Output keys equal node names throughout the research graph.
const (
	NodeGrounding   contracts.NodeID = "grounding"
	NodeProfile     contracts.NodeID = "profile"
	NodeFinancials  contracts.NodeID = "financials"
	NodeNews        contracts.NodeID = "news"
	NodeIndustry    contracts.NodeID = "industry"
	NodeCompetitors contracts.NodeID = "competitors"
	NodeTechnology  contracts.NodeID = "technology"
	NodeRisks       contracts.NodeID = "risks"
	NodeCoverage    contracts.NodeID = "coverage"
	NodeBrief       contracts.NodeID = "brief"
)

// systemPrompt is shared by every analysis call. The line-oriented reply
// format is what parseFinding consumes; keeping it in one place keeps the
// prompts and the parser honest with each other.
const systemPrompt = `You are a business research analyst. Work strictly from the evidence provided.
Reply in plain lines, one item per line, using this exact format:
SUMMARY: <two or three factual sentences>
<FIELD_NAME>: <value, or UNKNOWN if the evidence does not say>
CONFIDENCE: <0.0 to 1.0, your confidence in the summary and fields>
Do not invent facts. Do not add markdown, preamble or commentary.`

// analysisPrompt describes one LLM-backed research task: what to extract and
// which structured fields the reply must carry.
type analysisPrompt struct {
	instruction string
	fields      []string
}

var analysisPrompts = map[contracts.NodeID]analysisPrompt{
	NodeProfile: {
		instruction: "Build a company profile: what the company does, who owns it, where it operates and how large it is.",
		fields:      []string{"founded", "headquarters", "employees", "website", "ownership"},
	},
	NodeFinancials: {
		instruction: "Assess the company's financial picture: revenue, funding history, most recent round and notable investors.",
		fields:      []string{"revenue", "funding_total", "last_round", "investors", "profitability"},
	},
	NodeNews: {
		instruction: "Scan for recent company events: launches, leadership changes, incidents, partnerships. Prefer the newest material.",
		fields:      []string{"recent_events", "sentiment", "last_event_date"},
	},
	NodeIndustry: {
		instruction: "Position the company in its industry: the market it plays in, its relative standing and the trends acting on it.",
		fields:      []string{"industry", "market_size", "position", "trends"},
	},
	NodeCompetitors: {
		instruction: "Map the competitive landscape: the closest competitors, how the company differentiates and any share signals.",
		fields:      []string{"competitors", "differentiation", "market_share"},
	},
	NodeTechnology: {
		instruction: "Describe the product and technology: main products, platform or stack signals, patents and R&D focus.",
		fields:      []string{"products", "stack", "patents", "rnd_focus"},
	},
	NodeRisks: {
		instruction: "Compile a risk register: regulatory exposure, financial fragility, operational and reputational risks.",
		fields:      []string{"regulatory", "financial_risk", "operational", "reputation"},
	},
	NodeBrief: {
		instruction: "Write an executive brief synthesizing every prior finding into a coherent picture of the company. Five to eight sentences.",
		fields:      nil,
	},
}

// fieldsFor returns the structured fields an analysis node is expected to
// fill. Nodes without a prompt entry (grounding, coverage) expect none.
func fieldsFor(node contracts.NodeID) []string {
	return analysisPrompts[node].fields
}

// buildPrompt assembles the user prompt for one analysis node: the task, the
// reply contract and the evidence block.
func buildPrompt(node contracts.NodeID, entity contracts.EntityID, evidence string) string {
	p := analysisPrompts[node]

	var b strings.Builder
	fmt.Fprintf(&b, "Entity: %s\nTask: %s\n", entity, p.instruction)
	if len(p.fields) > 0 {
		b.WriteString("Required fields, one per line after SUMMARY:\n")
		for _, f := range p.fields {
			fmt.Fprintf(&b, "%s:\n", strings.ToUpper(f))
		}
	}
	b.WriteString("\n")
	b.WriteString(evidence)
	return b.String()
}

// retryPrompt appends the gap list a re-collection round is trying to close.
// The extra lines also change the analysis cache fingerprint, so a retry is a
// fresh call instead of replaying the cached first attempt.
func retryPrompt(prompt string, round int, gaps []string) string {
	if round <= 1 || len(gaps) == 0 {
		return prompt
	}
	return fmt.Sprintf("%s\n\nThis is collection round %d. The previous round left these gaps, close as many as the evidence allows:\n%s\n",
		prompt, round, strings.Join(gaps, "\n"))
}

// baseQueries is the first round's search set: broad coverage of the angles
// the analysis nodes will need.
func baseQueries(entity contracts.EntityID) []string {
	e := string(entity)
	return []string{
		e + " company overview",
		e + " funding revenue financials",
		e + " industry market competitors",
		e + " products technology",
	}
}

// gapQueries targets a re-collection round at the topics the coverage node
// flagged. Gap entries look like "financials.revenue"; the node part picks
// the topic, the field part sharpens the query.
func gapQueries(entity contracts.EntityID, gaps []string) []string {
	seen := make(map[string]bool, len(gaps))
	var out []string
	for _, gap := range gaps {
		topic := strings.ReplaceAll(gap, ".", " ")
		topic = strings.ReplaceAll(topic, "_", " ")
		q := string(entity) + " " + topic
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return baseQueries(entity)
	}
	return out
}
