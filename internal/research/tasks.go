// Package research provides the built-in task units of the entity research
// pipeline: source grounding, the per-topic analysis nodes, the coverage
// fan-in and the final brief, plus the scorer and selector the gate uses.
package research

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

const (
	analysisMaxTokens = 700
	briefMaxTokens    = 1200
)

// TaskSet binds the research run functions to their collaborators. One set
// serves every concurrent entity run; the functions themselves hold no
// per-run state.
type TaskSet struct {
	search  contracts.Searcher
	analyze contracts.Analyzer
}

// NewTaskSet creates the task set from its collaborators.
func NewTaskSet(searcher contracts.Searcher, analyzer contracts.Analyzer) (*TaskSet, error) {
	if searcher == nil {
		return nil, fmt.Errorf("research: nil searcher: %w", contracts.ErrInvalidInput)
	}
	if analyzer == nil {
		return nil, fmt.Errorf("research: nil analyzer: %w", contracts.ErrInvalidInput)
	}
	return &TaskSet{search: searcher, analyze: analyzer}, nil
}

// AnalysisNodes returns the analysis fan-out for a mode. Deep mode adds the
// competitive, technology and risk angles.
func AnalysisNodes(deep bool) []contracts.NodeID {
	nodes := []contracts.NodeID{NodeProfile, NodeFinancials, NodeNews, NodeIndustry}
	if deep {
		nodes = append(nodes, NodeCompetitors, NodeTechnology, NodeRisks)
	}
	return nodes
}

// analysisRoles assigns the default model tier per node. Deep runs escalate
// these one tier at dispatch time.
var analysisRoles = map[contracts.NodeID]contracts.ModelRole{
	NodeProfile:     contracts.RoleBalanced,
	NodeFinancials:  contracts.RoleBalanced,
	NodeNews:        contracts.RoleFast,
	NodeIndustry:    contracts.RoleBalanced,
	NodeCompetitors: contracts.RoleBalanced,
	NodeTechnology:  contracts.RoleFast,
	NodeRisks:       contracts.RoleBalanced,
}

// Specs returns the full node set for one mode, ready for graph
// construction. The iteration back-edge for this set is Loop().
func (t *TaskSet) Specs(deep bool) []contracts.NodeSpec {
	analysis := AnalysisNodes(deep)

	specs := make([]contracts.NodeSpec, 0, len(analysis)+3)
	specs = append(specs, contracts.NodeSpec{
		Name:  NodeGrounding,
		Needs: []contracts.NodeID{contracts.KeyEntity},
		Role:  contracts.RoleFast,
		Run:   t.grounding,
	})
	for _, node := range analysis {
		specs = append(specs, contracts.NodeSpec{
			Name:  node,
			Needs: []contracts.NodeID{NodeGrounding, contracts.KeyRawInputs},
			Role:  analysisRoles[node],
			Run:   t.analysisFunc(node),
		})
	}

	briefRole := contracts.RoleBalanced
	if deep {
		briefRole = contracts.RoleFlagship
	}
	specs = append(specs,
		contracts.NodeSpec{
			Name:  NodeCoverage,
			Needs: analysis,
			Role:  contracts.RoleFast,
			Run:   t.coverageFunc(analysis),
		},
		contracts.NodeSpec{
			Name:  NodeBrief,
			Needs: analysis,
			Role:  briefRole,
			Final: true,
			Run:   t.brief,
		},
	)
	return specs
}

// Loop returns the sanctioned back-edge: the coverage fan-in reopens the
// grounding root when the gate sends the run into another round.
func Loop() (from, to contracts.NodeID) {
	return NodeCoverage, NodeGrounding
}

// grounding seeds RawInputs with search results. Round one runs the broad
// base queries; re-collection rounds target the gaps the previous coverage
// pass left open. Documents already in state are deduplicated away so
// RawInputs grows with genuinely new material only.
func (t *TaskSet) grounding(ctx context.Context, in *contracts.TaskInput) (*contracts.TaskResult, error) {
	started := time.Now()
	entity := in.State.Entity
	log := zap.L().With(
		zap.String("entity", string(entity)),
		zap.String("node", string(NodeGrounding)),
		zap.Int("round", in.Round),
	)

	queries := baseQueries(entity)
	if in.Round > 1 {
		if gaps := coverageGaps(in.State); len(gaps) > 0 {
			queries = gapQueries(entity, gaps)
		}
	}

	var docs []contracts.SourceDocument
	allHit := true
	failures := 0
	var lastErr error
	for _, q := range queries {
		found, hit, err := t.search.Search(ctx, q, contracts.CacheSearch)
		if err != nil {
			failures++
			lastErr = err
			log.Warn("grounding query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		allHit = allHit && hit
		docs = append(docs, found...)
	}
	if failures == len(queries) {
		return nil, eris.Wrap(lastErr, "research: every grounding query failed")
	}

	fresh := dedupeDocs(in.State.RawInputs, docs)
	if len(fresh) == 0 && len(in.State.RawInputs) == 0 {
		return nil, eris.Wrap(contracts.ErrSearchEmpty, "research: grounding collected nothing")
	}
	log.Debug("grounding collected",
		zap.Int("queries", len(queries)),
		zap.Int("documents", len(fresh)),
		zap.Bool("cached", allHit),
	)

	finding := &contracts.Finding{
		Node:    NodeGrounding,
		Summary: fmt.Sprintf("Collected %d new sources across %d queries.", len(fresh), len(queries)),
		Fields: map[string]string{
			"queries":   strings.Join(queries, "; "),
			"documents": strconv.Itoa(len(fresh)),
		},
		Confidence: clamp01(float64(len(fresh)) / 8),
		Sources:    urlsOf(fresh),
	}
	return &contracts.TaskResult{
		Node: NodeGrounding,
		Patch: contracts.StatePatch{
			RawInputs: fresh,
			Outputs:   map[contracts.NodeID]*contracts.Finding{NodeGrounding: finding},
		},
		Duration: time.Since(started),
		CacheHit: allHit,
	}, nil
}

// analysisFunc builds the run function for one analysis node: assemble
// evidence, ask the model, parse the structured reply into a finding. The
// news node additionally pulls a fresh headline search on its short TTL lane
// and feeds the hits back into RawInputs.
func (t *TaskSet) analysisFunc(node contracts.NodeID) contracts.TaskFunc {
	return func(ctx context.Context, in *contracts.TaskInput) (*contracts.TaskResult, error) {
		started := time.Now()

		var fresh []contracts.SourceDocument
		if node == NodeNews {
			fresh = t.newsDocs(ctx, in)
		}

		prompt := buildPrompt(node, in.State.Entity, buildEvidence(in, fresh))
		prompt = retryPrompt(prompt, in.Round, gapsFor(node, coverageGaps(in.State)))

		resp, err := t.analyze.Analyze(ctx, &contracts.AnalyzeRequest{
			RunID:     in.State.RunID,
			Node:      node,
			Role:      in.Role,
			System:    systemPrompt,
			Prompt:    prompt,
			MaxTokens: analysisMaxTokens,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "research: %s analysis", node)
		}

		sources := urlsOf(append(append([]contracts.SourceDocument(nil), in.State.RawInputs...), fresh...))
		finding := parseFinding(node, resp.Text, fieldsFor(node), sources, resp.Model)

		result := &contracts.TaskResult{
			Node: node,
			Patch: contracts.StatePatch{
				Outputs: map[contracts.NodeID]*contracts.Finding{node: finding},
			},
			CostDeltaUSD: resp.Usage.CostUSD,
			Duration:     time.Since(started),
			CacheHit:     resp.Cached,
		}
		if len(fresh) > 0 {
			result.Patch.RawInputs = fresh
		}
		return result, nil
	}
}

// newsDocs fetches recent headlines on the news cache lane. Best effort: on
// failure the news analysis still runs against the general raw inputs.
func (t *TaskSet) newsDocs(ctx context.Context, in *contracts.TaskInput) []contracts.SourceDocument {
	query := string(in.State.Entity) + " latest news"
	docs, _, err := t.search.Search(ctx, query, contracts.CacheNews)
	if err != nil {
		zap.L().Warn("news search failed",
			zap.String("entity", string(in.State.Entity)),
			zap.Error(err),
		)
		return nil
	}
	return dedupeDocs(in.State.RawInputs, docs)
}

// coverageFunc builds the pure fan-in node: grade the findings against the
// expected set, record the open gaps and propose the round's quality score.
// No I/O and no model call, so it is also the loop's cheap pivot point.
func (t *TaskSet) coverageFunc(expected []contracts.NodeID) contracts.TaskFunc {
	return func(_ context.Context, in *contracts.TaskInput) (*contracts.TaskResult, error) {
		started := time.Now()
		score, gaps := scoreAndGaps(in.State, expected)

		finding := &contracts.Finding{
			Node: NodeCoverage,
			Summary: fmt.Sprintf("Coverage %.0f/100 over %d expected findings; %d gaps open.",
				score, len(expected), len(gaps)),
			Fields: map[string]string{
				"score": strconv.FormatFloat(score, 'f', 1, 64),
				"gaps":  strings.Join(gaps, ", "),
			},
			Confidence: clamp01(score / 100),
		}

		proposed := score
		return &contracts.TaskResult{
			Node: NodeCoverage,
			Patch: contracts.StatePatch{
				Outputs: map[contracts.NodeID]*contracts.Finding{NodeCoverage: finding},
				Score:   &proposed,
			},
			Duration: time.Since(started),
		}, nil
	}
}

// brief synthesizes every finding into the executive brief. Runs once, after
// the gate finalizes.
func (t *TaskSet) brief(ctx context.Context, in *contracts.TaskInput) (*contracts.TaskResult, error) {
	started := time.Now()

	prompt := buildPrompt(NodeBrief, in.State.Entity, buildEvidence(in, nil))
	resp, err := t.analyze.Analyze(ctx, &contracts.AnalyzeRequest{
		RunID:     in.State.RunID,
		Node:      NodeBrief,
		Role:      in.Role,
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: briefMaxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "research: brief synthesis")
	}

	finding := parseFinding(NodeBrief, resp.Text, nil, urlsOf(in.State.RawInputs), resp.Model)
	return &contracts.TaskResult{
		Node: NodeBrief,
		Patch: contracts.StatePatch{
			Outputs: map[contracts.NodeID]*contracts.Finding{NodeBrief: finding},
		},
		CostDeltaUSD: resp.Usage.CostUSD,
		Duration:     time.Since(started),
		CacheHit:     resp.Cached,
	}, nil
}

// coverageGaps reads the gap list the previous coverage pass recorded.
// Empty on round one.
func coverageGaps(state *contracts.State) []string {
	finding := state.TaskOutputs[NodeCoverage]
	if finding == nil || finding.Fields["gaps"] == "" {
		return nil
	}
	parts := strings.Split(finding.Fields["gaps"], ",")
	gaps := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			gaps = append(gaps, p)
		}
	}
	return gaps
}

// gapsFor filters a gap list down to one node's entries ("financials" or
// "financials.revenue").
func gapsFor(node contracts.NodeID, gaps []string) []string {
	var out []string
	for _, g := range gaps {
		if g == string(node) || strings.HasPrefix(g, string(node)+".") {
			out = append(out, g)
		}
	}
	return out
}

// dedupeDocs returns the fresh documents whose URL is not already present in
// existing, preserving order. Duplicates within fresh collapse too.
func dedupeDocs(existing, fresh []contracts.SourceDocument) []contracts.SourceDocument {
	seen := make(map[string]bool, len(existing)+len(fresh))
	for _, d := range existing {
		seen[d.URL] = true
	}
	var out []contracts.SourceDocument
	for _, d := range fresh {
		if d.URL == "" || !seen[d.URL] {
			out = append(out, d)
			seen[d.URL] = true
		}
	}
	return out
}

// urlsOf extracts the unique document URLs in order.
func urlsOf(docs []contracts.SourceDocument) []string {
	seen := make(map[string]bool, len(docs))
	var out []string
	for _, d := range docs {
		if d.URL != "" && !seen[d.URL] {
			seen[d.URL] = true
			out = append(out, d.URL)
		}
	}
	return out
}
