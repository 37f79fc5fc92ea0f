package orchestration

import (
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ai-Whisperers/LangAi-sub012/config"
	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/audit"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/cache"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/cost"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/llm"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/research"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/search"
)

// FactoryOptions override individual collaborators during assembly. Zero
// values mean "build the production one from config". Tests inject stub
// searchers and analyzers here so no HTTP client is ever constructed.
type FactoryOptions struct {
	// Searcher replaces the HTTP search client. The cache layer still wraps
	// it, so cached lookups behave exactly as in production.
	Searcher contracts.Searcher

	// Analyzer replaces the HTTP analysis client, bypassing API key lookup
	// and cost-stack wiring into the client. The cache layer still wraps it.
	Analyzer contracts.Analyzer

	// Logger is the base logger for audit events and client diagnostics.
	// Nil falls back to the process-global zap logger.
	Logger *zap.Logger
}

// Runtime bundles a fully wired engine with the collaborators callers need
// after assembly: the policy to run with, the shared cache, and the usage
// tracker for post-run cost reports.
type Runtime struct {
	Engine  contracts.Engine
	Policy  contracts.RunPolicy
	Cache   *cache.Store
	Tracker contracts.UsageTracker
	Audit   *audit.Logger
}

// NewRuntime assembles the research engine from configuration. The deep flag
// widens the pipeline (extra analysis nodes, flagship synthesis) and is baked
// into the graph, so one Runtime serves one depth setting.
//
// Assembly order matters: the cost stack feeds the analysis client, the cache
// store wraps both clients, and the task set's specs are registered before
// the graph is built from them.
func NewRuntime(cfg *config.ResearchConfig, deep bool, opts FactoryOptions) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}

	catalog := cost.NewModelCatalogWithModels(catalogModels(cfg.LLM))
	calc := cost.NewCostCalculatorWithCatalog(catalog)
	estimator := cost.NewTokenEstimator()
	tracker := cost.NewUsageTracker()
	budget := cost.NewBudgetEnforcer(cfg.Run.CostCeilingUSD)

	store := cache.New(map[contracts.CacheCategory]time.Duration{
		contracts.CacheSearch:   cfg.TTLFor(contracts.CacheSearch),
		contracts.CacheNews:     cfg.TTLFor(contracts.CacheNews),
		contracts.CacheAnalysis: cfg.TTLFor(contracts.CacheAnalysis),
	}, cfg.TTLFor(contracts.CacheSearch))

	searcher := opts.Searcher
	if searcher == nil {
		key := os.Getenv(cfg.Search.APIKeyEnv)
		if key == "" {
			return nil, eris.Wrapf(contracts.ErrInvalidInput, "factory: search API key env %s is empty", cfg.Search.APIKeyEnv)
		}
		searcher = search.NewClient(key, search.Options{
			BaseURL:    cfg.Search.BaseURL,
			Depth:      cfg.Search.Depth,
			MaxResults: cfg.Search.MaxResults,
		})
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		key := os.Getenv(cfg.LLM.APIKeyEnv)
		if key == "" {
			return nil, eris.Wrapf(contracts.ErrInvalidInput, "factory: analysis API key env %s is empty", cfg.LLM.APIKeyEnv)
		}
		client, err := llm.NewClient(key, llm.Deps{
			Catalog:    catalog,
			Calculator: calc,
			Estimator:  estimator,
			Budget:     budget,
			Tracker:    tracker,
		}, llm.Options{
			BaseURL: cfg.LLM.BaseURL,
			Logger:  log,
		})
		if err != nil {
			return nil, eris.Wrap(err, "factory: analysis client")
		}
		analyzer = client
	}

	tasks, err := research.NewTaskSet(search.NewCached(searcher, store), llm.NewCached(analyzer, store))
	if err != nil {
		return nil, eris.Wrap(err, "factory: task set")
	}

	reg := NewRegistry()
	for _, spec := range tasks.Specs(deep) {
		if err := reg.Register(spec); err != nil {
			return nil, eris.Wrapf(err, "factory: register node %s", spec.Name)
		}
	}

	from, to := research.Loop()
	graph, err := Build(reg.List(), IterationEdge{From: from, To: to})
	if err != nil {
		return nil, eris.Wrap(err, "factory: build graph")
	}

	analysis := research.AnalysisNodes(deep)
	auditLog := audit.New(log)

	engine, err := NewEngine(EngineDeps{
		Graph:    graph,
		Reducer:  NewReducer(),
		Gate:     NewGate(research.NewScorer(analysis), budget),
		Selector: research.NewSelector(analysis),
		Audit:    auditLog,
	})
	if err != nil {
		return nil, eris.Wrap(err, "factory: engine")
	}

	return &Runtime{
		Engine:  engine,
		Policy:  cfg.RunPolicy(deep),
		Cache:   store,
		Tracker: tracker,
		Audit:   auditLog,
	}, nil
}

// catalogModels converts the config's role-keyed model map into catalog
// entries. Sorted by role so assembly is deterministic.
func catalogModels(cfg config.LLMConfig) []contracts.ModelInfo {
	roles := make([]string, 0, len(cfg.Models))
	for role := range cfg.Models {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	models := make([]contracts.ModelInfo, 0, len(roles))
	for _, role := range roles {
		m := cfg.Models[role]
		models = append(models, contracts.ModelInfo{
			ID:              contracts.ModelID(m.Name),
			Provider:        m.Provider,
			MaxContext:      m.MaxContext,
			InputCostPer1M:  m.InputPer1M,
			OutputCostPer1M: m.OutputPer1M,
			Role:            contracts.ModelRole(role),
		})
	}
	return models
}
