// Package llm provides the analysis collaborator: an OpenAI-compatible
// chat-completions client with catalog-driven model selection, pre-call
// budget checks and per-run usage accounting, plus a caching decorator.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	llmInitialBackoff = 1 * time.Second
	llmMaxAttempts    = 5
)

// Client calls any server exposing the /v1/chat/completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	catalog    contracts.ModelCatalog
	calc       contracts.CostCalculator
	estimator  contracts.TokenEstimator
	budget     contracts.BudgetEnforcer
	tracker    contracts.UsageTracker
	backoff    time.Duration
	httpClient *http.Client
	log        *zap.Logger
}

// Deps are the cost-control collaborators. Catalog and Calculator are
// required; the rest degrade gracefully when nil (no pre-call budget check,
// no usage tracking).
type Deps struct {
	Catalog    contracts.ModelCatalog
	Calculator contracts.CostCalculator
	Estimator  contracts.TokenEstimator
	Budget     contracts.BudgetEnforcer
	Tracker    contracts.UsageTracker
}

// Options tune transport behavior. Zero values fall back to production
// defaults.
type Options struct {
	BaseURL      string
	RetryBackoff time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// NewClient constructs an analysis client.
func NewClient(apiKey string, deps Deps, opts Options) (*Client, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("llm: nil catalog: %w", contracts.ErrInvalidInput)
	}
	if deps.Calculator == nil {
		return nil, fmt.Errorf("llm: nil calculator: %w", contracts.ErrInvalidInput)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = llmInitialBackoff
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		catalog:    deps.Catalog,
		calc:       deps.Calculator,
		estimator:  deps.Estimator,
		budget:     deps.Budget,
		tracker:    deps.Tracker,
		backoff:    opts.RetryBackoff,
		httpClient: opts.HTTPClient,
		log:        opts.Logger.Named("llm"),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Analyze resolves the request's role to a model, enforces the budget
// ceiling before spending, runs the call with retry on 429/504 and returns
// the reply with exact usage-priced cost.
func (c *Client) Analyze(ctx context.Context, req *contracts.AnalyzeRequest) (*contracts.Analysis, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("llm: empty request: %w", contracts.ErrInvalidInput)
	}

	model, ok := c.catalog.ByRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("llm: no model for role %q: %w", req.Role, contracts.ErrModelUnknown)
	}

	if err := c.checkBudget(req); err != nil {
		return nil, err
	}

	body, err := c.post(ctx, chatRequest{
		Model: string(model.ID),
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, eris.Wrap(err, "llm: decode response")
	}
	if len(decoded.Choices) == 0 {
		return nil, eris.New("llm: response contained no choices")
	}

	in := contracts.TokenCount(decoded.Usage.PromptTokens)
	out := contracts.TokenCount(decoded.Usage.CompletionTokens)
	cost, err := c.calc.Calculate(model.ID, in, out)
	if err != nil {
		return nil, eris.Wrap(err, "llm: price usage")
	}

	usage := contracts.Usage{InputTokens: in, OutputTokens: out, CostUSD: cost}
	if c.tracker != nil {
		c.tracker.Add(req.RunID, usage)
	}

	c.log.Debug("analysis complete",
		zap.String("node", string(req.Node)),
		zap.String("model", string(model.ID)),
		zap.Int64("input_tokens", int64(in)),
		zap.Int64("output_tokens", int64(out)),
		zap.Float64("cost_usd", cost),
	)

	return &contracts.Analysis{
		Text:  strings.TrimSpace(decoded.Choices[0].Message.Content),
		Model: model.ID,
		Usage: usage,
	}, nil
}

// checkBudget estimates the call's cost and refuses it when the run's spend
// plus the estimate would cross the ceiling.
func (c *Client) checkBudget(req *contracts.AnalyzeRequest) error {
	if c.budget == nil || c.estimator == nil {
		return nil
	}
	tokens := c.estimator.Estimate(req.System+req.Prompt) + contracts.TokenCount(req.MaxTokens)
	estimate, err := c.calc.EstimateByRole(req.Role, tokens)
	if err != nil {
		return eris.Wrap(err, "llm: estimate cost")
	}

	var spent float64
	if c.tracker != nil {
		spent = c.tracker.Snapshot(req.RunID).CostUSD
	}
	if err := c.budget.Allow(spent, estimate); err != nil {
		return eris.Wrapf(err, "llm: call for node %s refused", req.Node)
	}
	return nil
}

// post sends the payload, retrying rate-limit and gateway-timeout responses
// with doubling delay. After llmMaxAttempts it gives up with ErrRateLimited.
func (c *Client) post(ctx context.Context, payload chatRequest) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "llm: encode request")
	}
	url := strings.TrimRight(c.baseURL, "/") + "/chat/completions"

	delay := c.backoff
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, eris.Wrap(err, "llm: build request")
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "llm: request failed")
		}

		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, eris.Wrap(err, "llm: read response")
			}
			return body, nil
		}

		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()

		retryable := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusGatewayTimeout
		if !retryable {
			return nil, eris.Errorf("llm: http %d: %s", resp.StatusCode, string(errBody))
		}
		if attempt >= llmMaxAttempts {
			return nil, fmt.Errorf("llm: gave up after %d attempts (%s): %w",
				attempt, resp.Status, contracts.ErrRateLimited)
		}

		c.log.Debug("retrying after transient status",
			zap.Int("attempt", attempt),
			zap.String("status", resp.Status),
			zap.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
