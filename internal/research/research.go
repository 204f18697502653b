// Package research runs a bounded reason-act loop over an optional web
// search tool and emits a schema-validated research result. The agent
// always terminates with some result, even under total tool failure.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/koopa0/autodraft/internal/extract"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
)

// Relevance grades how strongly a finding bears on the topic.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

// Finding is one sourced observation about the research topic.
type Finding struct {
	Source    string    `json:"source" jsonschema_description:"Where the finding came from (URL, publication or 'error')"`
	Relevance Relevance `json:"relevance" jsonschema_description:"One of high, medium, low"`
	KeyPoints []string  `json:"keyPoints" jsonschema_description:"Concise facts extracted from the source"`
	Date      string    `json:"date,omitempty" jsonschema_description:"Publication date when known"`
}

// Result is the agent's final output. Degraded results carry the failure in
// Reason and low-relevance findings citing the error instead of absent data.
type Result struct {
	Topic           string    `json:"topic"`
	Summary         string    `json:"summary" jsonschema_description:"Narrative summary of the research"`
	Findings        []Finding `json:"findings"`
	Recommendations []string  `json:"recommendations"`
	Degraded        bool      `json:"degraded,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// Degrade absorbs unstructured model output as the summary.
func (r *Result) Degrade(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	r.Summary = raw
	r.Degraded = true
	r.Reason = "unstructured model output"
	return true
}

const (
	actionSearch   = "search"
	actionFinalize = "finalize"
)

// plan is the agent's decision for one planning step.
type plan struct {
	Action string `json:"action" jsonschema_description:"Either \"search\" or \"finalize\""`
	Query  string `json:"query,omitempty" jsonschema_description:"Search query when action is \"search\""`
}

// Degrade maps an unparseable plan to finalize, so a confused model ends the
// loop instead of spinning.
func (p *plan) Degrade(string) bool {
	p.Action = actionFinalize
	return true
}

const planningPrompt = `You are researching a topic for a grant proposal.
Review the topic, the background and any observations gathered so far, then decide the next step:
- action "search" with a focused query, when a specific gap remains
- action "finalize", when the observations suffice to write the result`

const finalizePrompt = `You are writing up research for a grant proposal.
Summarize the topic using the observations below. Ground every finding in an observation; grade relevance honestly and mark error observations as low relevance.`

// Agent drives the research loop.
type Agent struct {
	engine       *extract.Engine
	search       genai.SearchTool
	maxToolCalls int
	logger       log.Logger

	planSchema   *extract.Schema[plan]
	resultSchema *extract.Schema[Result]
}

// New creates an Agent issuing at most maxToolCalls search calls per run.
// A nil search tool is replaced by a stub whose observations report the tool
// as unavailable.
func New(engine *extract.Engine, search genai.SearchTool, maxToolCalls int, logger log.Logger) (*Agent, error) {
	if maxToolCalls < 0 {
		return nil, fmt.Errorf("max tool calls must be non-negative, got %d", maxToolCalls)
	}
	planSchema, err := extract.SchemaFor[plan]()
	if err != nil {
		return nil, err
	}
	resultSchema, err := extract.SchemaFor[Result]()
	if err != nil {
		return nil, err
	}
	if search == nil {
		search = unavailableSearch{}
	}
	return &Agent{
		engine:       engine,
		search:       search,
		maxToolCalls: maxToolCalls,
		logger:       logger,
		planSchema:   planSchema,
		resultSchema: resultSchema,
	}, nil
}

// unavailableSearch stands in when no search tool is configured.
type unavailableSearch struct{}

func (unavailableSearch) Search(context.Context, string) (string, error) {
	return "", fmt.Errorf("search tool not configured: %w", genai.ErrUnavailable)
}

// Research runs the loop for topic. background carries caller context such as
// a project description; it may be empty. The returned Result is never
// absent: backend and tool failures degrade it rather than aborting.
func (a *Agent) Research(ctx context.Context, topic, background string) Result {
	var observations []string

	for call := 0; call < a.maxToolCalls; call++ {
		if ctx.Err() != nil {
			return a.degraded(topic, "cancelled", observations)
		}

		p, err := a.plan(ctx, topic, background, observations)
		if err != nil {
			a.logger.Warn("planning failed, finalizing early", "error", err, "tool_calls", call)
			break
		}
		if p.Action != actionSearch || p.Query == "" {
			break
		}

		observations = append(observations, a.observe(ctx, p.Query))
	}

	if ctx.Err() != nil {
		return a.degraded(topic, "cancelled", observations)
	}
	return a.finalize(ctx, topic, background, observations)
}

// plan asks the model for the next action.
func (a *Agent) plan(ctx context.Context, topic, background string, observations []string) (plan, error) {
	p, degraded, err := extract.Run(ctx, a.engine, a.planSchema, planningPrompt, planContext(topic, background, observations))
	if err != nil {
		return plan{}, err
	}
	if degraded {
		a.logger.Debug("plan degraded to finalize")
	}
	return p, nil
}

// observe executes one search call. Failures become a degraded observation
// rather than an error.
func (a *Agent) observe(ctx context.Context, query string) string {
	snippet, err := a.search.Search(ctx, query)
	if err != nil {
		a.logger.Warn("search failed, recording degraded observation", "error", err)
		return fmt.Sprintf("search unavailable for %q: %v", query, err)
	}
	return fmt.Sprintf("results for %q:\n%s", query, snippet)
}

// finalize asks the model for the structured result.
func (a *Agent) finalize(ctx context.Context, topic, background string, observations []string) Result {
	res, degraded, err := extract.Run(ctx, a.engine, a.resultSchema, finalizePrompt, planContext(topic, background, observations))
	if err != nil {
		a.logger.Warn("finalize failed, degrading result", "error", err)
		return a.degraded(topic, err.Error(), observations)
	}
	res.Topic = topic
	res.Degraded = res.Degraded || degraded
	return res
}

// degraded builds the last-resort result when even finalization fails.
func (a *Agent) degraded(topic, reason string, observations []string) Result {
	findings := make([]Finding, 0, len(observations))
	for _, obs := range observations {
		findings = append(findings, Finding{
			Source:    "error",
			Relevance: RelevanceLow,
			KeyPoints: []string{obs},
		})
	}
	return Result{
		Topic:    topic,
		Summary:  "research unavailable",
		Findings: findings,
		Degraded: true,
		Reason:   reason,
	}
}

func planContext(topic, background string, observations []string) string {
	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(topic)
	if background != "" {
		b.WriteString("\nBackground: ")
		b.WriteString(background)
	}
	if len(observations) == 0 {
		b.WriteString("\n\nNo observations gathered yet.")
		return b.String()
	}
	b.WriteString("\n\nObservations:\n")
	for i, obs := range observations {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, obs)
	}
	return b.String()
}
