// Package compliance checks proposal text for mission alignment, regulatory
// issues and formatting problems, and finds gaps against grant requirements.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/koopa0/autodraft/internal/extract"
	"github.com/koopa0/autodraft/internal/log"
)

// Issue is one compliance finding.
type Issue struct {
	Severity    string `json:"severity" jsonschema_description:"One of high, medium, low"`
	Category    string `json:"category" jsonschema_description:"One of mission_alignment, regulatory, format, other"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// CheckResult is the outcome of a compliance check. Degraded marks results
// recovered from partially valid model output.
type CheckResult struct {
	Compliant bool    `json:"compliant"`
	Issues    []Issue `json:"issues"`
	Score     float64 `json:"score" jsonschema_description:"Overall compliance score from 0 to 1"`
	Degraded  bool    `json:"degraded,omitempty"`
}

// GapItem is one missing or weak area of the proposal.
type GapItem struct {
	Section        string `json:"section"`
	GapDescription string `json:"gapDescription"`
	Importance     string `json:"importance" jsonschema_description:"One of critical, high, medium, low"`
	Recommendation string `json:"recommendation"`
}

// GapResult is the outcome of a gap analysis.
type GapResult struct {
	Complete          bool      `json:"complete"`
	Gaps              []GapItem `json:"gaps"`
	CompletenessScore float64   `json:"completenessScore" jsonschema_description:"Overall completeness score from 0 to 1"`
	OverallAssessment string    `json:"overallAssessment"`
	Degraded          bool      `json:"degraded,omitempty"`
}

// Degrade keeps unstructured evaluator output as the assessment text.
func (g *GapResult) Degrade(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	g.OverallAssessment = raw
	g.Degraded = true
	return true
}

// Defaults used when the caller supplies no organisation profile.
const (
	defaultMission      = "Improving education and environmental sustainability in underserved communities"
	defaultRequirements = "Projects must focus on sustainability, include clear metrics, and have community involvement"
)

const checkPrompt = `You are a grant compliance checker.
Analyse the proposal for mission alignment, regulatory issues, formatting problems and grant-writing best practices.`

const gapPrompt = `You are a grant proposal evaluator.
Identify gaps or weaknesses in the proposal sections below, judged against the grant requirements.`

// Checker runs compliance checks and gap analyses.
type Checker struct {
	engine *extract.Engine
	logger log.Logger

	checkSchema *extract.Schema[CheckResult]
	gapSchema   *extract.Schema[GapResult]
}

// NewChecker creates a Checker.
func NewChecker(engine *extract.Engine, logger log.Logger) (*Checker, error) {
	checkSchema, err := extract.SchemaFor[CheckResult]()
	if err != nil {
		return nil, err
	}
	gapSchema, err := extract.SchemaFor[GapResult]()
	if err != nil {
		return nil, err
	}
	return &Checker{engine: engine, logger: logger, checkSchema: checkSchema, gapSchema: gapSchema}, nil
}

// Check evaluates content against the organisation mission and grant
// requirements (defaults apply when empty). CheckResult has no text field
// that could absorb raw output, so unparseable model replies surface as
// *extract.ParseError.
func (c *Checker) Check(ctx context.Context, content, mission, requirements string) (CheckResult, error) {
	if strings.TrimSpace(content) == "" {
		return CheckResult{}, fmt.Errorf("content must not be empty")
	}
	if mission == "" {
		mission = defaultMission
	}
	if requirements == "" {
		requirements = defaultRequirements
	}

	prompt := fmt.Sprintf("%s\n\nOrganisation mission:\n%s\n\nGrant requirements:\n%s", content, mission, requirements)
	res, degraded, err := extract.Run(ctx, c.engine, c.checkSchema, checkPrompt, prompt)
	if err != nil {
		return CheckResult{}, fmt.Errorf("compliance check: %w", err)
	}
	res.Degraded = res.Degraded || degraded
	return res, nil
}

// AnalyzeGaps evaluates content for missing or weak areas against the grant
// requirements. Unstructured model output degrades into the assessment text.
func (c *Checker) AnalyzeGaps(ctx context.Context, content, requirements string) (GapResult, error) {
	if strings.TrimSpace(content) == "" {
		return GapResult{}, fmt.Errorf("content must not be empty")
	}
	if requirements == "" {
		requirements = defaultRequirements
	}

	prompt := fmt.Sprintf("%s\n\nGrant requirements:\n%s", content, requirements)
	res, degraded, err := extract.Run(ctx, c.engine, c.gapSchema, gapPrompt, prompt)
	if err != nil {
		return GapResult{}, fmt.Errorf("gap analysis: %w", err)
	}
	res.Degraded = res.Degraded || degraded
	return res, nil
}
