// Package draft composes grant-proposal text: individual sections grounded
// in a research pass, full-proposal generation, outlines and revision.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/koopa0/autodraft/internal/extract"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/research"
)

// Sections lists the canonical proposal sections, in document order. Keys in
// GenerateAllSections results are exactly these.
var Sections = []string{"abstract", "introduction", "methodology", "budget", "timeline"}

// ErrUnknownSection indicates a section type outside the canonical list.
var ErrUnknownSection = fmt.Errorf("unknown section type (want one of %s)", strings.Join(Sections, ", "))

// ErrUnknownTransformation indicates an unrecognized transformation name.
var ErrUnknownTransformation = errors.New("unknown transformation")

// SectionContent is one generated proposal section.
type SectionContent struct {
	Content     string   `json:"content" jsonschema_description:"The section text in markdown"`
	Sources     []string `json:"sources" jsonschema_description:"Sources the text draws on"`
	Suggestions []string `json:"suggestions" jsonschema_description:"Follow-up suggestions for the author"`
	Degraded    bool     `json:"degraded,omitempty"`
}

// Degrade absorbs unstructured model output as the section body.
func (s *SectionContent) Degrade(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	s.Content = raw
	s.Degraded = true
	return true
}

// Writer generates proposal text.
type Writer struct {
	engine *extract.Engine
	client genai.GenerationClient
	agent  *research.Agent
	logger log.Logger

	sectionSchema *extract.Schema[SectionContent]
}

// NewWriter creates a Writer. The research agent grounds section content;
// the bare generation client serves the free-text operations.
func NewWriter(engine *extract.Engine, client genai.GenerationClient, agent *research.Agent, logger log.Logger) (*Writer, error) {
	schema, err := extract.SchemaFor[SectionContent]()
	if err != nil {
		return nil, err
	}
	return &Writer{
		engine:        engine,
		client:        client,
		agent:         agent,
		logger:        logger,
		sectionSchema: schema,
	}, nil
}

const sectionPrompt = `You write sections of grant proposals.
Write the requested section in clear, reviewer-facing markdown. Draw on the research notes when present and list the sources you used.`

// GenerateSection writes one section. When res is nil a fresh research pass
// runs first; callers generating several sections should run the pass once
// and share it.
func (w *Writer) GenerateSection(ctx context.Context, sectionType, title, description string, res *research.Result) (SectionContent, error) {
	if !validSection(sectionType) {
		return SectionContent{}, fmt.Errorf("%w: %q", ErrUnknownSection, sectionType)
	}
	if res == nil {
		r := w.agent.Research(ctx, title, description)
		res = &r
	}

	prompt := fmt.Sprintf("Section: %s\nProposal title: %s\nProposal description: %s\n\nResearch notes:\n%s",
		sectionType, title, description, researchNotes(res))

	section, degraded, err := extract.Run(ctx, w.engine, w.sectionSchema, sectionPrompt, prompt)
	if err != nil {
		return SectionContent{}, fmt.Errorf("generating %s section: %w", sectionType, err)
	}
	section.Degraded = section.Degraded || degraded || res.Degraded
	return section, nil
}

// GenerateAllSections writes every canonical section off one shared research
// pass. The result maps each section type in Sections to its content.
func (w *Writer) GenerateAllSections(ctx context.Context, title, description string) (map[string]SectionContent, error) {
	res := w.agent.Research(ctx, title, description)

	out := make(map[string]SectionContent, len(Sections))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, sectionType := range Sections {
		g.Go(func() error {
			section, err := w.GenerateSection(gctx, sectionType, title, description, &res)
			if err != nil {
				return err
			}
			mu.Lock()
			out[sectionType] = section
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

const outlinePrompt = `You outline grant proposals.
Produce a markdown outline with one heading per canonical section (Abstract, Introduction, Methodology, Budget, Timeline) and two or three bullet points under each.`

// GenerateOutline produces a proposal outline as markdown.
func (w *Writer) GenerateOutline(ctx context.Context, title, description string) (string, error) {
	text, err := w.client.Generate(ctx, []genai.Message{
		genai.System(outlinePrompt),
		genai.User(fmt.Sprintf("Title: %s\nDescription: %s", title, description)),
	})
	if err != nil {
		return "", fmt.Errorf("generating outline: %w", err)
	}
	return text, nil
}

const improvePrompt = `You revise grant-proposal text.
Rewrite the draft to address the instruction. Preserve factual claims and markdown structure; return only the revised text.`

// ImproveDraft rewrites draft text per the instruction.
func (w *Writer) ImproveDraft(ctx context.Context, draft, instruction string) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", fmt.Errorf("draft must not be empty")
	}
	text, err := w.client.Generate(ctx, []genai.Message{
		genai.System(improvePrompt),
		genai.User(fmt.Sprintf("Instruction: %s\n\nDraft:\n%s", instruction, draft)),
	})
	if err != nil {
		return "", fmt.Errorf("improving draft: %w", err)
	}
	return text, nil
}

// Transform applies a named transformation (e.g. "shorten", "formalize",
// "simplify") to text. Thin wrapper over ImproveDraft with a canned
// instruction.
func (w *Writer) Transform(ctx context.Context, text, transformation string) (string, error) {
	instruction, ok := transformations[transformation]
	if !ok {
		return "", fmt.Errorf("%w: %q (want one of %s)",
			ErrUnknownTransformation, transformation, strings.Join(transformationNames(), ", "))
	}
	return w.ImproveDraft(ctx, text, instruction)
}

var transformations = map[string]string{
	"rewrite":   "Rewrite the text to convey the same meaning with different wording.",
	"improve":   "Improve the text by enhancing clarity, grammar and style.",
	"shorten":   "Shorten the text by roughly half without losing key facts.",
	"expand":    "Expand the text with supporting detail while keeping its claims.",
	"formalize": "Rewrite the text in a formal, reviewer-facing register.",
	"simplify":  "Rewrite the text in plain language a non-specialist can follow.",
}

// AssembleDocument combines generated sections into one markdown document,
// in canonical section order. Section types absent from the map are skipped.
func AssembleDocument(sections map[string]SectionContent) string {
	parts := make([]string, 0, len(Sections))
	for _, sectionType := range Sections {
		section, ok := sections[sectionType]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("# %s\n\n%s", sectionHeading(sectionType), strings.TrimSpace(section.Content)))
	}
	return strings.Join(parts, "\n\n")
}

// sectionHeading capitalizes a canonical section type for use as a heading.
func sectionHeading(sectionType string) string {
	if sectionType == "" {
		return sectionType
	}
	return strings.ToUpper(sectionType[:1]) + sectionType[1:]
}

func transformationNames() []string {
	names := make([]string, 0, len(transformations))
	for name := range transformations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validSection(sectionType string) bool {
	for _, s := range Sections {
		if s == sectionType {
			return true
		}
	}
	return false
}

func researchNotes(res *research.Result) string {
	var b strings.Builder
	b.WriteString(res.Summary)
	for _, f := range res.Findings {
		fmt.Fprintf(&b, "\n- [%s] %s: %s", f.Relevance, f.Source, strings.Join(f.KeyPoints, "; "))
	}
	if len(res.Recommendations) > 0 {
		b.WriteString("\nRecommendations: ")
		b.WriteString(strings.Join(res.Recommendations, "; "))
	}
	return b.String()
}
