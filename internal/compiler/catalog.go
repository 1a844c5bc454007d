package compiler

import (
	"fmt"
	"strings"

	"github.com/Kedar-V/Qualitrics-Automation/internal/qsf"
	"github.com/Kedar-V/Qualitrics-Automation/internal/roster"
)

// TemplateKind names one of the fixed parameterized question templates.
type TemplateKind string

const (
	// TemplateRatingMatrix produces a matrix question with one sub-row per
	// target entity, each carrying the configured rating scale.
	TemplateRatingMatrix TemplateKind = "rating-matrix"
	// TemplateFreeText produces a single open response field.
	TemplateFreeText TemplateKind = "free-text"
	// TemplateMultipleChoice produces a single-answer choice question.
	TemplateMultipleChoice TemplateKind = "multiple-choice"
	// TemplateEmbeddedDataStub produces a display-only question that pipes an
	// embedded-data field into the page (e.g. the mentor confirmation text).
	TemplateEmbeddedDataStub TemplateKind = "embedded-data-stub"
)

// InstantiateContext carries the owning team, the survey-level policy, and
// the prompt for one question instantiation.
type InstantiateContext struct {
	// Team is the owning team key; it anchors export-tag derivation.
	Team string
	// Subject is the entity the question concerns, empty for team-level
	// questions. A self-excluding target set never contains the subject.
	Subject string
	// Prompt is the question text.
	Prompt string
	// TagSuffix is the template's stable tag component.
	TagSuffix string
	// FixedTag overrides tag derivation entirely (intro/identity questions
	// whose tags are fixed by the downstream report pipeline).
	FixedTag string
	// Scale applies to rating-matrix instantiations.
	Scale qsf.Scale
	// Choices supplies explicit sub-rows or options for rating-matrix and
	// multiple-choice instantiations; when empty, the target entities' names
	// are used.
	Choices []string
	// EmbeddedField names the piped field for embedded-data stubs.
	EmbeddedField string
	// Required forces a response.
	Required bool
}

// instantiateFunc builds one concrete question from a template. The export
// tag is attached afterwards by the catalog, which owns tag bookkeeping.
type instantiateFunc func(alloc *Allocator, targets []roster.Entity, ictx InstantiateContext) qsf.Question

// Catalog maps template kinds to their instantiation logic and tracks export
// tags claimed during one build. A catalog, like the allocator it consumes
// ids from, is scoped to a single build.
type Catalog struct {
	templates map[TemplateKind]instantiateFunc
	tags      map[string]string
}

// NewCatalog returns a catalog with the built-in templates registered.
func NewCatalog() *Catalog {
	c := &Catalog{
		templates: make(map[TemplateKind]instantiateFunc),
		tags:      make(map[string]string),
	}
	c.register(TemplateRatingMatrix, instantiateRatingMatrix)
	c.register(TemplateFreeText, instantiateFreeText)
	c.register(TemplateMultipleChoice, instantiateMultipleChoice)
	c.register(TemplateEmbeddedDataStub, instantiateEmbeddedDataStub)
	return c
}

// register wires a template kind to its builder. Double registration is a
// programmer error.
func (c *Catalog) register(kind TemplateKind, fn instantiateFunc) {
	if _, exists := c.templates[kind]; exists {
		panic(fmt.Sprintf("template %q already registered", kind))
	}
	c.templates[kind] = fn
}

// Instantiate builds one question from the named template, allocating its id
// and deriving its export tag. Target order is preserved verbatim in any
// roster-derived choice set.
func (c *Catalog) Instantiate(alloc *Allocator, kind TemplateKind, targets []roster.Entity, ictx InstantiateContext) (qsf.Question, error) {
	fn, ok := c.templates[kind]
	if !ok {
		return qsf.Question{}, fmt.Errorf("unknown template kind %q", kind)
	}

	q := fn(alloc, targets, ictx)

	tag := ictx.FixedTag
	if tag == "" {
		tag = DeriveTag(ictx.Team, ictx.Subject, ictx.TagSuffix)
	}
	if claimed, exists := c.tags[tag]; exists {
		return qsf.Question{}, &TagCollisionError{Tag: tag, Existing: claimed, Incoming: q.ID}
	}
	c.tags[tag] = q.ID
	q.ExportTag = tag

	return q, nil
}

// DeriveTag builds a deterministic export tag from the team key, the subject
// entity key, and the template's tag component. Empty parts are skipped, so
// team-level tags come out as "<team>_<suffix>".
func DeriveTag(team, subject, suffix string) string {
	var parts []string
	for _, part := range []string{team, subject, suffix} {
		if part != "" {
			parts = append(parts, sanitizeTag(part))
		}
	}
	return strings.Join(parts, "_")
}

// sanitizeTag maps arbitrary roster strings onto the export-tag alphabet:
// spaces become underscores, anything outside [A-Za-z0-9_] is dropped.
func sanitizeTag(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func instantiateRatingMatrix(alloc *Allocator, targets []roster.Entity, ictx InstantiateContext) qsf.Question {
	choices := ictx.Choices
	if len(choices) == 0 {
		for _, target := range targets {
			choices = append(choices, target.Name)
		}
	}
	scale := ictx.Scale
	return qsf.Question{
		ID:       alloc.Next(KindQuestion),
		Kind:     qsf.RatingMatrix,
		Prompt:   ictx.Prompt,
		Choices:  choices,
		Scale:    &scale,
		Required: ictx.Required,
	}
}

func instantiateFreeText(alloc *Allocator, _ []roster.Entity, ictx InstantiateContext) qsf.Question {
	return qsf.Question{
		ID:       alloc.Next(KindQuestion),
		Kind:     qsf.FreeText,
		Prompt:   ictx.Prompt,
		Required: ictx.Required,
	}
}

func instantiateMultipleChoice(alloc *Allocator, targets []roster.Entity, ictx InstantiateContext) qsf.Question {
	choices := ictx.Choices
	if len(choices) == 0 {
		for _, target := range targets {
			choices = append(choices, target.Name)
		}
	}
	return qsf.Question{
		ID:       alloc.Next(KindQuestion),
		Kind:     qsf.MultipleChoice,
		Prompt:   ictx.Prompt,
		Choices:  choices,
		Required: ictx.Required,
	}
}

func instantiateEmbeddedDataStub(alloc *Allocator, _ []roster.Entity, ictx InstantiateContext) qsf.Question {
	prompt := ictx.Prompt
	if ictx.EmbeddedField != "" {
		prompt = fmt.Sprintf("%s ${e://Field/%s}", prompt, ictx.EmbeddedField)
	}
	return qsf.Question{
		ID:     alloc.Next(KindQuestion),
		Kind:   qsf.Descriptive,
		Prompt: prompt,
	}
}
