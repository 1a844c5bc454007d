package qsf

// SchemaVersion is the fixed schema/version token the target import pipeline
// expects in the document header. It is a constant of the platform, not
// something the compiler computes.
const SchemaVersion = "1.1.0"

// RootFlowID is the reserved identifier of the flow root element. Allocated
// flow ids start after it.
const RootFlowID = "FL_1"

// QuestionKind enumerates the fixed family of question shapes the compiler
// emits.
type QuestionKind int

const (
	// RatingMatrix is a matrix question with one sub-row per rated entity,
	// each carrying the document's rating scale.
	RatingMatrix QuestionKind = iota
	// FreeText is a single open response field with no choice set.
	FreeText
	// MultipleChoice is a single-answer choice question.
	MultipleChoice
	// Descriptive is display-only text with no response.
	Descriptive
)

// String returns the wire name of the question kind.
func (k QuestionKind) String() string {
	switch k {
	case RatingMatrix:
		return "rating-matrix"
	case FreeText:
		return "free-text"
	case MultipleChoice:
		return "multiple-choice"
	case Descriptive:
		return "descriptive"
	}
	return "unknown"
}

// Scale describes the rating scale attached to every rating-matrix sub-row,
// with labeled anchors at the extremes.
type Scale struct {
	Min      int
	Max      int
	MinLabel string
	MaxLabel string
}

// Question is one concrete survey question. It is created once by the
// catalog, attached to exactly one Block, and never mutated afterwards.
type Question struct {
	ID     string
	Kind   QuestionKind
	Prompt string

	// Choices is the ordered choice set. For RatingMatrix it holds the
	// sub-row labels (one per rated entity); for MultipleChoice the
	// selectable options. Empty for FreeText and Descriptive.
	Choices []string

	// Scale is set for RatingMatrix questions only.
	Scale *Scale

	// ExportTag is the stable column identifier for this question's answers
	// in exported response data. Unique per document.
	ExportTag string

	Required bool
}

// Block is a named group of questions shown together.
type Block struct {
	ID    string
	Label string

	// Default marks the survey's entry block (the intro/identity section).
	Default bool

	// QuestionIDs lists the block's questions in display order. Every id
	// must resolve against the document's question set.
	QuestionIDs []string
}

// FlowKind enumerates the flow element variants.
type FlowKind int

const (
	// FlowBlockRef references one Block by id.
	FlowBlockRef FlowKind = iota
	// FlowEmbeddedData declares or sets embedded-data fields.
	FlowEmbeddedData
	// FlowBranch gates its child elements on a choice made in an earlier
	// question.
	FlowBranch
)

// EmbeddedField is one document-level key/default-value pair carried through
// to every response record.
type EmbeddedField struct {
	Name  string
	Value string
}

// BranchCondition gates a FlowBranch on a selectable choice of a question.
type BranchCondition struct {
	// QuestionID is the gating question (the team selector).
	QuestionID string
	// ChoiceID is the selectable choice that activates the branch.
	ChoiceID string
	// Label is the human-readable description of the gated choice.
	Label string
}

// FlowElement is a tagged variant: a block reference, an embedded-data
// declaration/setter, or a branch holding child elements.
type FlowElement struct {
	Kind   FlowKind
	FlowID string

	// BlockID is set for FlowBlockRef.
	BlockID string

	// Fields is set for FlowEmbeddedData.
	Fields []EmbeddedField

	// Condition and Children are set for FlowBranch.
	Condition *BranchCondition
	Children  []FlowElement
}

// Document is the complete survey specification. All slices are in emission
// order; encoding walks them without reordering.
type Document struct {
	SurveyID   string
	SurveyName string

	Questions []Question
	Blocks    []Block
	Flow      []FlowElement

	// EmbeddedDefaults are the document-level embedded-data fields and their
	// default values, declared at the head of the flow.
	EmbeddedDefaults []EmbeddedField
}

// QuestionByID resolves a question id against the document's question set.
func (d *Document) QuestionByID(id string) (*Question, bool) {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return &d.Questions[i], true
		}
	}
	return nil, false
}

// ExportTags returns every question's export tag in question order.
func (d *Document) ExportTags() []string {
	tags := make([]string, 0, len(d.Questions))
	for i := range d.Questions {
		tags = append(tags, d.Questions[i].ExportTag)
	}
	return tags
}
