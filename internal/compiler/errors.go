package compiler

import "fmt"

// TagCollisionError reports two questions resolving the same export tag.
// Tags are derived from keys that are unique per team, so a collision is an
// internal bug and aborts the build.
type TagCollisionError struct {
	Tag      string
	Existing string
	Incoming string
}

func (e *TagCollisionError) Error() string {
	return fmt.Sprintf("export tag %q already claimed by question %s (incoming %s)", e.Tag, e.Existing, e.Incoming)
}

// EmptyBlockError reports a team that produced zero questions despite having
// at least one member. It usually signals a template mismatch, such as a
// one-member team under a peer-rating plan that requires teammates.
type EmptyBlockError struct {
	Team string
}

func (e *EmptyBlockError) Error() string {
	return fmt.Sprintf("team %q produced no questions", e.Team)
}

// OrphanBlockError reports a block that is missing from the composed flow.
// An unreferenced block would import as unreachable content.
type OrphanBlockError struct {
	BlockID string
}

func (e *OrphanBlockError) Error() string {
	return fmt.Sprintf("block %s is not referenced by the survey flow", e.BlockID)
}

// Invariant identifies one of the document-level invariants enforced before a
// document is released.
type Invariant string

const (
	// InvariantIDUniqueness: every question, block, and flow-element id is
	// unique within the document.
	InvariantIDUniqueness Invariant = "id-uniqueness"
	// InvariantQuestionOwnership: every question belongs to exactly one
	// block, and blocks reference only existing questions.
	InvariantQuestionOwnership Invariant = "question-ownership"
	// InvariantFlowClosure: flow block references and the block set match
	// one-to-one.
	InvariantFlowClosure Invariant = "flow-closure"
	// InvariantTagUniqueness: no two questions share an export tag.
	InvariantTagUniqueness Invariant = "tag-uniqueness"
	// InvariantChoiceOrder: roster-derived choice sets preserve roster order
	// and never list the rated member in their own set.
	InvariantChoiceOrder Invariant = "choice-order"
)

// InvalidDocumentError reports a failed final invariant check, naming the
// violated invariant. A document carrying this error is never serialized.
type InvalidDocumentError struct {
	Invariant Invariant
	Detail    string
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("document violates invariant %s: %s", e.Invariant, e.Detail)
}
