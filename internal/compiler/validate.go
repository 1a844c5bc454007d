package compiler

import (
	"fmt"

	"github.com/Kedar-V/Qualitrics-Automation/internal/qsf"
)

// choiceProvenance records, at instantiation time, what a roster-derived
// choice set must look like: the ordered targets and the subject that must
// not appear among them. The validator replays it against the finished
// document.
type choiceProvenance struct {
	subject string
	want    []string
}

// validateDocument enforces the five document invariants. It returns an
// InvalidDocumentError naming the first violated invariant, or nil for a
// releasable document.
func validateDocument(doc *qsf.Document, prov map[string]choiceProvenance) error {
	if err := validateIDUniqueness(doc); err != nil {
		return err
	}
	if err := validateQuestionOwnership(doc); err != nil {
		return err
	}
	if err := validateFlowClosure(doc); err != nil {
		return err
	}
	if err := validateTagUniqueness(doc); err != nil {
		return err
	}
	return validateChoiceSets(doc, prov)
}

func validateIDUniqueness(doc *qsf.Document) error {
	seen := make(map[string]string)
	claim := func(id, owner string) error {
		if id == "" {
			return &InvalidDocumentError{
				Invariant: InvariantIDUniqueness,
				Detail:    fmt.Sprintf("%s has an empty id", owner),
			}
		}
		if prev, ok := seen[id]; ok {
			return &InvalidDocumentError{
				Invariant: InvariantIDUniqueness,
				Detail:    fmt.Sprintf("id %s claimed by both %s and %s", id, prev, owner),
			}
		}
		seen[id] = owner
		return nil
	}

	for i := range doc.Questions {
		if err := claim(doc.Questions[i].ID, "question"); err != nil {
			return err
		}
	}
	for i := range doc.Blocks {
		if err := claim(doc.Blocks[i].ID, "block"); err != nil {
			return err
		}
	}
	var walk func(flow []qsf.FlowElement) error
	walk = func(flow []qsf.FlowElement) error {
		for i := range flow {
			if err := claim(flow[i].FlowID, "flow element"); err != nil {
				return err
			}
			if err := walk(flow[i].Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(doc.Flow)
}

func validateQuestionOwnership(doc *qsf.Document) error {
	owners := make(map[string]string)
	for i := range doc.Blocks {
		block := &doc.Blocks[i]
		for _, qid := range block.QuestionIDs {
			if _, exists := doc.QuestionByID(qid); !exists {
				return &InvalidDocumentError{
					Invariant: InvariantQuestionOwnership,
					Detail:    fmt.Sprintf("block %s references unknown question %s", block.ID, qid),
				}
			}
			if owner, claimed := owners[qid]; claimed {
				return &InvalidDocumentError{
					Invariant: InvariantQuestionOwnership,
					Detail:    fmt.Sprintf("question %s owned by both block %s and block %s", qid, owner, block.ID),
				}
			}
			owners[qid] = block.ID
		}
	}
	for i := range doc.Questions {
		if _, owned := owners[doc.Questions[i].ID]; !owned {
			return &InvalidDocumentError{
				Invariant: InvariantQuestionOwnership,
				Detail:    fmt.Sprintf("question %s is not owned by any block", doc.Questions[i].ID),
			}
		}
	}
	return nil
}

func validateFlowClosure(doc *qsf.Document) error {
	blocks := make(map[string]bool, len(doc.Blocks))
	for i := range doc.Blocks {
		blocks[doc.Blocks[i].ID] = true
	}

	refCounts := make(map[string]int)
	var walk func(flow []qsf.FlowElement) error
	walk = func(flow []qsf.FlowElement) error {
		for i := range flow {
			el := &flow[i]
			if el.Kind == qsf.FlowBlockRef {
				if !blocks[el.BlockID] {
					return &InvalidDocumentError{
						Invariant: InvariantFlowClosure,
						Detail:    fmt.Sprintf("flow element %s references unknown block %s", el.FlowID, el.BlockID),
					}
				}
				refCounts[el.BlockID]++
			}
			if err := walk(el.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc.Flow); err != nil {
		return err
	}

	for i := range doc.Blocks {
		id := doc.Blocks[i].ID
		switch refCounts[id] {
		case 1:
		case 0:
			return &InvalidDocumentError{
				Invariant: InvariantFlowClosure,
				Detail:    fmt.Sprintf("block %s never appears in the flow", id),
			}
		default:
			return &InvalidDocumentError{
				Invariant: InvariantFlowClosure,
				Detail:    fmt.Sprintf("block %s appears in the flow %d times", id, refCounts[id]),
			}
		}
	}
	return nil
}

func validateTagUniqueness(doc *qsf.Document) error {
	seen := make(map[string]string)
	for i := range doc.Questions {
		q := &doc.Questions[i]
		if q.ExportTag == "" {
			return &InvalidDocumentError{
				Invariant: InvariantTagUniqueness,
				Detail:    fmt.Sprintf("question %s has no export tag", q.ID),
			}
		}
		if prev, ok := seen[q.ExportTag]; ok {
			return &InvalidDocumentError{
				Invariant: InvariantTagUniqueness,
				Detail:    fmt.Sprintf("export tag %q shared by questions %s and %s", q.ExportTag, prev, q.ID),
			}
		}
		seen[q.ExportTag] = q.ID
	}
	return nil
}

func validateChoiceSets(doc *qsf.Document, prov map[string]choiceProvenance) error {
	for qid, p := range prov {
		q, ok := doc.QuestionByID(qid)
		if !ok {
			return &InvalidDocumentError{
				Invariant: InvariantChoiceOrder,
				Detail:    fmt.Sprintf("provenance recorded for unknown question %s", qid),
			}
		}
		if len(q.Choices) != len(p.want) {
			return &InvalidDocumentError{
				Invariant: InvariantChoiceOrder,
				Detail:    fmt.Sprintf("question %s has %d choices, expected %d", qid, len(q.Choices), len(p.want)),
			}
		}
		for i := range p.want {
			if q.Choices[i] != p.want[i] {
				return &InvalidDocumentError{
					Invariant: InvariantChoiceOrder,
					Detail:    fmt.Sprintf("question %s choice %d is %q, expected %q (roster order)", qid, i, q.Choices[i], p.want[i]),
				}
			}
			if p.subject != "" && q.Choices[i] == p.subject {
				return &InvalidDocumentError{
					Invariant: InvariantChoiceOrder,
					Detail:    fmt.Sprintf("question %s lists its own subject %q in the choice set", qid, p.subject),
				}
			}
		}
	}
	return nil
}
