package compiler

import "github.com/Kedar-V/Qualitrics-Automation/internal/qsf"

// Assemble groups the questions produced for one team (or logical section)
// into a single block, in generation order. A team that yielded no questions
// is an upstream template mismatch and fails with EmptyBlockError rather
// than producing an empty block the platform would reject.
func Assemble(alloc *Allocator, team, label string, questions []qsf.Question) (qsf.Block, error) {
	if len(questions) == 0 {
		return qsf.Block{}, &EmptyBlockError{Team: team}
	}

	block := qsf.Block{
		ID:          alloc.Next(KindBlock),
		Label:       label,
		QuestionIDs: make([]string, 0, len(questions)),
	}
	for i := range questions {
		block.QuestionIDs = append(block.QuestionIDs, questions[i].ID)
	}
	return block, nil
}
