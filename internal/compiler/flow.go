package compiler

import (
	"github.com/Kedar-V/Qualitrics-Automation/internal/qsf"
)

// MentorField is the embedded-data field carrying a team's mentor display
// name. The platform offers no server-side default for it, so the document
// declares it with an explicit empty default and sets per-team overrides in
// the flow.
const MentorField = "Mentor_Name_DB"

// TeamFlow describes one team's contribution to the survey flow.
type TeamFlow struct {
	Team string
	// Blocks are the team's assembled blocks, in assembly order.
	Blocks []qsf.Block
	// MentorOverride, when non-empty, sets MentorField for this team's
	// branch. Empty keeps the document-level default.
	MentorOverride string
	// Condition gates the team's branch on the intro team-selector choice.
	Condition qsf.BranchCondition
}

// Compose orders the document's flow: a single structural element declaring
// the embedded-data fields, the intro blocks, then one gated branch per team
// in assembly order. Every block handed in must come out referenced exactly
// once; a missing block fails with OrphanBlockError, since a block dropped
// from the flow would import as unreachable.
func Compose(alloc *Allocator, fields []qsf.EmbeddedField, intro []qsf.Block, teams []TeamFlow) ([]qsf.FlowElement, error) {
	var flow []qsf.FlowElement

	flow = append(flow, qsf.FlowElement{
		Kind:   qsf.FlowEmbeddedData,
		FlowID: alloc.Next(KindFlow),
		Fields: fields,
	})

	for i := range intro {
		flow = append(flow, qsf.FlowElement{
			Kind:    qsf.FlowBlockRef,
			FlowID:  alloc.Next(KindFlow),
			BlockID: intro[i].ID,
		})
	}

	for i := range teams {
		team := &teams[i]
		condition := team.Condition
		branch := qsf.FlowElement{
			Kind:      qsf.FlowBranch,
			FlowID:    alloc.Next(KindFlow),
			Condition: &condition,
		}

		if team.MentorOverride != "" {
			branch.Children = append(branch.Children, qsf.FlowElement{
				Kind:   qsf.FlowEmbeddedData,
				FlowID: alloc.Next(KindFlow),
				Fields: []qsf.EmbeddedField{{Name: MentorField, Value: team.MentorOverride}},
			})
		}

		for j := range team.Blocks {
			branch.Children = append(branch.Children, qsf.FlowElement{
				Kind:    qsf.FlowBlockRef,
				FlowID:  alloc.Next(KindFlow),
				BlockID: team.Blocks[j].ID,
			})
		}

		flow = append(flow, branch)
	}

	if err := assertFlowCovers(flow, intro, teams); err != nil {
		return nil, err
	}
	return flow, nil
}

// assertFlowCovers verifies that every assembled block is referenced by the
// composed flow.
func assertFlowCovers(flow []qsf.FlowElement, intro []qsf.Block, teams []TeamFlow) error {
	referenced := make(map[string]bool)
	collectBlockRefs(flow, referenced)

	check := func(blocks []qsf.Block) error {
		for i := range blocks {
			if !referenced[blocks[i].ID] {
				return &OrphanBlockError{BlockID: blocks[i].ID}
			}
		}
		return nil
	}

	if err := check(intro); err != nil {
		return err
	}
	for i := range teams {
		if err := check(teams[i].Blocks); err != nil {
			return err
		}
	}
	return nil
}

func collectBlockRefs(flow []qsf.FlowElement, into map[string]bool) {
	for i := range flow {
		if flow[i].Kind == qsf.FlowBlockRef {
			into[flow[i].BlockID] = true
		}
		collectBlockRefs(flow[i].Children, into)
	}
}
