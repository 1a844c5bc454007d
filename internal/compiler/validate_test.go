package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kedar-V/Qualitrics-Automation/internal/qsf"
)

// validDocument builds the smallest document that passes every check.
func validDocument() *qsf.Document {
	return &qsf.Document{
		SurveyID: "SV_test",
		Questions: []qsf.Question{
			{ID: "QID1", Kind: qsf.FreeText, ExportTag: "Name"},
		},
		Blocks: []qsf.Block{
			{ID: "BL_1", Label: "Intro", QuestionIDs: []string{"QID1"}},
		},
		Flow: []qsf.FlowElement{
			{Kind: qsf.FlowBlockRef, FlowID: "FL_2", BlockID: "BL_1"},
		},
	}
}

func requireInvariant(t *testing.T, err error, invariant Invariant) *InvalidDocumentError {
	t.Helper()
	var invalid *InvalidDocumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, invariant, invalid.Invariant)
	return invalid
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	assert.NoError(t, validateDocument(validDocument(), nil))
}

func TestValidateDuplicateID(t *testing.T) {
	doc := validDocument()
	doc.Blocks[0].ID = "QID1"

	err := validateDocument(doc, nil)
	invalid := requireInvariant(t, err, InvariantIDUniqueness)
	assert.Contains(t, invalid.Detail, "QID1")
}

func TestValidateUnownedQuestion(t *testing.T) {
	doc := validDocument()
	doc.Questions = append(doc.Questions, qsf.Question{ID: "QID2", ExportTag: "Email"})

	err := validateDocument(doc, nil)
	requireInvariant(t, err, InvariantQuestionOwnership)
}

func TestValidateDanglingQuestionReference(t *testing.T) {
	doc := validDocument()
	doc.Blocks[0].QuestionIDs = append(doc.Blocks[0].QuestionIDs, "QID99")

	err := validateDocument(doc, nil)
	requireInvariant(t, err, InvariantQuestionOwnership)
}

func TestValidateDoublyOwnedQuestion(t *testing.T) {
	doc := validDocument()
	doc.Blocks = append(doc.Blocks, qsf.Block{ID: "BL_2", QuestionIDs: []string{"QID1"}})
	doc.Flow = append(doc.Flow, qsf.FlowElement{Kind: qsf.FlowBlockRef, FlowID: "FL_3", BlockID: "BL_2"})

	err := validateDocument(doc, nil)
	requireInvariant(t, err, InvariantQuestionOwnership)
}

func TestValidateUnreferencedBlock(t *testing.T) {
	doc := validDocument()
	doc.Flow = nil

	err := validateDocument(doc, nil)
	invalid := requireInvariant(t, err, InvariantFlowClosure)
	assert.Contains(t, invalid.Detail, "never appears in the flow")
}

func TestValidateDanglingFlowReference(t *testing.T) {
	doc := validDocument()
	doc.Flow[0].BlockID = "BL_99"

	err := validateDocument(doc, nil)
	invalid := requireInvariant(t, err, InvariantFlowClosure)
	assert.Contains(t, invalid.Detail, "BL_99")
}

func TestValidateDoubleFlowReference(t *testing.T) {
	doc := validDocument()
	doc.Flow = append(doc.Flow, qsf.FlowElement{Kind: qsf.FlowBlockRef, FlowID: "FL_3", BlockID: "BL_1"})

	err := validateDocument(doc, nil)
	requireInvariant(t, err, InvariantFlowClosure)
}

func TestValidateDuplicateExportTag(t *testing.T) {
	doc := validDocument()
	doc.Questions = append(doc.Questions, qsf.Question{ID: "QID2", ExportTag: "Name"})
	doc.Blocks[0].QuestionIDs = append(doc.Blocks[0].QuestionIDs, "QID2")

	err := validateDocument(doc, nil)
	invalid := requireInvariant(t, err, InvariantTagUniqueness)
	assert.Contains(t, invalid.Detail, `"Name"`)
}

func TestValidateMissingExportTag(t *testing.T) {
	doc := validDocument()
	doc.Questions[0].ExportTag = ""

	err := validateDocument(doc, nil)
	requireInvariant(t, err, InvariantTagUniqueness)
}

func TestValidateChoiceOrderMismatch(t *testing.T) {
	doc := validDocument()
	doc.Questions[0].Choices = []string{"Carol", "Bob"}
	prov := map[string]choiceProvenance{
		"QID1": {want: []string{"Bob", "Carol"}},
	}

	err := validateDocument(doc, prov)
	invalid := requireInvariant(t, err, InvariantChoiceOrder)
	assert.Contains(t, invalid.Detail, "roster order")
}

func TestValidateSubjectInOwnChoices(t *testing.T) {
	doc := validDocument()
	doc.Questions[0].Choices = []string{"Alice", "Bob"}
	prov := map[string]choiceProvenance{
		"QID1": {subject: "Alice", want: []string{"Alice", "Bob"}},
	}

	err := validateDocument(doc, prov)
	invalid := requireInvariant(t, err, InvariantChoiceOrder)
	assert.Contains(t, invalid.Detail, "own subject")
}
