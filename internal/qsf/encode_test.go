package qsf

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() *Document {
	return &Document{
		SurveyID:   "SV_test000000000",
		SurveyName: "Encoder Test Survey",
		Questions: []Question{
			{
				ID:        "QID1",
				Kind:      RatingMatrix,
				Prompt:    "Rate your teammates.",
				Choices:   []string{"Bob", "Carol"},
				Scale:     &Scale{Min: 1, Max: 3, MinLabel: "Poor", MaxLabel: "Great"},
				ExportTag: "team1_Alice_Peers",
				Required:  true,
			},
			{
				ID:        "QID2",
				Kind:      FreeText,
				Prompt:    "Any feedback?",
				ExportTag: "team1_Feedback",
			},
		},
		Blocks: []Block{
			{ID: "BL_1", Label: "Intro", Default: true, QuestionIDs: []string{"QID1"}},
			{ID: "BL_2", Label: "team1", QuestionIDs: []string{"QID2"}},
		},
		Flow: []FlowElement{
			{Kind: FlowEmbeddedData, FlowID: "FL_2", Fields: []EmbeddedField{{Name: "Mentor_Name_DB"}}},
			{Kind: FlowBlockRef, FlowID: "FL_3", BlockID: "BL_1"},
			{
				Kind:      FlowBranch,
				FlowID:    "FL_4",
				Condition: &BranchCondition{QuestionID: "QID4", ChoiceID: "1", Label: "team1"},
				Children: []FlowElement{
					{Kind: FlowBlockRef, FlowID: "FL_5", BlockID: "BL_2"},
				},
			},
		},
		EmbeddedDefaults: []EmbeddedField{{Name: "Mentor_Name_DB"}},
	}
}

// decode round-trips the marshalled bytes into generic JSON for inspection.
func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func elements(t *testing.T, doc map[string]any) []map[string]any {
	t.Helper()
	raw, ok := doc["SurveyElements"].([]any)
	require.True(t, ok, "SurveyElements missing")
	out := make([]map[string]any, 0, len(raw))
	for _, el := range raw {
		m, ok := el.(map[string]any)
		require.True(t, ok)
		out = append(out, m)
	}
	return out
}

func TestEncodeEnvelope(t *testing.T) {
	data, err := Marshal(testDocument())
	require.NoError(t, err)
	doc := decode(t, data)

	entry, ok := doc["SurveyEntry"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SV_test000000000", entry["SurveyID"])
	assert.Equal(t, "Encoder Test Survey", entry["SurveyName"])
	assert.Equal(t, "EN", entry["SurveyLanguage"])
	assert.Equal(t, "Inactive", entry["SurveyStatus"])
	// Placeholder timestamps keep output reproducible across runs.
	assert.Equal(t, "0000-00-00 00:00:00", entry["SurveyCreationDate"])
}

func TestEncodeElementOrder(t *testing.T) {
	data, err := Marshal(testDocument())
	require.NoError(t, err)
	els := elements(t, decode(t, data))

	var kinds []string
	for _, el := range els {
		kinds = append(kinds, el["Element"].(string))
	}
	assert.Equal(t, []string{"BL", "FL", "PROJ", "QC", "RS", "SCO", "SO", "SQ", "SQ", "STAT"}, kinds)
}

func TestEncodeFlowRoot(t *testing.T) {
	data, err := Marshal(testDocument())
	require.NoError(t, err)
	els := elements(t, decode(t, data))

	var payload map[string]any
	for _, el := range els {
		if el["Element"] == "FL" {
			payload = el["Payload"].(map[string]any)
		}
	}
	require.NotNil(t, payload)
	assert.Equal(t, "Root", payload["Type"])
	assert.Equal(t, RootFlowID, payload["FlowID"])

	flow := payload["Flow"].([]any)
	require.Len(t, flow, 3)

	ed := flow[0].(map[string]any)
	assert.Equal(t, "EmbeddedData", ed["Type"])
	fields := ed["EmbeddedData"].([]any)
	require.Len(t, fields, 1)
	field := fields[0].(map[string]any)
	assert.Equal(t, "Mentor_Name_DB", field["Field"])
	assert.Equal(t, "Custom", field["Type"])
	// Empty defaults omit the Value key entirely.
	_, hasValue := field["Value"]
	assert.False(t, hasValue)

	branch := flow[2].(map[string]any)
	assert.Equal(t, "Branch", branch["Type"])
	logic := branch["BranchLogic"].(map[string]any)
	assert.Equal(t, "BooleanExpression", logic["Type"])
	leaf := logic["0"].(map[string]any)["0"].(map[string]any)
	assert.Equal(t, "q://QID4/SelectableChoice/1", leaf["ChoiceLocator"])
	assert.Equal(t, "Selected", leaf["Operator"])
}

func TestEncodeBlocks(t *testing.T) {
	data, err := Marshal(testDocument())
	require.NoError(t, err)
	els := elements(t, decode(t, data))

	var blocks []any
	for _, el := range els {
		if el["Element"] == "BL" {
			blocks = el["Payload"].([]any)
		}
	}
	require.Len(t, blocks, 2)

	first := blocks[0].(map[string]any)
	assert.Equal(t, "Default", first["Type"])
	assert.Equal(t, "Intro", first["Description"])
	second := blocks[1].(map[string]any)
	assert.Equal(t, "Standard", second["Type"])
	items := second["BlockElements"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "QID2", items[0].(map[string]any)["QuestionID"])
}

func TestEncodeRatingMatrixQuestion(t *testing.T) {
	data, err := Marshal(testDocument())
	require.NoError(t, err)
	els := elements(t, decode(t, data))

	var payload map[string]any
	for _, el := range els {
		if el["Element"] == "SQ" && el["PrimaryAttribute"] == "QID1" {
			payload = el["Payload"].(map[string]any)
		}
	}
	require.NotNil(t, payload)

	assert.Equal(t, "Matrix", payload["QuestionType"])
	assert.Equal(t, "Likert", payload["Selector"])
	assert.Equal(t, "SingleAnswer", payload["SubSelector"])
	assert.Equal(t, "team1_Alice_Peers", payload["DataExportTag"])

	// Sub-rows keyed 1..n with ChoiceOrder authoritative.
	order := payload["ChoiceOrder"].([]any)
	assert.Equal(t, []any{"1", "2"}, order)
	choices := payload["Choices"].(map[string]any)
	assert.Equal(t, "Bob", choices["1"].(map[string]any)["Display"])
	assert.Equal(t, "Carol", choices["2"].(map[string]any)["Display"])

	// Scale points carry anchor labels at the extremes only.
	answers := payload["Answers"].(map[string]any)
	assert.Equal(t, "1 - Poor", answers["1"].(map[string]any)["Display"])
	assert.Equal(t, "2", answers["2"].(map[string]any)["Display"])
	assert.Equal(t, "3 - Great", answers["3"].(map[string]any)["Display"])

	validation := payload["Validation"].(map[string]any)["Settings"].(map[string]any)
	assert.Equal(t, "ON", validation["ForceResponse"])
}

func TestEncodeQuestionCount(t *testing.T) {
	data, err := Marshal(testDocument())
	require.NoError(t, err)
	els := elements(t, decode(t, data))

	for _, el := range els {
		switch el["Element"] {
		case "QC":
			assert.Equal(t, "2", el["SecondaryAttribute"])
		case "PROJ":
			assert.Equal(t, SchemaVersion, el["TertiaryAttribute"])
		}
	}
}

func TestMarshalIsStable(t *testing.T) {
	first, err := Marshal(testDocument())
	require.NoError(t, err)
	second, err := Marshal(testDocument())
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
}
