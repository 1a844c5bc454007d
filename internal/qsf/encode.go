package qsf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Wire-format envelope shared by every survey element.
type element struct {
	SurveyID           string `json:"SurveyID"`
	Element            string `json:"Element"`
	PrimaryAttribute   string `json:"PrimaryAttribute"`
	SecondaryAttribute any    `json:"SecondaryAttribute"`
	TertiaryAttribute  any    `json:"TertiaryAttribute"`
	Payload            any    `json:"Payload"`
}

type wireDocument struct {
	SurveyEntry    wireSurveyEntry `json:"SurveyEntry"`
	SurveyElements []element       `json:"SurveyElements"`
}

// wireSurveyEntry carries the survey-level metadata header. Timestamp fields
// are fixed placeholders so regeneration stays byte-for-byte reproducible;
// the platform rewrites them on import.
type wireSurveyEntry struct {
	SurveyID           string `json:"SurveyID"`
	SurveyName         string `json:"SurveyName"`
	SurveyDescription  any    `json:"SurveyDescription"`
	SurveyOwnerID      string `json:"SurveyOwnerID"`
	SurveyBrandID      string `json:"SurveyBrandID"`
	SurveyLanguage     string `json:"SurveyLanguage"`
	SurveyStatus       string `json:"SurveyStatus"`
	SurveyStartDate    string `json:"SurveyStartDate"`
	SurveyExpiration   string `json:"SurveyExpirationDate"`
	SurveyCreationDate string `json:"SurveyCreationDate"`
	Deleted            any    `json:"Deleted"`
}

type wireBlock struct {
	Type          string          `json:"Type"`
	Description   string          `json:"Description"`
	ID            string          `json:"ID"`
	BlockElements []wireBlockItem `json:"BlockElements"`
}

type wireBlockItem struct {
	Type       string `json:"Type"`
	QuestionID string `json:"QuestionID"`
}

type wireFlowRoot struct {
	Type   string `json:"Type"`
	FlowID string `json:"FlowID"`
	Flow   []any  `json:"Flow"`
}

type wireBlockRef struct {
	Type   string `json:"Type"`
	ID     string `json:"ID"`
	FlowID string `json:"FlowID"`
}

type wireEmbeddedData struct {
	Type         string              `json:"Type"`
	FlowID       string              `json:"FlowID"`
	EmbeddedData []wireEmbeddedField `json:"EmbeddedData"`
}

type wireEmbeddedField struct {
	Description  string `json:"Description"`
	Type         string `json:"Type"`
	Field        string `json:"Field"`
	VariableType string `json:"VariableType"`
	DataVisible  []any  `json:"DataVisibility"`
	AnalyzeText  bool   `json:"AnalyzeText"`
	Value        string `json:"Value,omitempty"`
}

type wireBranch struct {
	Type        string `json:"Type"`
	FlowID      string `json:"FlowID"`
	Description string `json:"Description"`
	BranchLogic any    `json:"BranchLogic"`
	Flow        []any  `json:"Flow"`
}

type wireChoice struct {
	Display string `json:"Display"`
}

type wireQuestionPayload struct {
	QuestionText        string                `json:"QuestionText"`
	DataExportTag       string                `json:"DataExportTag"`
	QuestionType        string                `json:"QuestionType"`
	Selector            string                `json:"Selector"`
	SubSelector         string                `json:"SubSelector,omitempty"`
	Configuration       map[string]any        `json:"Configuration"`
	QuestionDescription string                `json:"QuestionDescription"`
	Choices             map[string]wireChoice `json:"Choices,omitempty"`
	ChoiceOrder         []string              `json:"ChoiceOrder,omitempty"`
	Answers             map[string]wireChoice `json:"Answers,omitempty"`
	AnswerOrder         []string              `json:"AnswerOrder,omitempty"`
	Validation          wireValidation        `json:"Validation"`
	Language            []any                 `json:"Language"`
	QuestionID          string                `json:"QuestionID"`
}

type wireValidation struct {
	Settings map[string]string `json:"Settings"`
}

// Marshal serializes the document into the QSF import format.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the document to w as indented QSF JSON.
func Encode(w io.Writer, doc *Document) error {
	wire := wireDocument{
		SurveyEntry: wireSurveyEntry{
			SurveyID:           doc.SurveyID,
			SurveyName:         doc.SurveyName,
			SurveyOwnerID:      "",
			SurveyBrandID:      "",
			SurveyLanguage:     "EN",
			SurveyStatus:       "Inactive",
			SurveyStartDate:    "0000-00-00 00:00:00",
			SurveyExpiration:   "0000-00-00 00:00:00",
			SurveyCreationDate: "0000-00-00 00:00:00",
		},
	}

	wire.SurveyElements = append(wire.SurveyElements,
		blocksElement(doc),
		flowElement(doc),
		projectElement(doc),
		countElement(doc),
		responseSetElement(doc),
		scoringElement(doc),
		optionsElement(doc),
	)
	for i := range doc.Questions {
		wire.SurveyElements = append(wire.SurveyElements, questionElement(doc, &doc.Questions[i]))
	}
	wire.SurveyElements = append(wire.SurveyElements, statisticsElement(doc))

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(wire); err != nil {
		return fmt.Errorf("failed to encode survey document: %w", err)
	}
	return nil
}

func blocksElement(doc *Document) element {
	payload := make([]wireBlock, 0, len(doc.Blocks))
	for _, block := range doc.Blocks {
		blockType := "Standard"
		if block.Default {
			blockType = "Default"
		}
		wb := wireBlock{
			Type:          blockType,
			Description:   block.Label,
			ID:            block.ID,
			BlockElements: []wireBlockItem{},
		}
		for _, qid := range block.QuestionIDs {
			wb.BlockElements = append(wb.BlockElements, wireBlockItem{Type: "Question", QuestionID: qid})
		}
		payload = append(payload, wb)
	}
	return element{
		SurveyID:         doc.SurveyID,
		Element:          "BL",
		PrimaryAttribute: "Survey Blocks",
		Payload:          payload,
	}
}

func flowElement(doc *Document) element {
	root := wireFlowRoot{Type: "Root", FlowID: RootFlowID, Flow: []any{}}
	for i := range doc.Flow {
		root.Flow = append(root.Flow, flowNode(&doc.Flow[i]))
	}
	return element{
		SurveyID:         doc.SurveyID,
		Element:          "FL",
		PrimaryAttribute: "Survey Flow",
		Payload:          root,
	}
}

func flowNode(el *FlowElement) any {
	switch el.Kind {
	case FlowBlockRef:
		return wireBlockRef{Type: "Standard", ID: el.BlockID, FlowID: el.FlowID}
	case FlowEmbeddedData:
		node := wireEmbeddedData{Type: "EmbeddedData", FlowID: el.FlowID, EmbeddedData: []wireEmbeddedField{}}
		for _, field := range el.Fields {
			node.EmbeddedData = append(node.EmbeddedData, wireEmbeddedField{
				Description:  field.Name,
				Type:         "Custom",
				Field:        field.Name,
				VariableType: "String",
				DataVisible:  []any{},
				Value:        field.Value,
			})
		}
		return node
	case FlowBranch:
		branch := wireBranch{
			Type:        "Branch",
			FlowID:      el.FlowID,
			Description: "New Branch",
			BranchLogic: branchLogic(el.Condition),
			Flow:        []any{},
		}
		for i := range el.Children {
			branch.Flow = append(branch.Flow, flowNode(&el.Children[i]))
		}
		return branch
	}
	panic(fmt.Sprintf("qsf: unknown flow element kind %d", el.Kind))
}

// branchLogic emits the platform's boolean-expression tree gating a branch on
// one selectable choice of the team-selector question.
func branchLogic(cond *BranchCondition) map[string]any {
	locator := fmt.Sprintf("q://%s/SelectableChoice/%s", cond.QuestionID, cond.ChoiceID)
	return map[string]any{
		"0": map[string]any{
			"0": map[string]any{
				"LogicType":             "Question",
				"QuestionID":            cond.QuestionID,
				"QuestionIsInLoop":      "no",
				"ChoiceLocator":         locator,
				"Operator":              "Selected",
				"QuestionIDFromLocator": cond.QuestionID,
				"LeftOperand":           locator,
				"Type":                  "Expression",
				"Description":           fmt.Sprintf("If %s Is Selected", cond.Label),
			},
			"Type": "If",
		},
		"Type": "BooleanExpression",
	}
}

func questionElement(doc *Document, q *Question) element {
	payload := wireQuestionPayload{
		QuestionText:        q.Prompt,
		DataExportTag:       q.ExportTag,
		Configuration:       map[string]any{"QuestionDescriptionOption": "UseText"},
		QuestionDescription: q.Prompt,
		Validation:          validationFor(q),
		Language:            []any{},
		QuestionID:          q.ID,
	}

	switch q.Kind {
	case RatingMatrix:
		payload.QuestionType = "Matrix"
		payload.Selector = "Likert"
		payload.SubSelector = "SingleAnswer"
		payload.Choices, payload.ChoiceOrder = choiceSet(q.Choices)
		payload.Answers, payload.AnswerOrder = scaleAnswers(q.Scale)
		payload.Configuration["MobileFirst"] = true
	case MultipleChoice:
		payload.QuestionType = "MC"
		payload.Selector = "SAVR"
		payload.SubSelector = "TX"
		payload.Choices, payload.ChoiceOrder = choiceSet(q.Choices)
	case FreeText:
		payload.QuestionType = "TE"
		payload.Selector = "ML"
		payload.Configuration["InputWidth"] = 680
		payload.Configuration["InputHeight"] = 29
	case Descriptive:
		payload.QuestionType = "DB"
		payload.Selector = "TB"
	}

	return element{
		SurveyID:           doc.SurveyID,
		Element:            "SQ",
		PrimaryAttribute:   q.ID,
		SecondaryAttribute: q.Prompt,
		Payload:            payload,
	}
}

func validationFor(q *Question) wireValidation {
	if q.Required {
		return wireValidation{Settings: map[string]string{
			"ForceResponse":     "ON",
			"ForceResponseType": "ON",
			"Type":              "None",
		}}
	}
	return wireValidation{Settings: map[string]string{}}
}

// choiceSet converts an ordered choice list into the platform's keyed map plus
// explicit ordering. The JSON object's key order is irrelevant; ChoiceOrder is
// authoritative.
func choiceSet(choices []string) (map[string]wireChoice, []string) {
	set := make(map[string]wireChoice, len(choices))
	order := make([]string, 0, len(choices))
	for i, display := range choices {
		key := strconv.Itoa(i + 1)
		set[key] = wireChoice{Display: display}
		order = append(order, key)
	}
	return set, order
}

// scaleAnswers expands a rating scale into one answer column per point, with
// anchor labels attached to the extremes.
func scaleAnswers(scale *Scale) (map[string]wireChoice, []string) {
	set := make(map[string]wireChoice)
	var order []string
	for point := scale.Min; point <= scale.Max; point++ {
		key := strconv.Itoa(point)
		display := key
		switch {
		case point == scale.Min && scale.MinLabel != "":
			display = fmt.Sprintf("%d - %s", point, scale.MinLabel)
		case point == scale.Max && scale.MaxLabel != "":
			display = fmt.Sprintf("%d - %s", point, scale.MaxLabel)
		}
		set[key] = wireChoice{Display: display}
		order = append(order, key)
	}
	return set, order
}

func projectElement(doc *Document) element {
	return element{
		SurveyID:          doc.SurveyID,
		Element:           "PROJ",
		PrimaryAttribute:  "CORE",
		TertiaryAttribute: SchemaVersion,
		Payload: map[string]any{
			"ProjectCategory": "CORE",
			"SchemaVersion":   SchemaVersion,
		},
	}
}

func countElement(doc *Document) element {
	return element{
		SurveyID:           doc.SurveyID,
		Element:            "QC",
		PrimaryAttribute:   "Survey Question Count",
		SecondaryAttribute: strconv.Itoa(len(doc.Questions)),
	}
}

func responseSetElement(doc *Document) element {
	return element{
		SurveyID:           doc.SurveyID,
		Element:            "RS",
		PrimaryAttribute:   "RS_0000000000000000",
		SecondaryAttribute: "Default Response Set",
	}
}

func scoringElement(doc *Document) element {
	return element{
		SurveyID:         doc.SurveyID,
		Element:          "SCO",
		PrimaryAttribute: "Scoring",
		Payload: map[string]any{
			"ScoringCategories":            []any{},
			"ScoringCategoryGroups":        []any{},
			"ScoringSummaryCategory":       nil,
			"ScoringSummaryAfterQuestions": 0,
			"ScoringSummaryAfterSurvey":    0,
			"DefaultScoringCategory":       nil,
			"AutoScoringCategory":          nil,
		},
	}
}

func optionsElement(doc *Document) element {
	return element{
		SurveyID:         doc.SurveyID,
		Element:          "SO",
		PrimaryAttribute: "Survey Options",
		Payload: map[string]any{
			"BackButton":          "true",
			"SaveAndContinue":     "false",
			"SurveyProtection":    "PublicSurvey",
			"ProgressBarDisplay":  "None",
			"PartialData":         "No",
			"SurveyExpiration":    "None",
			"SurveyTermination":   "DefaultMessage",
			"ShowExportTags":      "false",
			"CollectGeoLocation":  "false",
			"PasswordProtection":  "No",
			"AnonymizeResponse":   "No",
			"RecaptchaV3":         "false",
			"AvailableLanguages":  map[string]any{"EN": []any{}},
			"Header":              "",
			"Footer":              "",
		},
	}
}

func statisticsElement(doc *Document) element {
	return element{
		SurveyID:         doc.SurveyID,
		Element:          "STAT",
		PrimaryAttribute: "Survey Statistics",
		Payload: map[string]any{
			"MobileCompatible": true,
			"ID":               "Survey Statistics",
		},
	}
}
