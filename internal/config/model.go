package config

import "fmt"

// SurveyType selects which question templates the builder applies.
type SurveyType string

const (
	// ClientEval asks a project client to rate the team and its members.
	ClientEval SurveyType = "client-eval"
	// MentorEval asks a team's mentor to rate the team and its members.
	MentorEval SurveyType = "mentor-eval"
	// PeerEval asks each member to rate their own teammates.
	PeerEval SurveyType = "peer-eval"
)

// ParseSurveyType validates a user-supplied survey type string.
func ParseSurveyType(s string) (SurveyType, error) {
	switch SurveyType(s) {
	case ClientEval, MentorEval, PeerEval:
		return SurveyType(s), nil
	}
	return "", fmt.Errorf("unknown survey type %q: must be %q, %q, or %q", s, ClientEval, MentorEval, PeerEval)
}

// Scale describes the rating scale applied to every rating-matrix sub-row.
type Scale struct {
	Min      int
	Max      int
	MinLabel string
	MaxLabel string
}

// Settings is the unified, format-agnostic representation of everything the
// document builder needs beyond the roster itself.
type Settings struct {
	SurveyID   string
	SurveyName string
	Type       SurveyType

	Scale Scale

	// ExcludeSelf controls whether self-exclusion selectors drop the rated
	// member from their own choice set.
	ExcludeSelf bool
}

// Default returns the settings used when no configuration file is supplied.
// The survey identity placeholders match the format the import pipeline
// expects; callers normally override them per deployment.
func Default() *Settings {
	return &Settings{
		SurveyID:   "SV_000000000000000",
		SurveyName: "Team Evaluation Survey",
		Type:       ClientEval,
		Scale: Scale{
			Min:      1,
			Max:      10,
			MinLabel: "Not at all satisfied",
			MaxLabel: "Completely satisfied",
		},
		ExcludeSelf: true,
	}
}
