package compiler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kedar-V/Qualitrics-Automation/internal/config"
	"github.com/Kedar-V/Qualitrics-Automation/internal/ctxlog"
	"github.com/Kedar-V/Qualitrics-Automation/internal/qsf"
	"github.com/Kedar-V/Qualitrics-Automation/internal/roster"
)

// selectorKind resolves a template step against a team's members.
type selectorKind int

const (
	// selectTeam yields one target set holding the whole team, with no
	// subject: the question concerns the team as a unit.
	selectTeam selectorKind = iota
	// selectEachMember yields one target set per member, the member as
	// subject and their teammates as targets. With self-rating excluded the
	// subject is dropped from their own target set; a member left with no
	// targets yields no question.
	selectEachMember
)

// templateStep is one entry of a survey type's declarative plan: which
// template to instantiate, against which targets, with which prompt and tag.
type templateStep struct {
	template TemplateKind
	selector selectorKind
	prompt   string // "%s" is replaced with the subject's name
	suffix   string
	field    string // embedded-data field piped by stub templates
	required bool

	// aboutSubject marks questions that concern the subject alone and are
	// answered by their teammates: the question carries the subject as its
	// only sub-row, and the targets merely gate emission. Export tags of the
	// form <team>_<member>_<metric> come from these steps; the score reducer
	// resolves the rated member from that tag.
	aboutSubject bool
}

// surveyPlans maps each survey type to its ordered template list. This is
// pure dispatch: adding a survey shape means adding a row here, not a type.
var surveyPlans = map[config.SurveyType][]templateStep{
	config.ClientEval: {
		{
			template: TemplateRatingMatrix,
			selector: selectTeam,
			prompt:   "Please provide an overall assessment for each team member, with the highest score indicating complete satisfaction.",
			suffix:   "Overall",
			required: true,
		},
		{
			template: TemplateFreeText,
			selector: selectTeam,
			prompt:   "Do you have any additional feedback that you would like to share with us?",
			suffix:   "AdditionalFeedback",
		},
	},
	config.MentorEval: {
		{
			template: TemplateEmbeddedDataStub,
			selector: selectTeam,
			prompt:   "Our records show that you are the mentor for this team:",
			suffix:   "MentorConfirmation",
			field:    MentorField,
		},
		{
			template: TemplateRatingMatrix,
			selector: selectTeam,
			prompt:   "Please rate each student's individual contribution to the project this semester.",
			suffix:   "Contribution",
			required: true,
		},
		{
			template: TemplateFreeText,
			selector: selectTeam,
			prompt:   "Additional comment to the Capstone Director only.",
			suffix:   "DirectorComment",
		},
	},
	config.PeerEval: {
		{
			template: TemplateRatingMatrix,
			selector: selectEachMember,
			prompt:   "%s: please rate each of your teammates' contribution to the project.",
			suffix:   "Peers",
			required: true,
		},
		{
			template:     TemplateRatingMatrix,
			selector:     selectEachMember,
			prompt:       "Rate %s: Communication skills.",
			suffix:       "Communication",
			required:     true,
			aboutSubject: true,
		},
		{
			template:     TemplateRatingMatrix,
			selector:     selectEachMember,
			prompt:       "Rate %s: Technical contribution.",
			suffix:       "Technical",
			required:     true,
			aboutSubject: true,
		},
		{
			template:     TemplateRatingMatrix,
			selector:     selectEachMember,
			prompt:       "Rate %s: Reliability and accountability.",
			suffix:       "Reliability",
			required:     true,
			aboutSubject: true,
		},
		{
			template:     TemplateFreeText,
			selector:     selectEachMember,
			prompt:       "Rate %s: Open-ended feedback.",
			suffix:       "Feedback",
			aboutSubject: true,
		},
	},
}

// introWelcome holds the survey-type specific welcome text shown in the
// intro block.
var introWelcome = map[config.SurveyType]string{
	config.ClientEval: "Thank you for collaborating with our students! This survey asks for your feedback on the team, which will be incorporated into their course grade. If you supervised more than one project, please complete a separate form for each team.",
	config.MentorEval: "Thank you for working with our students! This survey gathers feedback on overall team performance as well as individual contributions. If you are mentoring more than one project, please complete a separate survey for each project.",
	config.PeerEval:   "In the following sections please rate your teammates' contribution to the project this semester.",
}

// targetSet is one resolved (subject, targets) pair for a template step.
type targetSet struct {
	subject string
	targets []roster.Entity
}

// Build compiles the roster into a complete, validated survey document.
//
// Teams are visited in roster input order and members in intra-team row
// order, so identical input always produces an identical document. The
// mentor map overrides the MentorField embedded-data default per team;
// absent entries keep the empty default. The returned document has passed
// every invariant check; a document that cannot pass is never returned.
func Build(ctx context.Context, r *roster.Roster, settings *config.Settings, mentorMap map[string]string) (*qsf.Document, error) {
	logger := ctxlog.FromContext(ctx)

	plan, ok := surveyPlans[settings.Type]
	if !ok {
		return nil, fmt.Errorf("no template plan for survey type %q", settings.Type)
	}

	alloc := NewAllocator()
	catalog := NewCatalog()
	scale := qsf.Scale{
		Min:      settings.Scale.Min,
		Max:      settings.Scale.Max,
		MinLabel: settings.Scale.MinLabel,
		MaxLabel: settings.Scale.MaxLabel,
	}
	prov := make(map[string]choiceProvenance)

	doc := &qsf.Document{
		SurveyID:         settings.SurveyID,
		SurveyName:       settings.SurveyName,
		EmbeddedDefaults: []qsf.EmbeddedField{{Name: MentorField, Value: ""}},
	}

	teams := r.Teams()
	logger.Debug("Build: starting document construction.", "teams", len(teams), "survey_type", string(settings.Type))

	// First phase: the intro/identity block shared by every survey type.
	introQuestions, selectorQID := buildIntro(alloc, catalog, settings.Type, teams, prov)
	introBlock, err := Assemble(alloc, "intro", "Intro and Project Selection", introQuestions)
	if err != nil {
		return nil, err
	}
	introBlock.Default = true
	doc.Questions = append(doc.Questions, introQuestions...)
	doc.Blocks = append(doc.Blocks, introBlock)
	logger.Debug("Build: intro block assembled.", "block_id", introBlock.ID, "questions", len(introQuestions))

	// Second phase: per-team question instantiation and block assembly.
	var teamFlows []TeamFlow
	for teamIndex, team := range teams {
		members := r.Members(team)

		var questions []qsf.Question
		for _, step := range plan {
			for _, set := range resolveSelector(step.selector, members, settings.ExcludeSelf) {
				if set.subject != "" && len(set.targets) == 0 {
					// Nothing left to ask about after self-exclusion.
					continue
				}
				ictx := InstantiateContext{
					Team:          team,
					Subject:       set.subject,
					Prompt:        renderPrompt(step.prompt, set.subject),
					TagSuffix:     step.suffix,
					Scale:         scale,
					EmbeddedField: step.field,
					Required:      step.required,
				}
				if step.aboutSubject {
					ictx.Choices = []string{set.subject}
				}
				q, err := catalog.Instantiate(alloc, step.template, set.targets, ictx)
				if err != nil {
					return nil, err
				}
				if step.template == TemplateRatingMatrix {
					var p choiceProvenance
					if step.aboutSubject {
						// The rated member is the question's only sub-row;
						// the self-exclusion rule does not apply to it.
						p = choiceProvenance{want: []string{set.subject}}
					} else {
						p = choiceProvenance{want: entityNames(set.targets)}
						if settings.ExcludeSelf {
							// Only an excluded subject is forbidden from
							// their own choice set.
							p.subject = set.subject
						}
					}
					prov[q.ID] = p
				}
				questions = append(questions, q)
			}
		}

		block, err := Assemble(alloc, team, team, questions)
		if err != nil {
			return nil, err
		}
		doc.Questions = append(doc.Questions, questions...)
		doc.Blocks = append(doc.Blocks, block)

		teamFlows = append(teamFlows, TeamFlow{
			Team:           team,
			Blocks:         []qsf.Block{block},
			MentorOverride: mentorMap[team],
			Condition: qsf.BranchCondition{
				QuestionID: selectorQID,
				ChoiceID:   strconv.Itoa(teamIndex + 1),
				Label:      team,
			},
		})
		logger.Debug("Build: team block assembled.", "team", team, "block_id", block.ID, "questions", len(questions))
	}

	// Third phase: flow composition.
	flow, err := Compose(alloc, doc.EmbeddedDefaults, []qsf.Block{introBlock}, teamFlows)
	if err != nil {
		return nil, err
	}
	doc.Flow = flow
	logger.Debug("Build: flow composed.", "elements", len(flow))

	// Final phase: invariant validation. The caller never sees a document
	// this did not pass.
	if err := validateDocument(doc, prov); err != nil {
		return nil, err
	}
	logger.Info("Build: document construction successful.",
		"questions", len(doc.Questions), "blocks", len(doc.Blocks), "flow_elements", len(doc.Flow))
	return doc, nil
}

// buildIntro creates the identity questions every survey starts with and
// returns them along with the id of the team-selector question that gates
// the per-team branches. Intro tags are fixed by the downstream report
// pipeline, not derived.
func buildIntro(alloc *Allocator, catalog *Catalog, surveyType config.SurveyType, teams []string, prov map[string]choiceProvenance) ([]qsf.Question, string) {
	instantiate := func(kind TemplateKind, ictx InstantiateContext) qsf.Question {
		q, err := catalog.Instantiate(alloc, kind, nil, ictx)
		if err != nil {
			// Intro tags are fixed constants; a collision here means the
			// build started with a dirty catalog.
			panic(err)
		}
		return q
	}

	var questions []qsf.Question

	questions = append(questions, instantiate(TemplateEmbeddedDataStub, InstantiateContext{
		Prompt:   introWelcome[surveyType],
		FixedTag: "Welcome",
	}))

	if surveyType == config.ClientEval {
		questions = append(questions, instantiate(TemplateFreeText, InstantiateContext{
			Prompt:   "Please state your organization.",
			FixedTag: "Organization",
			Required: true,
		}))
	}

	questions = append(questions,
		instantiate(TemplateFreeText, InstantiateContext{
			Prompt:   "Please enter your name.",
			FixedTag: "Name",
			Required: true,
		}),
		instantiate(TemplateFreeText, InstantiateContext{
			Prompt:   "Please enter your email.",
			FixedTag: "Email",
			Required: true,
		}),
	)

	selector := instantiate(TemplateMultipleChoice, InstantiateContext{
		Prompt:   "Please select the project team you are evaluating today.",
		FixedTag: "Team",
		Choices:  teams,
		Required: true,
	})
	prov[selector.ID] = choiceProvenance{want: teams}
	questions = append(questions, selector)

	return questions, selector.ID
}

// resolveSelector expands a selector against one team's members.
func resolveSelector(selector selectorKind, members []roster.Entity, excludeSelf bool) []targetSet {
	switch selector {
	case selectTeam:
		return []targetSet{{targets: members}}
	case selectEachMember:
		sets := make([]targetSet, 0, len(members))
		for _, member := range members {
			targets := members
			if excludeSelf {
				targets = excludeEntity(members, member.Name)
			}
			sets = append(sets, targetSet{subject: member.Name, targets: targets})
		}
		return sets
	}
	panic(fmt.Sprintf("compiler: unknown selector kind %d", selector))
}

// excludeEntity returns members without the named entity, preserving order.
func excludeEntity(members []roster.Entity, name string) []roster.Entity {
	out := make([]roster.Entity, 0, len(members)-1)
	for _, member := range members {
		if member.Name != name {
			out = append(out, member)
		}
	}
	return out
}

func renderPrompt(prompt, subject string) string {
	if subject != "" && strings.Contains(prompt, "%s") {
		return fmt.Sprintf(prompt, subject)
	}
	return prompt
}

func entityNames(entities []roster.Entity) []string {
	names := make([]string, 0, len(entities))
	for _, entity := range entities {
		names = append(names, entity.Name)
	}
	return names
}
