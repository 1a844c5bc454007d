package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/Kedar-V/Qualitrics-Automation/internal/app"
	"github.com/Kedar-V/Qualitrics-Automation/internal/report"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("qsfgen", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
qsfgen - compiles team rosters into importable survey definitions.

Usage:
  qsfgen [options] [ROSTER_PATH]

Arguments:
  ROSTER_PATH
    Path to the roster CSV (columns: group_name, name[, role][, mentor_name]).

Options:
`)
		flagSet.PrintDefaults()
	}

	modeFlag := flagSet.String("mode", app.ModeBuild, "Operation mode. Options: 'build' or 'score'.")
	rosterFlag := flagSet.String("roster", "", "Path to the roster CSV file.")
	outFlag := flagSet.String("out", "", "Path for the output file (.qsf in build mode, .csv in score mode).")
	surveyTypeFlag := flagSet.String("survey-type", "", "Survey type override. Options: 'client-eval', 'mentor-eval', 'peer-eval'.")
	configFlag := flagSet.String("config", "", "Path to a settings .hcl file or directory.")
	mentorsFlag := flagSet.String("mentors", "", "Path to a mentor-map YAML file.")
	inputFlag := flagSet.String("input", "", "Path to the response export CSV (score mode).")
	scoreDefaults := report.DefaultOptions()
	highFlag := flagSet.Float64("high-threshold", scoreDefaults.HighThreshold, "Overall score at or above which a person is flagged 'high'.")
	lowFlag := flagSet.Float64("low-threshold", scoreDefaults.LowThreshold, "Overall score at or below which a person is flagged 'low'.")
	lastWeightFlag := flagSet.Float64("last-weight", scoreDefaults.LastWeight, "Weight of an evaluator's latest submission.")
	prevWeightFlag := flagSet.Float64("prev-weight", scoreDefaults.PrevWeight, "Weight of an evaluator's earlier submissions.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	rosterPath := *rosterFlag
	if rosterPath == "" && flagSet.NArg() > 0 {
		rosterPath = flagSet.Arg(0)
	}

	// Threshold and weight overrides only apply when the flag was actually
	// passed, so an explicit zero is honored and an absent flag keeps the
	// report defaults.
	setFlags := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	floatIfSet := func(name string, value *float64) *float64 {
		if setFlags[name] {
			return value
		}
		return nil
	}

	mode := strings.ToLower(*modeFlag)
	if mode == app.ModeBuild && rosterPath == "" && *inputFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Mode:          mode,
		RosterPath:    rosterPath,
		OutputPath:    *outFlag,
		SettingsPath:  *configFlag,
		MentorsPath:   *mentorsFlag,
		SurveyType:    *surveyTypeFlag,
		InputPath:     *inputFlag,
		HighThreshold: floatIfSet("high-threshold", highFlag),
		LowThreshold:  floatIfSet("low-threshold", lowFlag),
		LastWeight:    floatIfSet("last-weight", lastWeightFlag),
		PrevWeight:    floatIfSet("prev-weight", prevWeightFlag),
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
