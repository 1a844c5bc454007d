package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Kedar-V/Qualitrics-Automation/internal/config"
	"github.com/Kedar-V/Qualitrics-Automation/internal/ctxlog"
)

// Mode selects the application's operation.
const (
	// ModeBuild compiles a roster into a survey document.
	ModeBuild = "build"
	// ModeScore reduces a response export into per-person scores.
	ModeScore = "score"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Mode string

	// Build mode.
	RosterPath   string
	OutputPath   string
	SettingsPath string // optional .hcl file or directory
	MentorsPath  string // optional mentor-map yaml
	SurveyType   string // optional override of the settings file

	// Score mode. Threshold and weight overrides are pointers so an
	// explicitly passed zero is distinguishable from an unset flag.
	InputPath     string
	HighThreshold *float64
	LowThreshold  *float64
	LastWeight    *float64
	PrevWeight    *float64

	LogFormat string
	LogLevel  string
}

// NewConfig validates a raw configuration.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Mode {
	case ModeBuild:
		if cfg.RosterPath == "" {
			return nil, errors.New("a roster path is required in build mode")
		}
	case ModeScore:
		if cfg.InputPath == "" {
			return nil, errors.New("an input path is required in score mode")
		}
	default:
		return nil, fmt.Errorf("unknown mode %q: must be %q or %q", cfg.Mode, ModeBuild, ModeScore)
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("an output path is required")
	}
	return &cfg, nil
}

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	settings *config.Settings
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and resolved
// settings. A failure to load settings is a fatal startup error and panics;
// the entrypoint recovers and reports it.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	settings, err := loader.Load(ctx, appConfig.SettingsPath)
	if err != nil {
		panic(fmt.Errorf("failed to load settings: %w", err))
	}
	logger.Debug("Settings loaded.", "survey_type", string(settings.Type))

	if appConfig.SurveyType != "" {
		surveyType, err := config.ParseSurveyType(appConfig.SurveyType)
		if err != nil {
			panic(err)
		}
		settings.Type = surveyType
		logger.Debug("Survey type overridden from CLI.", "survey_type", string(surveyType))
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		settings: settings,
	}
}

// Settings returns the resolved settings. This is primarily for testing.
func (a *App) Settings() *config.Settings {
	return a.settings
}
