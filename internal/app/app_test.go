package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kedar-V/Qualitrics-Automation/internal/config"
)

// stubLoader satisfies config.Loader without touching the filesystem.
type stubLoader struct {
	settings *config.Settings
	err      error
}

func (s *stubLoader) Load(_ context.Context, _ string) (*config.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.settings, nil
}

func validConfig(t *testing.T, mutate func(*Config)) *Config {
	t.Helper()
	cfg := Config{
		Mode:       ModeBuild,
		RosterPath: "roster.csv",
		OutputPath: "out.qsf",
		LogFormat:  "text",
		LogLevel:   "info",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)
	return validated
}

func TestNewConfigValidation(t *testing.T) {
	t.Run("build mode requires roster", func(t *testing.T) {
		_, err := NewConfig(Config{Mode: ModeBuild, OutputPath: "out.qsf"})
		assert.ErrorContains(t, err, "roster path is required")
	})

	t.Run("score mode requires input", func(t *testing.T) {
		_, err := NewConfig(Config{Mode: ModeScore, OutputPath: "out.csv"})
		assert.ErrorContains(t, err, "input path is required")
	})

	t.Run("output path always required", func(t *testing.T) {
		_, err := NewConfig(Config{Mode: ModeBuild, RosterPath: "roster.csv"})
		assert.ErrorContains(t, err, "output path is required")
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		_, err := NewConfig(Config{Mode: "publish", OutputPath: "out"})
		assert.ErrorContains(t, err, `unknown mode "publish"`)
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("json handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogFormat: "json", LogLevel: "info"}, &buf)
		logger.Info("hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("debug level enables debug records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogFormat: "text", LogLevel: "debug"}, &buf)
		logger.Debug("noisy")
		assert.Contains(t, buf.String(), "noisy")
	})

	t.Run("unrecognized level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&Config{LogFormat: "text", LogLevel: "silly"}, &buf)
		logger.Debug("hidden")
		assert.Empty(t, buf.String())
	})
}

func TestNewAppAppliesSurveyTypeOverride(t *testing.T) {
	var out bytes.Buffer
	cfg := validConfig(t, func(c *Config) { c.SurveyType = "peer-eval" })
	loader := &stubLoader{settings: config.Default()}

	a := NewApp(&out, cfg, loader)

	assert.Equal(t, config.PeerEval, a.Settings().Type)
}

func TestNewAppPanicsOnLoaderFailure(t *testing.T) {
	var out bytes.Buffer
	cfg := validConfig(t, nil)
	loader := &stubLoader{err: errors.New("bad settings file")}

	assert.Panics(t, func() { NewApp(&out, cfg, loader) })
}

func TestNewAppRejectsBadSurveyTypeOverride(t *testing.T) {
	var out bytes.Buffer
	cfg := validConfig(t, func(c *Config) { c.SurveyType = "focus-group" })
	loader := &stubLoader{settings: config.Default()}

	assert.Panics(t, func() { NewApp(&out, cfg, loader) })
}

func TestRunBuildWritesDocument(t *testing.T) {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "roster.csv")
	outputPath := filepath.Join(dir, "survey.qsf")
	rosterCSV := "group_name,name\nteam1,Alice\nteam1,Bob\nteam2,Carol\nteam2,Dave\n"
	require.NoError(t, os.WriteFile(rosterPath, []byte(rosterCSV), 0o644))

	var out bytes.Buffer
	cfg := validConfig(t, func(c *Config) {
		c.RosterPath = rosterPath
		c.OutputPath = outputPath
	})
	a := NewApp(&out, cfg, &stubLoader{settings: config.Default()})

	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "SurveyEntry")
	assert.Contains(t, doc, "SurveyElements")
}

func TestRunBuildRejectsEmptyRoster(t *testing.T) {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte("group_name,name\n"), 0o644))

	var out bytes.Buffer
	cfg := validConfig(t, func(c *Config) {
		c.RosterPath = rosterPath
		c.OutputPath = filepath.Join(dir, "survey.qsf")
	})
	a := NewApp(&out, cfg, &stubLoader{settings: config.Default()})

	err := a.Run(context.Background())
	assert.ErrorContains(t, err, "contains no usable rows")

	// A failed build leaves no partial output behind.
	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunScoreWritesGrades(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "responses.csv")
	outputPath := filepath.Join(dir, "grades.csv")
	export := "RecordedDate,Name,Team,Alice_Communication_1\n" +
		"sub,header,row,one\n" +
		"sub,header,row,two\n" +
		"2024-05-01 10:00:00,Carol,team1,9\n"
	require.NoError(t, os.WriteFile(inputPath, []byte(export), 0o644))

	var out bytes.Buffer
	cfg := validConfig(t, func(c *Config) {
		c.Mode = ModeScore
		c.RosterPath = ""
		c.InputPath = inputPath
		c.OutputPath = outputPath
	})
	a := NewApp(&out, cfg, &stubLoader{settings: config.Default()})

	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name,Team,Communication")
	assert.Contains(t, string(data), "Alice,team1,9.00")
}

func TestRunScoreHonorsExplicitZeroThreshold(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "responses.csv")
	outputPath := filepath.Join(dir, "grades.csv")
	export := "RecordedDate,Name,Team,Alice_Communication_1\n" +
		"sub,header,row,one\n" +
		"sub,header,row,two\n" +
		"2024-05-01 10:00:00,Carol,team1,6\n"
	require.NoError(t, os.WriteFile(inputPath, []byte(export), 0o644))

	var out bytes.Buffer
	zero := 0.0
	cfg := validConfig(t, func(c *Config) {
		c.Mode = ModeScore
		c.RosterPath = ""
		c.InputPath = inputPath
		c.OutputPath = outputPath
		c.HighThreshold = &zero
		c.LowThreshold = &zero
	})
	a := NewApp(&out, cfg, &stubLoader{settings: config.Default()})

	require.NoError(t, a.Run(context.Background()))

	// A score of 6 sits below the default high threshold of 8; with the
	// explicit zero override it must come out flagged.
	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alice,team1,6.00,,,6.00,high,1")
}
