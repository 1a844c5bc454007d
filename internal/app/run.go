package app

import (
	"context"
	"fmt"
	"os"

	"github.com/Kedar-V/Qualitrics-Automation/internal/compiler"
	"github.com/Kedar-V/Qualitrics-Automation/internal/ctxlog"
	"github.com/Kedar-V/Qualitrics-Automation/internal/qsf"
	"github.com/Kedar-V/Qualitrics-Automation/internal/report"
	"github.com/Kedar-V/Qualitrics-Automation/internal/roster"
)

// Run executes the main application logic based on the configured mode.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)

	switch a.config.Mode {
	case ModeScore:
		return a.runScore(ctx)
	default:
		return a.runBuild(ctx)
	}
}

// runBuild compiles the roster into a survey document and writes it out.
// The document is fully validated in memory before any file is created, so a
// failed build never leaves a partial file behind.
func (a *App) runBuild(ctx context.Context) error {
	a.logger.Debug("Loading roster...", "path", a.config.RosterPath)
	r, err := roster.LoadCSV(ctx, a.config.RosterPath)
	if err != nil {
		return err
	}
	if r.Len() == 0 {
		return fmt.Errorf("roster %s contains no usable rows", a.config.RosterPath)
	}
	a.logger.Info("Roster loaded.", "rows", r.Len(), "teams", len(r.Teams()))

	mentors := r.Mentors()
	if a.config.MentorsPath != "" {
		overrides, err := roster.LoadMentorMap(ctx, a.config.MentorsPath)
		if err != nil {
			return err
		}
		for team, mentor := range overrides {
			mentors[team] = mentor
		}
		a.logger.Debug("Mentor overrides applied.", "teams", len(overrides))
	}

	doc, err := compiler.Build(ctx, r, a.settings, mentors)
	if err != nil {
		return fmt.Errorf("failed to build survey document: %w", err)
	}

	data, err := qsf.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.config.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write survey document: %w", err)
	}

	a.logger.Info("✅ Survey document written.",
		"path", a.config.OutputPath,
		"questions", len(doc.Questions),
		"blocks", len(doc.Blocks),
	)
	return nil
}

// runScore reduces a response export into per-person scores.
func (a *App) runScore(ctx context.Context) error {
	a.logger.Debug("Loading response export...", "path", a.config.InputPath)
	in, err := os.Open(a.config.InputPath)
	if err != nil {
		return fmt.Errorf("failed to open response export: %w", err)
	}
	defer in.Close()

	ratings, err := report.ParseExport(ctx, in)
	if err != nil {
		return err
	}

	opts := report.DefaultOptions()
	if a.config.HighThreshold != nil {
		opts.HighThreshold = *a.config.HighThreshold
	}
	if a.config.LowThreshold != nil {
		opts.LowThreshold = *a.config.LowThreshold
	}
	if a.config.LastWeight != nil {
		opts.LastWeight = *a.config.LastWeight
		opts.PrevWeight = 1 - *a.config.LastWeight
	}
	if a.config.PrevWeight != nil {
		opts.PrevWeight = *a.config.PrevWeight
	}

	grades := report.Reduce(ratings, opts)

	out, err := os.Create(a.config.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := report.WriteCSV(out, grades); err != nil {
		return fmt.Errorf("failed to write grades: %w", err)
	}

	a.logger.Info("✅ Grades written.", "path", a.config.OutputPath, "people", len(grades))
	return nil
}
