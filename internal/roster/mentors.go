package roster

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Kedar-V/Qualitrics-Automation/internal/ctxlog"
)

// LoadMentorMap reads a team→mentor override file:
//
//	mentors:
//	  team1: "Dr. X"
//	  team2: "Dr. Y"
//
// Teams absent from the file keep the compiler's empty default for the
// mentor embedded-data field.
func LoadMentorMap(ctx context.Context, path string) (map[string]string, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mentor map: %w", err)
	}

	var doc struct {
		Mentors map[string]string `yaml:"mentors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse mentor map %s: %w", path, err)
	}

	logger.Debug("Mentor map loaded.", "teams", len(doc.Mentors))
	return doc.Mentors, nil
}
