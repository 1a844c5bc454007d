package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Kedar-V/Qualitrics-Automation/internal/ctxlog"
)

// Recognized roster columns. group_name and name are required; role and
// mentor_name are optional.
const (
	colTeam   = "group_name"
	colName   = "name"
	colRole   = "role"
	colMentor = "mentor_name"
)

// LoadCSV reads a roster from a CSV file. Rows with an empty group key are
// dropped, matching the upstream export which pads ungrouped students with
// blank team cells.
func LoadCSV(ctx context.Context, path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	r, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}
	return r, nil
}

// ReadCSV parses roster rows from CSV data with a header row.
func ReadCSV(ctx context.Context, reader io.Reader) (*Roster, error) {
	logger := ctxlog.FromContext(ctx)

	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{colTeam, colName} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("roster is missing required column %q", required)
		}
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Entity
	dropped := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster row: %w", err)
		}

		team := field(record, colTeam)
		if team == "" {
			dropped++
			continue
		}

		rows = append(rows, Entity{
			Name:   field(record, colName),
			Team:   team,
			Role:   field(record, colRole),
			Mentor: field(record, colMentor),
		})
	}

	roster := New(rows)
	logger.Debug("Roster loaded.", "rows", roster.Len(), "teams", len(roster.Teams()), "dropped", dropped)
	return roster, nil
}
