// Package report reduces exported survey responses into per-person scores.
//
// It consumes the flat wide-format CSV the survey platform exports (one row
// per submission, one column per export tag) and produces flat numeric rows:
// one line per rated person with weighted metric means and a threshold flag.
// Unlike the compiler, nothing here carries structural invariants; malformed
// cells are skipped rather than fatal.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kedar-V/Qualitrics-Automation/internal/ctxlog"
)

// Options control the reduction.
type Options struct {
	// HighThreshold and LowThreshold flag standout overall scores.
	HighThreshold float64
	LowThreshold  float64
	// LastWeight and PrevWeight blend an evaluator's latest submission with
	// the mean of their earlier ones, so resubmissions refine rather than
	// replace.
	LastWeight float64
	PrevWeight float64
}

// DefaultOptions mirror the grading policy's standing defaults.
func DefaultOptions() Options {
	return Options{
		HighThreshold: 8,
		LowThreshold:  5,
		LastWeight:    0.7,
		PrevWeight:    0.3,
	}
}

// Metrics recognized in export-tag suffixes.
var metrics = []string{"Communication", "Technical", "Reliability"}

// metricColumn matches "<person>_<metric>" with the optional "_1" sub-row
// suffix the platform appends to matrix columns.
var metricColumn = regexp.MustCompile(`^(.+)_(Communication|Technical|Reliability)(?:_1)?$`)

// Rating is one evaluator's scores for one person in one submission.
type Rating struct {
	Evaluator string
	Person    string
	Team      string
	Recorded  time.Time
	Scores    map[string]float64
}

// Grade is one person's reduced scores.
type Grade struct {
	Name    string
	Team    string
	Scores  map[string]float64
	Overall float64
	Flag    string // "high", "low", or empty
	Raters  int
}

// ParseExport reads a platform response export. The platform emits two extra
// header sub-rows (question text and import ids) below the column header;
// both are skipped.
func ParseExport(ctx context.Context, reader io.Reader) ([]Rating, error) {
	logger := ctxlog.FromContext(ctx)

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Rating
	rowNum := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export row: %w", err)
		}
		rowNum++
		if rowNum <= 2 {
			// Question-text and import-id sub-headers.
			continue
		}

		evaluator := field(record, "Name")
		if evaluator == "" {
			continue
		}
		team := field(record, "Team")
		recorded, _ := time.Parse("2006-01-02 15:04:05", field(record, "RecordedDate"))

		perPerson := make(map[string]map[string]float64)
		for i, col := range header {
			m := metricColumn.FindStringSubmatch(col)
			if m == nil || i >= len(record) {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				continue
			}
			person, metric := m[1], m[2]
			if perPerson[person] == nil {
				perPerson[person] = make(map[string]float64)
			}
			perPerson[person][metric] = value
		}

		for person, scores := range perPerson {
			rows = append(rows, Rating{
				Evaluator: evaluator,
				Person:    person,
				Team:      team,
				Recorded:  recorded,
				Scores:    scores,
			})
		}
	}

	logger.Debug("Response export parsed.", "ratings", len(rows))
	return rows, nil
}

// Reduce collapses ratings into one grade per person. Self-ratings are
// dropped first. Resubmissions by the same evaluator are blended with the
// last/previous weights; distinct evaluators are averaged with equal weight.
func Reduce(ratings []Rating, opts Options) []Grade {
	type pairKey struct{ evaluator, person string }
	byPair := make(map[pairKey][]Rating)
	for _, r := range ratings {
		if isSelfRating(r) {
			continue
		}
		key := pairKey{r.Evaluator, r.Person}
		byPair[key] = append(byPair[key], r)
	}

	// One blended score set per (evaluator, person) pair.
	type blended struct {
		person string
		team   string
		scores map[string]float64
	}
	keys := make([]pairKey, 0, len(byPair))
	for key := range byPair {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].person != keys[j].person {
			return keys[i].person < keys[j].person
		}
		return keys[i].evaluator < keys[j].evaluator
	})

	var pairs []blended
	for _, key := range keys {
		submissions := byPair[key]
		sort.Slice(submissions, func(i, j int) bool {
			return submissions[i].Recorded.Before(submissions[j].Recorded)
		})
		last := submissions[len(submissions)-1]
		previous := submissions[:len(submissions)-1]

		scores := make(map[string]float64)
		for _, metric := range metrics {
			lastValue, ok := last.Scores[metric]
			if !ok {
				continue
			}
			if prevMean, ok := metricMean(previous, metric); ok {
				scores[metric] = opts.LastWeight*lastValue + opts.PrevWeight*prevMean
			} else {
				scores[metric] = lastValue
			}
		}
		pairs = append(pairs, blended{person: last.Person, team: last.Team, scores: scores})
	}

	byPerson := make(map[string][]blended)
	for _, p := range pairs {
		byPerson[p.person] = append(byPerson[p.person], p)
	}

	people := make([]string, 0, len(byPerson))
	for person := range byPerson {
		people = append(people, person)
	}
	sort.Strings(people)

	grades := make([]Grade, 0, len(people))
	for _, person := range people {
		entries := byPerson[person]
		grade := Grade{Name: person, Scores: make(map[string]float64), Raters: len(entries)}

		var overallSum float64
		var overallCount int
		for _, metric := range metrics {
			var sum float64
			var count int
			for _, entry := range entries {
				if value, ok := entry.scores[metric]; ok {
					sum += value
					count++
				}
			}
			if count > 0 {
				mean := sum / float64(count)
				grade.Scores[metric] = round2(mean)
				overallSum += mean
				overallCount++
			}
		}
		for _, entry := range entries {
			if entry.team != "" {
				grade.Team = entry.team
				break
			}
		}
		if overallCount > 0 {
			grade.Overall = round2(overallSum / float64(overallCount))
		}
		switch {
		case overallCount > 0 && grade.Overall >= opts.HighThreshold:
			grade.Flag = "high"
		case overallCount > 0 && grade.Overall <= opts.LowThreshold:
			grade.Flag = "low"
		}
		grades = append(grades, grade)
	}
	return grades
}

// WriteCSV emits the reduced grades as a flat table.
func WriteCSV(w io.Writer, grades []Grade) error {
	cw := csv.NewWriter(w)
	header := append([]string{"Name", "Team"}, metrics...)
	header = append(header, "Overall", "Flag", "Raters")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, grade := range grades {
		row := []string{grade.Name, grade.Team}
		for _, metric := range metrics {
			row = append(row, formatScore(grade.Scores, metric))
		}
		row = append(row, strconv.FormatFloat(grade.Overall, 'f', 2, 64), grade.Flag, strconv.Itoa(grade.Raters))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// isSelfRating reports whether a rating's person key refers to the evaluator
// themselves. Person keys come from export tags, which normalize names onto
// the tag alphabet and may carry the team key as a prefix, so both spellings
// are checked.
func isSelfRating(r Rating) bool {
	person := normalizeKey(r.Person)
	evaluator := normalizeKey(r.Evaluator)
	if evaluator == "" {
		return false
	}
	if person == evaluator {
		return true
	}
	return r.Team != "" && person == normalizeKey(r.Team)+"_"+evaluator
}

// normalizeKey maps a display name onto the export-tag alphabet the survey
// generator uses: spaces and hyphens become underscores, anything else
// outside [a-z0-9_] is dropped.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune('_')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func metricMean(submissions []Rating, metric string) (float64, bool) {
	var sum float64
	var count int
	for _, s := range submissions {
		if value, ok := s.Scores[metric]; ok {
			sum += value
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func formatScore(scores map[string]float64, metric string) string {
	value, ok := scores[metric]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
