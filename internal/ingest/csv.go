// Package ingest turns slate spreadsheets into player pools.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

// ErrMissingColumn is returned when a required header is absent
var ErrMissingColumn = errors.New("slate is missing a required column")

// projectionColumns are tried in order
var projectionColumns = []string{"PROJECTED_POINTS", "FINAL POINTS", "PROJECTION"}

// Report describes what ParseCSV kept and dropped
type Report struct {
	Rows       int            `json:"rows"`
	Kept       int            `json:"kept"`
	Dropped    int            `json:"dropped"`
	Duplicates int            `json:"duplicates"`
	Reasons    map[string]int `json:"reasons,omitempty"`
}

func (r *Report) drop(reason string) {
	r.Dropped++
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason]++
}

type columns struct {
	id, name, team, pos, salary, projection int
}

// ParseCSV reads a slate with PLAYER, TEAM, POS, SALARY and a projection
// column. Player ids come from an ID column when present, otherwise from the
// player name. Rows with missing or unparsable fields are dropped and counted;
// for duplicate ids the first row wins.
func ParseCSV(r io.Reader) ([]models.Player, Report, error) {
	var report Report

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, fmt.Errorf("%w: empty slate", ErrMissingColumn)
		}
		return nil, report, fmt.Errorf("failed to read slate header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, report, err
	}

	players := make([]models.Player, 0)
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("failed to read slate row %d: %w", report.Rows+2, err)
		}
		report.Rows++

		p, reason := parseRecord(record, cols)
		if reason != "" {
			report.drop(reason)
			continue
		}
		if seen[p.ID] {
			report.Duplicates++
			report.drop("duplicate")
			continue
		}
		seen[p.ID] = true
		players = append(players, p)
	}
	report.Kept = len(players)
	return players, report, nil
}

func locateColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	cols := columns{id: -1, projection: -1}
	if i, ok := index["ID"]; ok {
		cols.id = i
	}
	for _, name := range []string{"PLAYER", "TEAM", "POS", "SALARY"} {
		if _, ok := index[name]; !ok {
			return cols, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	cols.name, cols.team, cols.pos, cols.salary = index["PLAYER"], index["TEAM"], index["POS"], index["SALARY"]
	for _, name := range projectionColumns {
		if i, ok := index[name]; ok {
			cols.projection = i
			break
		}
	}
	if cols.projection < 0 {
		return cols, fmt.Errorf("%w: one of %s", ErrMissingColumn, strings.Join(projectionColumns, ", "))
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRecord returns the player or a non-empty drop reason
func parseRecord(record []string, cols columns) (models.Player, string) {
	name := field(record, cols.name)
	team := strings.ToUpper(field(record, cols.team))
	if name == "" || team == "" {
		return models.Player{}, "missing_field"
	}

	pos, err := models.ParsePosition(field(record, cols.pos))
	if err != nil {
		return models.Player{}, "bad_position"
	}

	salary, err := ParseSalary(field(record, cols.salary))
	if err != nil {
		return models.Player{}, "bad_salary"
	}

	projection, err := strconv.ParseFloat(field(record, cols.projection), 64)
	if err != nil || math.IsNaN(projection) || math.IsInf(projection, 0) {
		return models.Player{}, "bad_projection"
	}

	id := field(record, cols.id)
	if id == "" {
		id = name
	}
	return models.Player{
		ID:         id,
		Name:       name,
		Team:       team,
		Position:   pos,
		Salary:     salary,
		Projection: projection,
	}, ""
}

// ParseSalary accepts values like "$7,400" or "7400.0"
func ParseSalary(raw string) (int, error) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("empty salary")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid salary %q: %w", raw, err)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid salary %q", raw)
	}
	return int(math.Round(value)), nil
}
