// Package events aggregates outreach event attendance per team from
// engagement worksheet rows.
package events

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Column headers expected in the engagement worksheet.
const (
	DateColumn       = "Date"
	TeamColumn       = "Team"
	AttendanceColumn = "Number of users engaged normalized"
)

// Row is one engagement entry as it appears in the worksheet.
type Row struct {
	Date       string
	Team       string
	Attendance string
}

// TeamStats counts qualifying events and the people they reached.
type TeamStats struct {
	Events int `json:"events"`
	People int `json:"people"`
}

// ParseAttendance extracts the lower bound from a normalized
// attendance value: "5-10" is 5, "15+" is 15, "12" is 12, and an empty
// value is zero.
func ParseAttendance(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if i := strings.Index(s, "-"); i >= 0 {
		s = s[:i]
	} else {
		s = strings.TrimSuffix(s, "+")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("attendance %q is not a number", s)
	}
	return n, nil
}

// RowsFromGrid extracts engagement rows from a worksheet value grid.
// The first row must carry the expected column headers.
func RowsFromGrid(grid [][]interface{}) ([]Row, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("engagement sheet is empty")
	}

	dateCol, teamCol, attCol := -1, -1, -1
	for i, cell := range grid[0] {
		switch strings.TrimSpace(cellText(cell)) {
		case DateColumn:
			dateCol = i
		case TeamColumn:
			teamCol = i
		case AttendanceColumn:
			attCol = i
		}
	}
	if dateCol < 0 || teamCol < 0 || attCol < 0 {
		return nil, fmt.Errorf("engagement sheet is missing a required column (%s, %s, %s)",
			DateColumn, TeamColumn, AttendanceColumn)
	}

	var rows []Row
	for _, r := range grid[1:] {
		rows = append(rows, Row{
			Date:       strings.TrimSpace(cellAt(r, dateCol)),
			Team:       strings.TrimSpace(cellAt(r, teamCol)),
			Attendance: strings.TrimSpace(cellAt(r, attCol)),
		})
	}
	return rows, nil
}

func cellAt(row []interface{}, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return cellText(row[col])
}

func cellText(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Aggregate computes per-team stats over all rows dated on or before
// the cutoff. An event qualifies only when more than one user engaged.
// Unusable rows are skipped and reported in the warnings.
func Aggregate(rows []Row, cutoff time.Time) (map[string]TeamStats, []string) {
	stats := make(map[string]TeamStats)
	var warnings []string

	for i, row := range rows {
		if row.Date == "" && row.Team == "" && row.Attendance == "" {
			continue
		}
		if row.Team == "" {
			warnings = append(warnings, fmt.Sprintf("row %d has no team, skipping", i+1))
			continue
		}
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d has unusable date %q, skipping", i+1, row.Date))
			continue
		}
		users, err := ParseAttendance(row.Attendance)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v, skipping", i+1, err))
			continue
		}

		if date.After(cutoff) || users <= 1 {
			continue
		}
		s := stats[row.Team]
		s.Events++
		s.People += users
		stats[row.Team] = s
	}
	return stats, warnings
}

// Totals sums events and people across teams.
func Totals(stats map[string]TeamStats) (events, people int) {
	for _, s := range stats {
		events += s.Events
		people += s.People
	}
	return events, people
}

// Teams lists the team names in sorted order for stable output.
func Teams(stats map[string]TeamStats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
