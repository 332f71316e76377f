package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
)

const missing = "-"

// RenderSummary prints overall totals for the listed sessions.
func RenderSummary(w io.Writer, r Report) error {
	if r.Summary.Sessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	s := r.Summary
	rows := [][]string{
		{"Sessions", strconv.Itoa(s.Sessions)},
		{"Rounds fired", strconv.Itoa(s.Shots)},
		{"Hits", strconv.Itoa(s.Hits)},
		{"Avg accuracy", formatOptFloat(s.AvgAccuracy, "%.1f%%")},
		{"Avg score", formatOptFloat(s.AvgComposite, "%.1f")},
		{"Best score", formatOptInt(s.BestComposite, "%d")},
		{"Total cost", r.Converter.FormatDisplay(s.TotalCost.InexactFloat64())},
	}
	if perHit, ok := s.CostPerHit(); ok {
		rows = append(rows, []string{"Cost per hit", r.Converter.FormatDisplay(perHit.InexactFloat64())})
	}
	return writeSection(w, "Summary", formatTable(nil, rows, nil))
}

// RenderSessions prints one line per session with derived metrics.
func RenderSessions(w io.Writer, r Report) error {
	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	headers := []string{"ID", "Date", "Gun", "Ammo", "Shots", "Hits", "Acc", "Disp", "Score", "Cost"}
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, SessionCells(row, r.Converter))
	}
	right := map[int]bool{4: true, 5: true, 6: true, 7: true, 8: true, 9: true}
	return writeSection(w, "Sessions", formatTable(headers, rows, right))
}

// SessionCells formats a session row for tables.
func SessionCells(row SessionRow, conv metrics.Converter) []string {
	s := row.Session
	cost := missing
	if s.Cost != nil {
		cost = conv.FormatDisplay(*s.Cost)
	}
	return []string{
		shortID(s.ID),
		s.Date.Format(model.DateLayout),
		row.GunName,
		row.AmmoName,
		strconv.Itoa(s.Shots),
		formatOptInt(s.Hits, "%d"),
		formatOptInt(row.Score.AccuracyPercent, "%d%%"),
		formatOptFloat(row.Score.AngularDispersion, "%.2f"),
		formatOptInt(row.Score.CompositeScore, "%d"),
		cost,
	}
}

// RenderStatuses prints the maintenance status of every firearm, or only alerts.
func RenderStatuses(w io.Writer, r Report, alertsOnly bool) error {
	statuses := r.Statuses
	title := "Maintenance"
	if alertsOnly {
		statuses = r.Alerts
		title = "Maintenance alerts"
	}
	if len(statuses) == 0 {
		msg := "No firearms found."
		if alertsOnly {
			msg = "No maintenance alerts."
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	headers := []string{"Gun", "Status", "Rounds", "Days", "Axis", "Load", "Reason"}
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, StatusCells(st))
	}
	right := map[int]bool{2: true, 3: true, 5: true}
	header := fmt.Sprintf("%s (limits: %d rounds / %d days)", title, r.Thresholds.RoundsLimit, r.Thresholds.DaysLimit)
	return writeSection(w, header, formatTable(headers, rows, right))
}

// StatusCells formats a maintenance status for tables.
func StatusCells(st GunStatus) []string {
	load := missing
	axis := missing
	if st.Status != metrics.StatusNone {
		load = fmt.Sprintf("%.0f%%", st.Percentage)
		axis = string(st.Axis)
	}
	return []string{
		st.Name,
		strings.ToUpper(string(st.Status)),
		strconv.Itoa(st.Rounds),
		formatOptInt(st.Days, "%d"),
		axis,
		load,
		st.Reason,
	}
}

// RenderCosts prints spending per firearm and per ammunition in the display currency.
func RenderCosts(w io.Writer, r Report) error {
	if len(r.GunCosts) == 0 {
		_, err := fmt.Fprintln(w, "No costs recorded.")
		return err
	}
	title := fmt.Sprintf("Costs (%s)", strings.ToUpper(r.Converter.Display))
	if err := writeSection(w, title+" by firearm", costTable(r.GunCosts, r.Converter)); err != nil {
		return err
	}
	return writeSection(w, title+" by ammunition", costTable(r.AmmoCosts, r.Converter))
}

func costTable(lines []CostLine, conv metrics.Converter) []string {
	headers := []string{"Name", "Sessions", "Rounds", "Cost", "Per round"}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		perRound := missing
		if l.Shots > 0 && !l.Cost.IsZero() {
			perRound = conv.FormatDisplay(l.Cost.InexactFloat64() / float64(l.Shots))
		}
		rows = append(rows, []string{
			l.Name,
			strconv.Itoa(l.Sessions),
			strconv.Itoa(l.Shots),
			conv.FormatDisplay(l.Cost.InexactFloat64()),
			perRound,
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}

// RenderTrend plots composite scores with a moving average.
func RenderTrend(w io.Writer, r Report, width, height int, forceColor bool) error {
	if len(r.Trend) == 0 {
		_, err := fmt.Fprintln(w, "No scored sessions yet.")
		return err
	}
	window := r.TrendWindow
	series := []Series{{Name: "Score", Values: r.Trend}}
	if window > 1 && len(r.Trend) > 1 {
		series = append(series, Series{
			Name:   fmt.Sprintf("Avg(%d)", window),
			Values: MovingAverage(r.Trend, window),
		})
	}
	return PlotScores(w, "Score trend", series, width, height, forceColor)
}

func writeSection(w io.Writer, title string, lines []string) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatOptInt(v *int, format string) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf(format, *v)
}

func formatOptFloat(v *float64, format string) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf(format, *v)
}
