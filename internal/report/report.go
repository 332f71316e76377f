package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/rates"
)

// SessionRow is a session joined with catalog names and derived metrics.
type SessionRow struct {
	Session  model.Session
	GunName  string
	AmmoName string
	Score    metrics.Score
}

// GunStatus is a maintenance status with the firearm name.
type GunStatus struct {
	metrics.MaintenanceStatus
	Name string
}

// CostLine aggregates spending for one firearm or ammunition type, in the base currency.
type CostLine struct {
	ID       string
	Name     string
	Sessions int
	Shots    int
	Cost     decimal.Decimal
}

// Summary aggregates the listed sessions.
type Summary struct {
	Sessions      int
	Shots         int
	Hits          int
	AvgAccuracy   *float64
	AvgComposite  *float64
	BestComposite *int
	TotalCost     decimal.Decimal
}

// Report contains precomputed data for rendering.
type Report struct {
	Now        time.Time
	Converter  metrics.Converter
	Thresholds metrics.Thresholds
	Rows       []SessionRow
	Statuses   []GunStatus
	Alerts     []GunStatus
	Summary    Summary
	GunCosts   []CostLine
	AmmoCosts  []CostLine
	// Trend holds composite scores oldest first.
	Trend       []float64
	TrendWindow int
}

// Build derives every report value from a snapshot.
func Build(snap Snapshot, cfg model.ReportConfig, now time.Time) Report {
	display := cfg.Currency
	if strings.TrimSpace(display) == "" {
		display = snap.Preferences.DisplayCurrency
	}
	table := rates.Table(snap.Base, snap.Rates)
	r := Report{
		Now:       now,
		Converter: metrics.NewConverter(table, display),
		Thresholds: metrics.Thresholds{
			RoundsLimit: snap.Preferences.RoundsLimit,
			DaysLimit:   snap.Preferences.DaysLimit,
		}.Normalize(),
		TrendWindow: cfg.TrendWindow,
	}

	gunNames := make(map[string]string, len(snap.Guns))
	for _, g := range snap.Guns {
		gunNames[g.ID] = g.Name
	}
	ammoNames := make(map[string]string, len(snap.Ammo))
	for _, a := range snap.Ammo {
		ammoNames[a.ID] = a.Name
	}

	r.Rows = make([]SessionRow, 0, len(snap.Sessions))
	for _, s := range snap.Sessions {
		r.Rows = append(r.Rows, SessionRow{
			Session:  s,
			GunName:  nameOr(gunNames, s.GunID),
			AmmoName: nameOr(ammoNames, s.AmmoID),
			Score:    metrics.ScoreSession(s),
		})
	}
	r.Summary = summarize(r.Rows)
	r.GunCosts = costLines(r.Rows, func(row SessionRow) (string, string) { return row.Session.GunID, row.GunName })
	r.AmmoCosts = costLines(r.Rows, func(row SessionRow) (string, string) { return row.Session.AmmoID, row.AmmoName })
	r.Trend = trendSeries(r.Rows)

	idx := metrics.BuildIndex(snap.AllSessions, snap.Maintenance)
	gunIDs := orderedGunIDs(snap.Guns, idx.GunIDs())
	for _, st := range metrics.EvaluateAll(gunIDs, idx, r.Thresholds, now) {
		r.Statuses = append(r.Statuses, GunStatus{MaintenanceStatus: st, Name: nameOr(gunNames, st.GunID)})
	}
	for _, st := range metrics.Alerts(statusesOnly(r.Statuses)) {
		r.Alerts = append(r.Alerts, GunStatus{MaintenanceStatus: st, Name: nameOr(gunNames, st.GunID)})
	}
	return r
}

// CostPerHit returns the average cost of one hit in the base currency.
func (s Summary) CostPerHit() (decimal.Decimal, bool) {
	if s.Hits <= 0 || s.TotalCost.IsZero() {
		return decimal.Zero, false
	}
	return s.TotalCost.Div(decimal.NewFromInt(int64(s.Hits))), true
}

func summarize(rows []SessionRow) Summary {
	var sum Summary
	var accSum, compSum float64
	var accCount, compCount int
	for _, row := range rows {
		s := row.Session
		sum.Sessions++
		sum.Shots += s.Shots
		if s.Hits != nil {
			sum.Hits += *s.Hits
		}
		if s.Cost != nil {
			sum.TotalCost = sum.TotalCost.Add(decimal.NewFromFloat(*s.Cost))
		}
		if row.Score.AccuracyPercent != nil {
			accSum += float64(*row.Score.AccuracyPercent)
			accCount++
		}
		if c := row.Score.CompositeScore; c != nil {
			compSum += float64(*c)
			compCount++
			if sum.BestComposite == nil || *c > *sum.BestComposite {
				best := *c
				sum.BestComposite = &best
			}
		}
	}
	if accCount > 0 {
		avg := accSum / float64(accCount)
		sum.AvgAccuracy = &avg
	}
	if compCount > 0 {
		avg := compSum / float64(compCount)
		sum.AvgComposite = &avg
	}
	return sum
}

func costLines(rows []SessionRow, key func(SessionRow) (string, string)) []CostLine {
	byID := map[string]*CostLine{}
	for _, row := range rows {
		id, name := key(row)
		line, ok := byID[id]
		if !ok {
			line = &CostLine{ID: id, Name: name}
			byID[id] = line
		}
		line.Sessions++
		line.Shots += row.Session.Shots
		if row.Session.Cost != nil {
			line.Cost = line.Cost.Add(decimal.NewFromFloat(*row.Session.Cost))
		}
	}
	out := make([]CostLine, 0, len(byID))
	for _, line := range byID {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Cost.Cmp(out[j].Cost); cmp != 0 {
			return cmp > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// trendSeries returns composite scores of scored rows, oldest first.
func trendSeries(rows []SessionRow) []float64 {
	scored := make([]SessionRow, 0, len(rows))
	for _, row := range rows {
		if row.Score.CompositeScore != nil {
			scored = append(scored, row)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Session.Date.Before(scored[j].Session.Date)
	})
	out := make([]float64, len(scored))
	for i, row := range scored {
		out[i] = float64(*row.Score.CompositeScore)
	}
	return out
}

// orderedGunIDs lists catalog guns first, then any gun only referenced by records.
func orderedGunIDs(guns []model.Gun, indexed []string) []string {
	seen := make(map[string]struct{}, len(guns))
	ids := make([]string, 0, len(guns)+len(indexed))
	for _, g := range guns {
		seen[g.ID] = struct{}{}
		ids = append(ids, g.ID)
	}
	for _, id := range indexed {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func statusesOnly(in []GunStatus) []metrics.MaintenanceStatus {
	out := make([]metrics.MaintenanceStatus, len(in))
	for i, s := range in {
		out[i] = s.MaintenanceStatus
	}
	return out
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return shortID(id)
}

// shortID abbreviates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
