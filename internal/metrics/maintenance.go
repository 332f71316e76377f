package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	// DefaultRoundsLimit is the round count after which service is due.
	DefaultRoundsLimit = 500
	// DefaultDaysLimit is the number of days after which service is due.
	DefaultDaysLimit = 90

	warnRatio = 0.75
)

// Status is the maintenance urgency tier of a firearm.
type Status string

// Status tiers, from no data to overdue.
const (
	StatusNone   Status = "none"
	StatusGreen  Status = "green"
	StatusYellow Status = "yellow"
	StatusRed    Status = "red"
)

// Axis names the quantity driving the maintenance percentage.
type Axis string

// Maintenance axes.
const (
	AxisRounds Axis = "rounds"
	AxisDays   Axis = "days"
)

// Thresholds are the per-user maintenance limits.
type Thresholds struct {
	RoundsLimit int
	DaysLimit   int
}

// DefaultThresholds returns the built-in limits.
func DefaultThresholds() Thresholds {
	return Thresholds{RoundsLimit: DefaultRoundsLimit, DaysLimit: DefaultDaysLimit}
}

// Normalize replaces non-positive limits with the defaults.
func (t Thresholds) Normalize() Thresholds {
	if t.RoundsLimit <= 0 {
		t.RoundsLimit = DefaultRoundsLimit
	}
	if t.DaysLimit <= 0 {
		t.DaysLimit = DefaultDaysLimit
	}
	return t
}

// MaintenanceStatus is the evaluated state of one firearm.
type MaintenanceStatus struct {
	GunID  string
	Status Status
	// Rounds fired since the last maintenance, or in total without one.
	Rounds int
	// Days since the last maintenance; nil without maintenance history.
	Days       *int
	Axis       Axis
	Percentage float64
	Reason     string
}

// IsAlert reports whether the status needs attention.
func (s MaintenanceStatus) IsAlert() bool {
	return s.Status == StatusYellow || s.Status == StatusRed
}

// EvaluateMaintenance computes the maintenance status of a gun at the given instant.
func EvaluateMaintenance(gunID string, idx *Index, th Thresholds, now time.Time) MaintenanceStatus {
	th = th.Normalize()
	out := MaintenanceStatus{GunID: gunID, Axis: AxisRounds}

	last, ok := idx.LatestMaintenance(gunID)
	if !ok {
		sessions := idx.Sessions(gunID)
		out.Rounds = sumShots(sessions)
		out.Percentage = percentOf(out.Rounds, th.RoundsLimit)
		switch {
		case out.Rounds >= th.RoundsLimit:
			out.Status = StatusRed
			out.Reason = fmt.Sprintf("No maintenance recorded, %d/%d rounds fired (%d%%)",
				out.Rounds, th.RoundsLimit, roundPercent(out.Percentage))
		case float64(out.Rounds)/float64(th.RoundsLimit) >= warnRatio:
			out.Status = StatusYellow
			out.Reason = fmt.Sprintf("No maintenance recorded, approaching %d/%d rounds (%d%%)",
				out.Rounds, th.RoundsLimit, roundPercent(out.Percentage))
		case len(sessions) == 0:
			out.Status = StatusNone
		default:
			out.Status = StatusGreen
		}
		return out
	}

	out.Rounds = sumShots(idx.SessionsSince(gunID, last.Date))
	days := daysBetween(last.Date, now)
	out.Days = &days

	switch {
	case out.Rounds == 0:
		out.Axis = AxisDays
	case days < th.DaysLimit:
		out.Axis = AxisRounds
	default:
		out.Axis = AxisDays
	}
	count, limit, unit := out.Rounds, th.RoundsLimit, "rounds"
	if out.Axis == AxisDays {
		count, limit, unit = days, th.DaysLimit, "days"
	}
	out.Percentage = percentOf(count, limit)

	switch {
	case out.Percentage >= 100:
		out.Status = StatusRed
		out.Reason = fmt.Sprintf("Maintenance overdue: %d/%d %s since last service (%d%%)",
			count, limit, unit, roundPercent(out.Percentage))
	case out.Percentage >= warnRatio*100:
		out.Status = StatusYellow
		out.Reason = fmt.Sprintf("Maintenance due soon: %d/%d %s since last service (%d%%)",
			count, limit, unit, roundPercent(out.Percentage))
	default:
		out.Status = StatusGreen
	}
	return out
}

// EvaluateAll evaluates every gun ID, in the given order.
func EvaluateAll(gunIDs []string, idx *Index, th Thresholds, now time.Time) []MaintenanceStatus {
	out := make([]MaintenanceStatus, 0, len(gunIDs))
	for _, id := range gunIDs {
		out = append(out, EvaluateMaintenance(id, idx, th, now))
	}
	return out
}

// Alerts keeps yellow and red statuses, red first, then by percentage descending.
func Alerts(statuses []MaintenanceStatus) []MaintenanceStatus {
	out := make([]MaintenanceStatus, 0, len(statuses))
	for _, s := range statuses {
		if s.IsAlert() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status == StatusRed
		}
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

func percentOf(count, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(count) * 100 / float64(limit)
}

func roundPercent(p float64) int {
	return int(math.Round(p))
}
