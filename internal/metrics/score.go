// Package metrics derives comparable numbers from raw logbook records:
// per-session scores, per-firearm maintenance status and currency conversion.
// Every function is pure; missing inputs produce nil results, not errors.
package metrics

import (
	"math"

	"github.com/verte-zerg/rangebook/internal/model"
)

const (
	// moaPerCMPerMeter converts a group size in cm at a distance in meters to minutes of angle.
	moaPerCMPerMeter = 34.38

	accuracyWeight  = 0.4
	precisionWeight = 0.6

	// dispersionCeiling is the angular dispersion at which precision reaches zero.
	dispersionCeiling = 10.0
)

// Score holds the derived metrics of one session. Nil fields are undefined.
type Score struct {
	AccuracyPercent   *int
	AngularDispersion *float64
	CompositeScore    *int
}

// ScoreSession computes accuracy, angular dispersion and the composite score for a session.
func ScoreSession(s model.Session) Score {
	return ScoreRaw(s.Shots, s.Hits, s.GroupCM, s.DistanceM)
}

// ScoreRaw computes session metrics from raw fields.
func ScoreRaw(shots int, hits *int, groupCM, distanceM *float64) Score {
	var out Score

	var accuracy float64
	hasAccuracy := shots > 0 && hits != nil
	if hasAccuracy {
		accuracy = float64(*hits) / float64(shots)
		pct := int(math.Round(accuracy * 100))
		out.AccuracyPercent = &pct
	}

	hasDispersion := false
	var precision float64
	if groupCM != nil && distanceM != nil && *groupCM > 0 && *distanceM > 0 {
		moa := (*groupCM / *distanceM) * moaPerCMPerMeter
		dispersion := moa * *distanceM / 100
		out.AngularDispersion = &dispersion
		precision = math.Max(0, 1-dispersion/dispersionCeiling)
		hasDispersion = true
	}

	if !hasAccuracy {
		return out
	}
	blend := accuracy
	if hasDispersion {
		blend = accuracy*accuracyWeight + precision*precisionWeight
	}
	composite := clampScore(int(math.Round(blend * 100)))
	out.CompositeScore = &composite
	return out
}

// MOA returns the angular size of a group in minutes of angle.
func MOA(groupCM, distanceM float64) (float64, bool) {
	if groupCM <= 0 || distanceM <= 0 {
		return 0, false
	}
	return (groupCM / distanceM) * moaPerCMPerMeter, true
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
