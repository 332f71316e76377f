package metrics

import (
	"testing"
	"time"

	"github.com/verte-zerg/rangebook/internal/model"
)

var evalNow = time.Date(2026, time.March, 20, 18, 30, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -n)
}

func TestBuildIndexSortsMaintenanceDescending(t *testing.T) {
	idx := BuildIndex(
		[]model.Session{{ID: "s1", GunID: "g2", Shots: 5}},
		[]model.MaintenanceRecord{
			{ID: "m1", GunID: "g1", Date: daysAgo(30)},
			{ID: "m2", GunID: "g1", Date: daysAgo(2)},
			{ID: "m3", GunID: "g1", Date: daysAgo(10)},
		},
	)
	recs := idx.Maintenance("g1")
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].ID != "m2" || recs[1].ID != "m3" || recs[2].ID != "m1" {
		t.Fatalf("unexpected order: %s %s %s", recs[0].ID, recs[1].ID, recs[2].ID)
	}
	ids := idx.GunIDs()
	if len(ids) != 2 || ids[0] != "g1" || ids[1] != "g2" {
		t.Fatalf("unexpected gun ids: %v", ids)
	}
}

func TestSessionsSinceIncludesSameDay(t *testing.T) {
	maintDay := daysAgo(5)
	idx := BuildIndex([]model.Session{
		{ID: "before", GunID: "g", Date: daysAgo(6), Shots: 10},
		{ID: "same", GunID: "g", Date: maintDay.Add(9 * time.Hour), Shots: 20},
		{ID: "after", GunID: "g", Date: daysAgo(1), Shots: 30},
	}, nil)
	got := idx.SessionsSince("g", maintDay.Add(15*time.Hour))
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if sumShots(got) != 50 {
		t.Fatalf("expected 50 shots, got %d", sumShots(got))
	}
}

func TestEvaluateMaintenance(t *testing.T) {
	th := Thresholds{RoundsLimit: 500, DaysLimit: 90}
	tests := []struct {
		name       string
		sessions   []model.Session
		records    []model.MaintenanceRecord
		wantStatus Status
		wantRounds int
		wantDays   *int
		wantAxis   Axis
	}{
		{
			name:       "no history",
			wantStatus: StatusNone,
		},
		{
			name: "no maintenance over limit",
			sessions: []model.Session{
				{GunID: "g", Date: daysAgo(20), Shots: 300},
				{GunID: "g", Date: daysAgo(10), Shots: 300},
			},
			wantStatus: StatusRed,
			wantRounds: 600,
			wantAxis:   AxisRounds,
		},
		{
			name:       "no maintenance approaching",
			sessions:   []model.Session{{GunID: "g", Date: daysAgo(3), Shots: 375}},
			wantStatus: StatusYellow,
			wantRounds: 375,
			wantAxis:   AxisRounds,
		},
		{
			name:       "no maintenance green",
			sessions:   []model.Session{{GunID: "g", Date: daysAgo(3), Shots: 50}},
			wantStatus: StatusGreen,
			wantRounds: 50,
			wantAxis:   AxisRounds,
		},
		{
			name: "rounds axis yellow",
			sessions: []model.Session{
				{GunID: "g", Date: daysAgo(60), Shots: 1000},
				{GunID: "g", Date: daysAgo(30), Shots: 250},
				{GunID: "g", Date: daysAgo(5), Shots: 150},
			},
			records:    []model.MaintenanceRecord{{GunID: "g", Date: daysAgo(40)}},
			wantStatus: StatusYellow,
			wantRounds: 400,
			wantDays:   intPtr(40),
			wantAxis:   AxisRounds,
		},
		{
			name:       "rounds axis red",
			sessions:   []model.Session{{GunID: "g", Date: daysAgo(5), Shots: 500}},
			records:    []model.MaintenanceRecord{{GunID: "g", Date: daysAgo(10)}},
			wantStatus: StatusRed,
			wantRounds: 500,
			wantDays:   intPtr(10),
			wantAxis:   AxisRounds,
		},
		{
			name:       "zero rounds uses days axis",
			records:    []model.MaintenanceRecord{{GunID: "g", Date: daysAgo(70)}},
			wantStatus: StatusYellow,
			wantDays:   intPtr(70),
			wantAxis:   AxisDays,
		},
		{
			name:       "days limit reached switches axis",
			sessions:   []model.Session{{GunID: "g", Date: daysAgo(2), Shots: 10}},
			records:    []model.MaintenanceRecord{{GunID: "g", Date: daysAgo(95)}},
			wantStatus: StatusRed,
			wantRounds: 10,
			wantDays:   intPtr(95),
			wantAxis:   AxisDays,
		},
		{
			name:       "fresh maintenance green",
			sessions:   []model.Session{{GunID: "g", Date: daysAgo(1), Shots: 40}},
			records:    []model.MaintenanceRecord{{GunID: "g", Date: daysAgo(3)}},
			wantStatus: StatusGreen,
			wantRounds: 40,
			wantDays:   intPtr(3),
			wantAxis:   AxisRounds,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx := BuildIndex(tc.sessions, tc.records)
			got := EvaluateMaintenance("g", idx, th, evalNow)
			if got.Status != tc.wantStatus {
				t.Fatalf("expected status %s, got %s (%+v)", tc.wantStatus, got.Status, got)
			}
			if got.Rounds != tc.wantRounds {
				t.Fatalf("expected rounds %d, got %d", tc.wantRounds, got.Rounds)
			}
			if (tc.wantDays == nil) != (got.Days == nil) {
				t.Fatalf("expected days %v, got %v", tc.wantDays, got.Days)
			}
			if tc.wantDays != nil && *tc.wantDays != *got.Days {
				t.Fatalf("expected days %d, got %d", *tc.wantDays, *got.Days)
			}
			if tc.wantStatus != StatusNone && got.Axis != tc.wantAxis {
				t.Fatalf("expected axis %s, got %s", tc.wantAxis, got.Axis)
			}
			if got.IsAlert() && got.Reason == "" {
				t.Fatalf("expected a reason for alert status")
			}
			if got.Status == StatusNone && got.Reason != "" {
				t.Fatalf("expected empty reason for none, got %q", got.Reason)
			}
		})
	}
}

func TestEvaluateMaintenanceReasonWording(t *testing.T) {
	th := Thresholds{RoundsLimit: 500, DaysLimit: 90}
	idx := BuildIndex(
		[]model.Session{{GunID: "g", Date: daysAgo(5), Shots: 400}},
		[]model.MaintenanceRecord{{GunID: "g", Date: daysAgo(40)}},
	)
	got := EvaluateMaintenance("g", idx, th, evalNow)
	if got.Percentage != 80 {
		t.Fatalf("expected 80%%, got %v", got.Percentage)
	}
	want := "Maintenance due soon: 400/500 rounds since last service (80%)"
	if got.Reason != want {
		t.Fatalf("unexpected reason: %q", got.Reason)
	}

	idx = BuildIndex(nil, []model.MaintenanceRecord{{GunID: "g", Date: daysAgo(120)}})
	got = EvaluateMaintenance("g", idx, th, evalNow)
	want = "Maintenance overdue: 120/90 days since last service (133%)"
	if got.Reason != want {
		t.Fatalf("unexpected reason: %q", got.Reason)
	}
}

func TestThresholdsNormalize(t *testing.T) {
	got := Thresholds{RoundsLimit: 0, DaysLimit: -3}.Normalize()
	if got != DefaultThresholds() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	idx := BuildIndex([]model.Session{{GunID: "g", Shots: 600}}, nil)
	if s := EvaluateMaintenance("g", idx, Thresholds{}, evalNow); s.Status != StatusRed {
		t.Fatalf("expected red with default limits, got %s", s.Status)
	}
}

func TestAlertsOrdering(t *testing.T) {
	statuses := []MaintenanceStatus{
		{GunID: "a", Status: StatusYellow, Percentage: 80},
		{GunID: "b", Status: StatusGreen, Percentage: 10},
		{GunID: "c", Status: StatusRed, Percentage: 110},
		{GunID: "d", Status: StatusYellow, Percentage: 95},
		{GunID: "e", Status: StatusNone},
		{GunID: "f", Status: StatusRed, Percentage: 150},
	}
	got := Alerts(statuses)
	order := make([]string, 0, len(got))
	for _, s := range got {
		order = append(order, s.GunID)
	}
	want := []string{"f", "c", "d", "a"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}
