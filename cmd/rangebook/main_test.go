package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/rangebook/internal/config"
	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
)

var fixedNow = time.Date(2026, time.March, 20, 12, 0, 0, 0, time.Local)

func useFixedNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })
}


func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var b strings.Builder
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Maintenance.RoundsLimit == nil || *cfg.Maintenance.RoundsLimit != metrics.DefaultRoundsLimit {
		t.Fatalf("unexpected rounds limit: %v", cfg.Maintenance.RoundsLimit)
	}
	if cfg.Stats.TrendWindow == nil || *cfg.Stats.TrendWindow != defaultTrendWindow {
		t.Fatalf("unexpected trend window: %v", cfg.Stats.TrendWindow)
	}
	if cfg.BaseCurrency("") != metrics.DefaultBaseCurrency {
		t.Fatalf("unexpected base: %q", cfg.BaseCurrency(""))
	}
}

func TestValidateSession(t *testing.T) {
	useFixedNow(t)
	past := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local)
	tests := []struct {
		name    string
		session model.Session
		wantErr string
	}{
		{"valid", model.Session{Date: past, Shots: 10, Hits: intPtr(10)}, ""},
		{"today", model.Session{Date: time.Date(2026, time.March, 20, 0, 0, 0, 0, time.Local), Shots: 1}, ""},
		{"no shots", model.Session{Date: past}, "--shots"},
		{"hits above shots", model.Session{Date: past, Shots: 10, Hits: intPtr(11)}, "--hits"},
		{"negative hits", model.Session{Date: past, Shots: 10, Hits: intPtr(-1)}, "--hits"},
		{"zero distance", model.Session{Date: past, Shots: 10, DistanceM: floatPtr(0)}, "--distance"},
		{"negative group", model.Session{Date: past, Shots: 10, GroupCM: floatPtr(-2)}, "--group"},
		{"negative cost", model.Session{Date: past, Shots: 10, Cost: floatPtr(-1)}, "--cost"},
		{"future", model.Session{Date: fixedNow.AddDate(0, 0, 1), Shots: 10}, "future"},
		{"nan distance", model.Session{Date: past, Shots: 10, DistanceM: floatPtr(math.NaN())}, "--distance"},
		{"infinite group", model.Session{Date: past, Shots: 10, GroupCM: floatPtr(math.Inf(1))}, "--group"},
		{"nan cost", model.Session{Date: past, Shots: 10, Cost: floatPtr(math.NaN())}, "--cost"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSession(tc.session)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDefaultCost(t *testing.T) {
	if got := defaultCost(50, model.Ammo{}); got != nil {
		t.Fatalf("expected no cost without price, got %v", *got)
	}
	got := defaultCost(50, model.Ammo{PricePerRound: floatPtr(1.6)})
	if got == nil || *got != 80 {
		t.Fatalf("expected 80, got %v", got)
	}
	got = defaultCost(3, model.Ammo{PricePerRound: floatPtr(0.1)})
	if got == nil || *got != 0.3 {
		t.Fatalf("expected exact 0.3, got %v", got)
	}
}

func TestParseDate(t *testing.T) {
	useFixedNow(t)
	got, err := parseDate("date", "")
	if err != nil {
		t.Fatalf("parse empty date: %v", err)
	}
	if got.Format(model.DateLayout) != "2026-03-20" {
		t.Fatalf("expected today, got %s", got)
	}
	if _, err := parseDate("since", "20-03-2026"); err == nil || !strings.Contains(err.Error(), "--since") {
		t.Fatalf("expected --since error, got %v", err)
	}
	opt, err := parseOptionalDate("since", "")
	if err != nil || opt != nil {
		t.Fatalf("expected nil date, got %v %v", opt, err)
	}
}

func TestValidatePreferences(t *testing.T) {
	table := metrics.NewRateTable("pln", map[string]float64{"eur": 4.3})
	ok := model.Preferences{RoundsLimit: 500, DaysLimit: 90, DisplayCurrency: "eur"}
	if err := validatePreferences(ok, table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := ok
	bad.RoundsLimit = 0
	if err := validatePreferences(bad, table); err == nil {
		t.Fatalf("expected rounds-limit error")
	}
	bad = ok
	bad.DaysLimit = -1
	if err := validatePreferences(bad, table); err == nil {
		t.Fatalf("expected days-limit error")
	}
	bad = ok
	bad.DisplayCurrency = "usd"
	if err := validatePreferences(bad, table); err == nil || !strings.Contains(err.Error(), "unknown currency") {
		t.Fatalf("expected unknown currency error, got %v", err)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func addedID(t *testing.T, out string) string {
	t.Helper()
	start := strings.LastIndex(out, "(")
	end := strings.LastIndex(out, ")")
	if start < 0 || end <= start {
		t.Fatalf("no id in output %q", out)
	}
	return out[start+1 : end]
}

func TestLogbookCommands(t *testing.T) {
	useFixedNow(t)
	dir := t.TempDir()
	t.Setenv("RANGEBOOK_DB", filepath.Join(dir, "rangebook.db"))
	t.Setenv("RANGEBOOK_CONFIG", filepath.Join(dir, "config.toml"))
	t.Setenv("RANGEBOOK_LOG_LEVEL", "error")

	out, err := runCLI(t, "gun", "add", "CZ 75", "--caliber", "9mm")
	if err != nil {
		t.Fatalf("gun add: %v", err)
	}
	gunID := addedID(t, out)
	out, err = runCLI(t, "ammo", "add", "FMJ", "--price", "1.6")
	if err != nil {
		t.Fatalf("ammo add: %v", err)
	}
	ammoID := addedID(t, out)

	if _, err := runCLI(t, "session", "add", "--gun", gunID[:8], "--ammo", ammoID,
		"--date", "2026-03-01", "--shots", "50", "--hits", "60"); err == nil {
		t.Fatalf("expected hits above shots to be rejected")
	}
	if _, err := runCLI(t, "session", "add", "--gun", gunID[:8], "--ammo", ammoID,
		"--date", "2026-03-01", "--shots", "400", "--hits", "320"); err != nil {
		t.Fatalf("session add: %v", err)
	}

	out, err = runCLI(t, "session", "list")
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	if !strings.Contains(out, "640,00 zł") || !strings.Contains(out, "CZ 75") {
		t.Fatalf("unexpected session list:\n%s", out)
	}

	out, err = runCLI(t, "status", "--alerts")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "YELLOW") {
		t.Fatalf("expected yellow alert:\n%s", out)
	}

	if _, err := runCLI(t, "rates", "set", "eur", "4"); err != nil {
		t.Fatalf("rates set: %v", err)
	}
	if _, err := runCLI(t, "prefs", "set", "--currency", "eur", "--rounds-limit", "1000"); err != nil {
		t.Fatalf("prefs set: %v", err)
	}
	out, err = runCLI(t, "session", "list")
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	if !strings.Contains(out, "160,00 €") {
		t.Fatalf("expected euro cost:\n%s", out)
	}
	out, err = runCLI(t, "status", "--alerts")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "No maintenance alerts.") {
		t.Fatalf("expected no alerts with raised limit:\n%s", out)
	}

	if _, err := runCLI(t, "gun", "rm", gunID[:8]); err == nil {
		t.Fatalf("expected referenced gun removal to fail")
	}
}

func TestValidateRate(t *testing.T) {
	for _, rate := range []float64{4.3, metrics.MinRate, metrics.MaxRate} {
		if err := validateRate(rate); err != nil {
			t.Fatalf("validateRate(%v): %v", rate, err)
		}
	}
	for _, rate := range []float64{0, -2, 1e-320, math.Inf(1), math.NaN()} {
		if err := validateRate(rate); err == nil {
			t.Fatalf("expected %v to be rejected", rate)
		}
	}
}

func TestRatesSetRejectsExtremeRates(t *testing.T) {
	useFixedNow(t)
	dir := t.TempDir()
	t.Setenv("RANGEBOOK_DB", filepath.Join(dir, "rangebook.db"))
	t.Setenv("RANGEBOOK_CONFIG", filepath.Join(dir, "config.toml"))
	t.Setenv("RANGEBOOK_LOG_LEVEL", "error")

	for _, rate := range []string{"1e-320", "inf", "nan"} {
		if _, err := runCLI(t, "rates", "set", "eur", rate); err == nil {
			t.Fatalf("expected rate %s to be rejected", rate)
		}
	}
	out, err := runCLI(t, "rates", "list")
	if err != nil {
		t.Fatalf("rates list: %v", err)
	}
	if strings.Contains(out, "EUR") {
		t.Fatalf("expected no eur rate stored:\n%s", out)
	}
	out, err = runCLI(t, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "No sessions found.") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}
