// Package main provides the CLI entrypoint for rangebook.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/rangebook/internal/config"
	"github.com/verte-zerg/rangebook/internal/logger"
	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/report"
	"github.com/verte-zerg/rangebook/internal/store"
)

const defaultTrendWindow = 5

// now is replaced in tests.
var now = time.Now

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rangebook",
		Short:         "Shooting range logbook",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newGunCmd())
	rootCmd.AddCommand(newAmmoCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newMaintCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRatesCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// appEnv bundles what every command needs: settings, a logger and the open store.
type appEnv struct {
	env  config.EnvConfig
	file config.FileConfig
	log  *logger.Logger
	st   *store.Store
}

func openApp() (*appEnv, error) {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	log, err := logger.New(envCfg.LogMode, envCfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	fileCfg, err := config.LoadConfig(envCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(envCfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	log.Debug("opened logbook", "db", envCfg.DBPath, "config", envCfg.ConfigPath)
	return &appEnv{env: envCfg, file: fileCfg, log: log, st: st}, nil
}

func (a *appEnv) Close() {
	if cerr := a.st.Close(); cerr != nil {
		a.log.Warn("failed to close db", "error", cerr)
	}
	a.log.Sync()
}

func (a *appEnv) baseCurrency() string {
	return strings.ToLower(a.file.BaseCurrency(metrics.DefaultBaseCurrency))
}

// defaultPreferences are the config-file values over the built-in defaults.
func (a *appEnv) defaultPreferences() model.Preferences {
	prefs := model.Preferences{
		RoundsLimit:     metrics.DefaultRoundsLimit,
		DaysLimit:       metrics.DefaultDaysLimit,
		DisplayCurrency: a.baseCurrency(),
	}
	if v := a.file.Maintenance.RoundsLimit; v != nil && *v > 0 {
		prefs.RoundsLimit = *v
	}
	if v := a.file.Maintenance.DaysLimit; v != nil && *v > 0 {
		prefs.DaysLimit = *v
	}
	if v := a.file.Currency.Display; v != nil && strings.TrimSpace(*v) != "" {
		prefs.DisplayCurrency = strings.ToLower(strings.TrimSpace(*v))
	}
	return prefs
}

func (a *appEnv) loader() *report.Loader {
	return &report.Loader{
		Source:   a.st,
		Base:     a.baseCurrency(),
		Defaults: a.defaultPreferences(),
		Log:      a.log,
	}
}

// buildReport loads a snapshot and derives the report for it.
func (a *appEnv) buildReport(ctx context.Context, cfg model.ReportConfig) (report.Report, error) {
	snap, err := a.loader().Load(ctx, cfg.Filter)
	if err != nil {
		return report.Report{}, fmt.Errorf("failed to load logbook: %w", err)
	}
	if snap.PreferencesDefaulted {
		a.log.Debug("using default preferences")
	}
	return report.Build(snap, cfg, now()), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	path := envCfg.ConfigPath
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the config file unless it already exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# rangebook configuration
# Uncomment a value to enable it. Preferences saved with "rangebook prefs set"
# override these values, and CLI flags override both.

[maintenance]
# rounds-limit = %d       # Rounds between services
# days-limit = %d          # Days between services

[currency]
# base = %q             # Currency costs and prices are stored in
# display = %q          # Currency reports are shown in

[stats]
# trend-window = %d         # Moving average window of the score trend
`,
		metrics.DefaultRoundsLimit,
		metrics.DefaultDaysLimit,
		metrics.DefaultBaseCurrency,
		metrics.DefaultBaseCurrency,
		defaultTrendWindow,
	)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// parseDate parses a YYYY-MM-DD flag value; empty means today.
func parseDate(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		t := now()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
	}
	parsed, err := time.ParseInLocation(model.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value: %w", flag, err)
	}
	return parsed, nil
}

// parseOptionalDate parses a date flag that may be left unset.
func parseOptionalDate(flag, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := parseDate(flag, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func validateNotFuture(flag string, date time.Time) error {
	t := now()
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	if date.After(today) {
		return fmt.Errorf("--%s must not be in the future", flag)
	}
	return nil
}

// shortID abbreviates a UUID; the store resolves unique prefixes back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
