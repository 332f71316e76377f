package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/rangebook/internal/dashboard"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/report"
)

const trendPlotHeight = 10

var (
	statusAlerts bool

	reportGun         string
	reportSince       string
	reportLast        int
	reportCurrency    string
	reportTrendWindow int

	dashGun         string
	dashSince       string
	dashLast        int
	dashCurrency    string
	dashTrendWindow int
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show maintenance status per firearm",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
	cmd.Flags().BoolVar(&statusAlerts, "alerts", false, "show only firearms needing attention")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	r, err := app.buildReport(context.Background(), model.ReportConfig{})
	if err != nil {
		return err
	}
	return report.RenderStatuses(cmd.OutOrStdout(), r, statusAlerts)
}

func addReportFlags(cmd *cobra.Command, gun, since *string, last *int, currency *string, window *int) {
	cmd.Flags().StringVar(gun, "gun", "", "firearm filter")
	cmd.Flags().StringVar(since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(last, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVar(currency, "currency", "", "display currency override")
	cmd.Flags().IntVar(window, "trend-window", defaultTrendWindow, "moving average window")
}

// reportConfig applies config-file values to unset flags and resolves the filter.
func (a *appEnv) reportConfig(ctx context.Context, cmd *cobra.Command, gun, since string, last int, currency string, window *int) (model.ReportConfig, error) {
	applyIntConfig(cmd, "trend-window", window, a.file.Stats.TrendWindow)
	if *window <= 0 {
		return model.ReportConfig{}, fmt.Errorf("--trend-window must be > 0")
	}
	if last < 0 {
		return model.ReportConfig{}, fmt.Errorf("--last must be >= 0")
	}
	sinceTime, err := parseOptionalDate("since", since)
	if err != nil {
		return model.ReportConfig{}, err
	}
	filter := model.SessionFilter{Since: sinceTime, Limit: last}
	if err := a.resolveFilter(ctx, &filter, gun, ""); err != nil {
		return model.ReportConfig{}, err
	}
	return model.ReportConfig{Filter: filter, Currency: currency, TrendWindow: *window}, nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print summary, costs, alerts and score trend",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addReportFlags(cmd, &reportGun, &reportSince, &reportLast, &reportCurrency, &reportTrendWindow)
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	cfg, err := app.reportConfig(ctx, cmd, reportGun, reportSince, reportLast, reportCurrency, &reportTrendWindow)
	if err != nil {
		return err
	}
	r, err := app.buildReport(ctx, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderSummary(out, r); err != nil {
		return err
	}
	if err := report.RenderCosts(out, r); err != nil {
		return err
	}
	if err := report.RenderStatuses(out, r, true); err != nil {
		return err
	}
	return report.RenderTrend(out, r, 0, trendPlotHeight, false)
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE:  runDashboardCmd,
	}
	addReportFlags(cmd, &dashGun, &dashSince, &dashLast, &dashCurrency, &dashTrendWindow)
	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	cfg, err := app.reportConfig(context.Background(), cmd, dashGun, dashSince, dashLast, dashCurrency, &dashTrendWindow)
	if err != nil {
		return err
	}
	m := dashboard.NewModel(app.loader(), cfg, now)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}
