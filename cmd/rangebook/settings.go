package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/rates"
	"github.com/verte-zerg/rangebook/internal/report"
)

var (
	prefsRoundsLimit int
	prefsDaysLimit   int
	prefsCurrency    string
)

func newRatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Manage exchange rates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known exchange rates",
		Args:  cobra.NoArgs,
		RunE:  runRatesListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <code> <rate>",
		Short: "Set the base-currency price of one unit of a currency",
		Args:  cobra.ExactArgs(2),
		RunE:  runRatesSetCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.toml>",
		Short: "Replace all rates with the contents of a TOML rate file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRatesImportCmd,
	})
	return cmd
}

func runRatesListCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	stored, err := app.st.ListRates(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list rates: %w", err)
	}
	base := app.baseCurrency()
	table := rates.Table(base, stored)
	updated := make(map[string]string, len(stored))
	for _, r := range stored {
		updated[r.Code] = r.UpdatedAt.Local().Format("2006-01-02 15:04")
	}
	rows := make([][]string, 0, len(stored)+1)
	for _, code := range table.Codes() {
		rate, _ := table.Rate(code)
		when := updated[code]
		if code == base {
			when = "base"
		}
		rows = append(rows, []string{
			strings.ToUpper(code),
			strconv.FormatFloat(rate, 'f', -1, 64),
			metrics.CurrencySymbol(code),
			when,
		})
	}
	return report.WriteTable(cmd.OutOrStdout(), []string{"Code", "Rate (" + strings.ToUpper(base) + ")", "Symbol", "Updated"}, rows, 1)
}

func runRatesSetCmd(cmd *cobra.Command, args []string) error {
	code := strings.ToLower(strings.TrimSpace(args[0]))
	rate, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", args[1], err)
	}
	if code == "" {
		return fmt.Errorf("currency code must not be empty")
	}
	if err := validateRate(rate); err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if code == app.baseCurrency() {
		return fmt.Errorf("%s is the base currency; its rate is always 1", strings.ToUpper(code))
	}
	if err := app.st.SetRate(context.Background(), code, rate); err != nil {
		return fmt.Errorf("failed to set rate: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s\n",
		strings.ToUpper(code), strconv.FormatFloat(rate, 'f', -1, 64), strings.ToUpper(app.baseCurrency()))
	return err
}

func runRatesImportCmd(cmd *cobra.Command, args []string) error {
	file, err := rates.LoadFile(args[0])
	if err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	normalized, skipped, err := rates.Normalize(file, app.baseCurrency())
	if err != nil {
		return err
	}
	for _, s := range skipped {
		app.log.Warn("skipping rate", "code", s.Code, "reason", s.Reason)
	}
	if err := app.st.ReplaceRates(context.Background(), normalized); err != nil {
		return fmt.Errorf("failed to store rates: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rates (%d skipped)\n", len(normalized), len(skipped))
	return err
}

func validateRate(rate float64) error {
	if !metrics.ValidRate(rate) {
		return fmt.Errorf("rate must be a number between %g and %g", metrics.MinRate, metrics.MaxRate)
	}
	return nil
}

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change stored preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective preferences",
		Args:  cobra.NoArgs,
		RunE:  runPrefsShowCmd,
	})
	set := &cobra.Command{
		Use:   "set",
		Short: "Store preferences",
		Args:  cobra.NoArgs,
		RunE:  runPrefsSetCmd,
	}
	set.Flags().IntVar(&prefsRoundsLimit, "rounds-limit", 0, "rounds between services")
	set.Flags().IntVar(&prefsDaysLimit, "days-limit", 0, "days between services")
	set.Flags().StringVar(&prefsCurrency, "currency", "", "display currency code")
	cmd.AddCommand(set)
	return cmd
}

func runPrefsShowCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	prefs, defaulted, err := app.loader().LoadPreferences(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}
	source := "stored"
	if defaulted {
		source = "defaults"
	}
	rows := [][]string{
		{"rounds-limit", strconv.Itoa(prefs.RoundsLimit)},
		{"days-limit", strconv.Itoa(prefs.DaysLimit)},
		{"currency", strings.ToUpper(prefs.DisplayCurrency)},
		{"source", source},
	}
	return report.WriteTable(cmd.OutOrStdout(), nil, rows)
}

func runPrefsSetCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if !flags.Changed("rounds-limit") && !flags.Changed("days-limit") && !flags.Changed("currency") {
		return fmt.Errorf("nothing to set; use --rounds-limit, --days-limit or --currency")
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	prefs, _, err := app.loader().LoadPreferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}
	applyIntFlag(cmd, "rounds-limit", &prefs.RoundsLimit, prefsRoundsLimit)
	applyIntFlag(cmd, "days-limit", &prefs.DaysLimit, prefsDaysLimit)
	if flags.Changed("currency") {
		prefs.DisplayCurrency = strings.ToLower(strings.TrimSpace(prefsCurrency))
	}
	stored, err := app.st.ListRates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rates: %w", err)
	}
	if err := validatePreferences(prefs, rates.Table(app.baseCurrency(), stored)); err != nil {
		return err
	}
	if err := app.st.SavePreferences(ctx, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved: %d rounds, %d days, %s\n",
		prefs.RoundsLimit, prefs.DaysLimit, strings.ToUpper(prefs.DisplayCurrency))
	return err
}

func applyIntFlag(cmd *cobra.Command, name string, target *int, value int) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func validatePreferences(prefs model.Preferences, table metrics.RateTable) error {
	if prefs.RoundsLimit <= 0 {
		return fmt.Errorf("--rounds-limit must be > 0")
	}
	if prefs.DaysLimit <= 0 {
		return fmt.Errorf("--days-limit must be > 0")
	}
	if _, ok := table.Rate(prefs.DisplayCurrency); !ok {
		return fmt.Errorf("unknown currency %q; add it with: rangebook rates set <code> <rate>", prefs.DisplayCurrency)
	}
	return nil
}
