package main

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/report"
)

var (
	sessionGun      string
	sessionAmmo     string
	sessionDate     string
	sessionShots    int
	sessionHits     int
	sessionDistance float64
	sessionGroup    float64
	sessionCost     float64
	sessionNotes    string

	sessionListGun      string
	sessionListAmmo     string
	sessionListSince    string
	sessionListUntil    string
	sessionListLast     int
	sessionListLimit    int
	sessionListOffset   int
	sessionListCurrency string

	maintGun        string
	maintDate       string
	maintActivities []string
	maintNotes      string
	maintListGun    string
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Record and list range sessions",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Record a range session",
		Args:  cobra.NoArgs,
		RunE:  runSessionAddCmd,
	}
	add.Flags().StringVar(&sessionGun, "gun", "", "firearm id or id prefix (required)")
	add.Flags().StringVar(&sessionAmmo, "ammo", "", "ammunition id or id prefix (required)")
	add.Flags().StringVar(&sessionDate, "date", "", "session date (YYYY-MM-DD, default today)")
	add.Flags().IntVar(&sessionShots, "shots", 0, "rounds fired (required)")
	add.Flags().IntVar(&sessionHits, "hits", 0, "rounds on target")
	add.Flags().Float64Var(&sessionDistance, "distance", 0, "target distance in meters")
	add.Flags().Float64Var(&sessionGroup, "group", 0, "group size in centimeters")
	add.Flags().Float64Var(&sessionCost, "cost", 0, "session cost in the base currency (default shots x ammo price)")
	add.Flags().StringVar(&sessionNotes, "notes", "", "free-form notes")
	cmd.AddCommand(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions with derived metrics",
		Args:  cobra.NoArgs,
		RunE:  runSessionListCmd,
	}
	list.Flags().StringVar(&sessionListGun, "gun", "", "firearm filter")
	list.Flags().StringVar(&sessionListAmmo, "ammo", "", "ammunition filter")
	list.Flags().StringVar(&sessionListSince, "since", "", "start date (YYYY-MM-DD)")
	list.Flags().StringVar(&sessionListUntil, "until", "", "end date (YYYY-MM-DD)")
	list.Flags().IntVar(&sessionListLast, "last", 0, "limit to last N sessions")
	list.Flags().IntVar(&sessionListLimit, "limit", 0, "page size (0 = all)")
	list.Flags().IntVar(&sessionListOffset, "offset", 0, "sessions to skip")
	list.Flags().StringVar(&sessionListCurrency, "currency", "", "display currency override")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionRmCmd,
	})
	return cmd
}

func runSessionAddCmd(cmd *cobra.Command, _ []string) error {
	if sessionGun == "" || sessionAmmo == "" {
		return fmt.Errorf("--gun and --ammo are required")
	}
	date, err := parseDate("date", sessionDate)
	if err != nil {
		return err
	}
	session := model.Session{Date: date, Shots: sessionShots, Notes: sessionNotes}
	if cmd.Flags().Changed("hits") {
		session.Hits = intPtr(sessionHits)
	}
	if cmd.Flags().Changed("distance") {
		session.DistanceM = floatPtr(sessionDistance)
	}
	if cmd.Flags().Changed("group") {
		session.GroupCM = floatPtr(sessionGroup)
	}
	if cmd.Flags().Changed("cost") {
		session.Cost = floatPtr(sessionCost)
	}
	if err := validateSession(session); err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	gun, err := app.st.GetGun(ctx, sessionGun)
	if err != nil {
		return fmt.Errorf("failed to find gun: %w", err)
	}
	ammo, err := app.st.GetAmmo(ctx, sessionAmmo)
	if err != nil {
		return fmt.Errorf("failed to find ammo: %w", err)
	}
	session.GunID = gun.ID
	session.AmmoID = ammo.ID
	if session.Cost == nil {
		session.Cost = defaultCost(session.Shots, ammo)
	}

	session, err = app.st.AddSession(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to add session: %w", err)
	}
	app.log.Info("session recorded", "id", session.ID, "gun", gun.ID, "shots", session.Shots)

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Recorded session %s: %s, %d shots\n", shortID(session.ID), gun.Name, session.Shots); err != nil {
		return err
	}
	score := metrics.ScoreSession(session)
	if score.CompositeScore != nil {
		_, err = fmt.Fprintf(out, "Score: %d\n", *score.CompositeScore)
	}
	return err
}

// validateSession rejects records the metrics engine does not accept.
func validateSession(s model.Session) error {
	if s.Shots <= 0 {
		return fmt.Errorf("--shots must be > 0")
	}
	if s.Hits != nil && (*s.Hits < 0 || *s.Hits > s.Shots) {
		return fmt.Errorf("--hits must be between 0 and --shots")
	}
	if s.DistanceM != nil && (!finite(*s.DistanceM) || *s.DistanceM <= 0) {
		return fmt.Errorf("--distance must be > 0")
	}
	if s.GroupCM != nil && (!finite(*s.GroupCM) || *s.GroupCM <= 0) {
		return fmt.Errorf("--group must be > 0")
	}
	if s.Cost != nil && (!finite(*s.Cost) || *s.Cost < 0) {
		return fmt.Errorf("--cost must be >= 0")
	}
	return validateNotFuture("date", s.Date)
}

// defaultCost prices a session at shots times the ammunition price, if known.
func defaultCost(shots int, ammo model.Ammo) *float64 {
	if ammo.PricePerRound == nil {
		return nil
	}
	cost := decimal.NewFromFloat(*ammo.PricePerRound).Mul(decimal.NewFromInt(int64(shots)))
	return floatPtr(cost.InexactFloat64())
}

func runSessionListCmd(cmd *cobra.Command, _ []string) error {
	if sessionListLast < 0 || sessionListLimit < 0 || sessionListOffset < 0 {
		return fmt.Errorf("--last, --limit and --offset must be >= 0")
	}
	since, err := parseOptionalDate("since", sessionListSince)
	if err != nil {
		return err
	}
	until, err := parseOptionalDate("until", sessionListUntil)
	if err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	filter := model.SessionFilter{Since: since, Until: until, Limit: sessionListLimit, Offset: sessionListOffset}
	if sessionListLast > 0 {
		filter.Limit = sessionListLast
	}
	if err := app.resolveFilter(ctx, &filter, sessionListGun, sessionListAmmo); err != nil {
		return err
	}

	r, err := app.buildReport(ctx, model.ReportConfig{Filter: filter, Currency: sessionListCurrency})
	if err != nil {
		return err
	}
	return report.RenderSessions(cmd.OutOrStdout(), r)
}

// resolveFilter expands gun and ammo id prefixes into the filter.
func (a *appEnv) resolveFilter(ctx context.Context, filter *model.SessionFilter, gunID, ammoID string) error {
	if gunID != "" {
		gun, err := a.st.GetGun(ctx, gunID)
		if err != nil {
			return fmt.Errorf("failed to find gun: %w", err)
		}
		filter.GunID = gun.ID
	}
	if ammoID != "" {
		ammo, err := a.st.GetAmmo(ctx, ammoID)
		if err != nil {
			return fmt.Errorf("failed to find ammo: %w", err)
		}
		filter.AmmoID = ammo.ID
	}
	return nil
}

func runSessionRmCmd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.st.DeleteSession(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Removed session", args[0])
	return err
}

func newMaintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maint",
		Short: "Record and list maintenance",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a maintenance event",
		Args:  cobra.NoArgs,
		RunE:  runMaintAddCmd,
	}
	add.Flags().StringVar(&maintGun, "gun", "", "firearm id or id prefix (required)")
	add.Flags().StringVar(&maintDate, "date", "", "maintenance date (YYYY-MM-DD, default today)")
	add.Flags().StringArrayVar(&maintActivities, "activity", nil, "activity performed (repeatable)")
	add.Flags().StringVar(&maintNotes, "notes", "", "free-form notes")
	cmd.AddCommand(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List maintenance history",
		Args:  cobra.NoArgs,
		RunE:  runMaintListCmd,
	}
	list.Flags().StringVar(&maintListGun, "gun", "", "firearm filter")
	cmd.AddCommand(list)
	return cmd
}

func runMaintAddCmd(cmd *cobra.Command, _ []string) error {
	if maintGun == "" {
		return fmt.Errorf("--gun is required")
	}
	date, err := parseDate("date", maintDate)
	if err != nil {
		return err
	}
	if err := validateNotFuture("date", date); err != nil {
		return err
	}
	rec := model.MaintenanceRecord{Date: date, Activities: cleanActivities(maintActivities)}
	if notes := strings.TrimSpace(maintNotes); notes != "" {
		rec.Notes = &notes
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	gun, err := app.st.GetGun(ctx, maintGun)
	if err != nil {
		return fmt.Errorf("failed to find gun: %w", err)
	}
	rec.GunID = gun.ID
	rec, err = app.st.AddMaintenance(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to add maintenance: %w", err)
	}
	app.log.Info("maintenance recorded", "id", rec.ID, "gun", gun.ID)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded maintenance %s for %s on %s\n",
		shortID(rec.ID), gun.Name, rec.Date.Format(model.DateLayout))
	return err
}

func cleanActivities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func runMaintListCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	gunID := ""
	if maintListGun != "" {
		gun, err := app.st.GetGun(ctx, maintListGun)
		if err != nil {
			return fmt.Errorf("failed to find gun: %w", err)
		}
		gunID = gun.ID
	}
	records, err := app.st.ListMaintenance(ctx, gunID)
	if err != nil {
		return fmt.Errorf("failed to list maintenance: %w", err)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No maintenance recorded.")
		return err
	}
	guns, err := app.st.ListGuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list guns: %w", err)
	}
	names := make(map[string]string, len(guns))
	for _, g := range guns {
		names[g.ID] = g.Name
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		notes := ""
		if rec.Notes != nil {
			notes = *rec.Notes
		}
		rows = append(rows, []string{
			shortID(rec.ID),
			rec.Date.Format(model.DateLayout),
			names[rec.GunID],
			strings.Join(rec.Activities, ", "),
			notes,
		})
	}
	return report.WriteTable(cmd.OutOrStdout(), []string{"ID", "Date", "Gun", "Activities", "Notes"}, rows)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
