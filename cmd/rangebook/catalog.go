package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/report"
)

var (
	gunCaliber string
	gunNotes   string

	ammoCaliber string
	ammoPrice   float64
)

func newGunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gun",
		Short: "Manage firearms",
	}
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a firearm",
		Args:  cobra.ExactArgs(1),
		RunE:  runGunAddCmd,
	}
	add.Flags().StringVar(&gunCaliber, "caliber", "", "caliber, e.g. 9mm")
	add.Flags().StringVar(&gunNotes, "notes", "", "free-form notes")
	cmd.AddCommand(add)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List firearms",
		Args:  cobra.NoArgs,
		RunE:  runGunListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a firearm without sessions or maintenance",
		Args:  cobra.ExactArgs(1),
		RunE:  runGunRmCmd,
	})
	return cmd
}

func runGunAddCmd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("gun name must not be empty")
	}
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	gun, err := app.st.AddGun(context.Background(), model.Gun{
		Name:    name,
		Caliber: strings.TrimSpace(gunCaliber),
		Notes:   gunNotes,
	})
	if err != nil {
		return fmt.Errorf("failed to add gun: %w", err)
	}
	app.log.Info("gun added", "id", gun.ID)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added gun %s (%s)\n", gun.Name, gun.ID)
	return err
}

func runGunListCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	guns, err := app.st.ListGuns(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list guns: %w", err)
	}
	if len(guns) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No guns yet. Add one with: rangebook gun add <name>")
		return err
	}
	rows := make([][]string, 0, len(guns))
	for _, g := range guns {
		rows = append(rows, []string{shortID(g.ID), g.Name, g.Caliber, g.Notes})
	}
	return report.WriteTable(cmd.OutOrStdout(), []string{"ID", "Name", "Caliber", "Notes"}, rows)
}

func runGunRmCmd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.st.DeleteGun(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove gun: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Removed gun", args[0])
	return err
}

func newAmmoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ammo",
		Short: "Manage ammunition types",
	}
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an ammunition type",
		Args:  cobra.ExactArgs(1),
		RunE:  runAmmoAddCmd,
	}
	add.Flags().StringVar(&ammoCaliber, "caliber", "", "caliber, e.g. 9mm")
	add.Flags().Float64Var(&ammoPrice, "price", 0, "price per round in the base currency")
	cmd.AddCommand(add)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List ammunition types",
		Args:  cobra.NoArgs,
		RunE:  runAmmoListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an ammunition type without sessions",
		Args:  cobra.ExactArgs(1),
		RunE:  runAmmoRmCmd,
	})
	return cmd
}

func runAmmoAddCmd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("ammo name must not be empty")
	}
	ammo := model.Ammo{Name: name, Caliber: strings.TrimSpace(ammoCaliber)}
	if cmd.Flags().Changed("price") {
		if !finite(ammoPrice) || ammoPrice < 0 {
			return fmt.Errorf("--price must be >= 0")
		}
		price := ammoPrice
		ammo.PricePerRound = &price
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ammo, err = app.st.AddAmmo(context.Background(), ammo)
	if err != nil {
		return fmt.Errorf("failed to add ammo: %w", err)
	}
	app.log.Info("ammo added", "id", ammo.ID)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added ammo %s (%s)\n", ammo.Name, ammo.ID)
	return err
}

func runAmmoListCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ammo, err := app.st.ListAmmo(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list ammo: %w", err)
	}
	if len(ammo) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No ammo yet. Add one with: rangebook ammo add <name> --price <per round>")
		return err
	}
	base := app.baseCurrency()
	rows := make([][]string, 0, len(ammo))
	for _, a := range ammo {
		price := "-"
		if a.PricePerRound != nil {
			price = metrics.FormatAmount(*a.PricePerRound, base)
		}
		rows = append(rows, []string{shortID(a.ID), a.Name, a.Caliber, price})
	}
	return report.WriteTable(cmd.OutOrStdout(), []string{"ID", "Name", "Caliber", "Price/round"}, rows, 3)
}

func runAmmoRmCmd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.st.DeleteAmmo(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove ammo: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Removed ammo", args[0])
	return err
}
