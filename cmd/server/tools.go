package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/jalali"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		// SetupDatabase creates any missing table.
		db, err := config.SetupDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "tables ready (%s)\n", cfg.Database.Driver)
		return nil
	},
}

var ageCmd = &cobra.Command{
	Use:   "age YYYY/MM/DD",
	Short: "Print the age and month details of a Jalali birth date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		out := cmd.OutOrStdout()

		d := jalali.Parse(args[0])
		if d.Month >= 1 && d.Month <= 12 && !d.Valid() {
			clamped := d.Clamp()
			fmt.Fprintf(out, "%s has only %d days, using %s\n", jalali.MonthName(d.Month), clamped.Day, clamped)
			d = clamped
		}
		gy, gm, gd := jalali.ToGregorian(d.Year, d.Month, d.Day)

		fmt.Fprintf(out, "date:       %s (%s)\n", d, d.Display())
		fmt.Fprintf(out, "month:      %s, %d days\n", jalali.MonthName(d.Month), jalali.DaysInMonth(d.Year, d.Month))
		fmt.Fprintf(out, "leap year:  %t\n", jalali.IsLeapYear(d.Year))
		fmt.Fprintf(out, "gregorian:  %04d-%02d-%02d\n", gy, gm, gd)
		fmt.Fprintf(out, "age:        %d\n", jalali.Age(args[0], now))
		fmt.Fprintf(out, "exact age:  %d\n", jalali.ExactAge(args[0], now))
		return nil
	},
}
