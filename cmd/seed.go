package cmd

import (
	"fmt"
	"time"

	"timesheet/database"
	"timesheet/logger"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all data with the demo organisation",
	Long:  "Deletes every user, project, timesheet and entry, then creates two managers,\nfour employees, three projects and a draft timesheet for the current week per employee.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		result, err := database.SeedDemoData(db, time.Now())
		if err != nil {
			return err
		}

		logger.Info().
			Int("managers", result.Managers).
			Int("employees", result.Employees).
			Int("projects", result.Projects).
			Int("timesheets", result.Timesheets).
			Int("entries", result.Entries).
			Msg("demo data seeded")
		fmt.Fprintf(cmd.OutOrStdout(), "Demo users: alice_manager, bob_manager, charlie_emp, diana_emp, eve_emp, frank_emp (password %q)\n", database.DemoPassword)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
