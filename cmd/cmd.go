package cmd

import (
	"os"

	"timesheet/config"
	"timesheet/database"
	"timesheet/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Weekly timesheet service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envErr := godotenv.Overload()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Init(cfg.Log.Level)

		if envErr != nil {
			logger.Debug().Msg("no .env file loaded, skipping")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the yaml config file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func openDatabase() (*gorm.DB, error) {
	db, err := database.Open(cfg.Database, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("driver", db.Dialector.Name()).Msg("database connected")
	return db, nil
}
