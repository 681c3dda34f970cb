package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"starhistory/chart"
	"starhistory/config"
	"starhistory/db"
	"starhistory/github"
	"starhistory/logger"
	"starhistory/syncer"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "starhistory",
	Short:         "Star history for your GitHub profile",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var chartType string

func init() {
	chartCmd.Flags().StringVar(&chartType, "type", "language", "history chart type (language or total)")
	rootCmd.AddCommand(updateCmd, chartCmd, configCmd)
}

// setup loads the configuration and initializes the logger.
func setup() (*config.Config, error) {
	cfg := config.NewConfig()
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the local database from the GitHub API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		database, err := db.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer database.Close()

		client := github.NewClientWithEndpoint(cfg.GitHubToken, cfg.GraphQLURL)

		return syncer.New(database, client).Run(cmd.Context())
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart <path>",
	Short: "Render a star history chart to the given file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		database, err := db.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer database.Close()

		colors, err := chart.DefaultColors()
		if err != nil {
			return err
		}
		renderer, err := chart.NewRenderer(colors)
		if err != nil {
			return err
		}

		path := args[0]
		switch chartType {
		case "language":
			points, err := database.CollectLanguageHistory(cmd.Context(), cfg.MinLanguageStars)
			if err != nil {
				return err
			}
			if err := renderer.RenderLanguageHistory(points, path); err != nil {
				return err
			}
		case "total":
			points, err := database.CollectTotalHistory(cmd.Context())
			if err != nil {
				return err
			}
			if err := renderer.RenderTotalHistory(points, path); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown chart type %q, expected language or total", chartType)
		}

		logger.Info("Saved the image", zap.String("path", path))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.NewConfig()
		if err := cfg.Load(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Printf("Database (sqlite): %s\n", cfg.DatabasePath)
		return nil
	},
}
