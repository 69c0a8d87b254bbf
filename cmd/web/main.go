package main

import (
	"fmt"
	"os"

	"github.com/de-tools/ratio-atlas/pkg/server"
	"github.com/de-tools/ratio-atlas/pkg/services/analysis"
	"github.com/de-tools/ratio-atlas/pkg/services/config"
	"github.com/de-tools/ratio-atlas/pkg/store/client"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	envPath string
	profile string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the session web API for Ratio Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML settings file")
	rootCmd.Flags().StringVar(&envPath, "env-file", "", "Path to a .env file (default is ./.env when present)")
	rootCmd.Flags().StringVarP(&profile, "profile", "p", "", "Backend profile from the profiles file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(config.LoadOptions{
		ConfigFile: cfgPath,
		EnvFile:    envPath,
	})
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if profile == "" {
		profile = settings.Profile
	}
	if err := settings.ApplyProfile(cmd.Context(), profile); err != nil {
		return fmt.Errorf("failed to apply profile: %w", err)
	}

	logger := zerolog.New(os.Stdout).Level(settings.Level()).With().Timestamp().Logger()

	backend, err := client.New(settings.APIBaseURL, client.WithTimeout(settings.RequestTimeout))
	if err != nil {
		return fmt.Errorf("failed to create analysis client: %w", err)
	}

	store := analysis.NewStore(backend, analysis.WithRequestTimeout(settings.RequestTimeout))

	logger.Info().Msgf("Analysis backend at `%s`.", backend.BaseURL())
	if settings.Profile != "" {
		logger.Info().Msgf("Using profile `%s`.", settings.Profile)
	}

	api := server.NewWebAPI(server.Config{
		Addr: settings.Addr(),
		Dependencies: server.Dependencies{
			Session: store,
			Health:  backend,
			Logger:  logger,
		},
	})

	return api.Start()
}
