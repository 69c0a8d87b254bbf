package terminal

import (
	"io"
	"os"

	"github.com/de-tools/ratio-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/ratio-atlas/pkg/services/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	env     *commands.Env
	flags   globalFlags
	logOut  io.Writer
	rootCmd *cobra.Command
}

type globalFlags struct {
	configFile   string
	envFile      string
	profile      string
	profilesFile string
	baseURL      string
	timeout      string
	logLevel     string
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	Input  io.Reader
	// LogOutput receives diagnostics. Defaults to stderr.
	LogOutput  io.Writer
	NewBackend commands.BackendFactory
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cli := &CLI{
		env:    &commands.Env{NewBackend: opts.NewBackend},
		logOut: opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetIn(opts.Input)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "ratio-atlas",
		Short:             "Financial-ratio analysis client",
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&cli.flags.configFile, "config", "c", "", "Path to a YAML settings file")
	f.StringVar(&cli.flags.envFile, "env-file", "", "Path to a .env file (default is ./.env when present)")
	f.StringVarP(&cli.flags.profile, "profile", "p", "", "Backend profile from the profiles file")
	f.StringVar(&cli.flags.profilesFile, "profiles-file", "", "Path to the profiles file (default is $HOME/.ratioatlas)")
	f.StringVar(&cli.flags.baseURL, "base-url", "", "Analysis backend base URL")
	f.StringVar(&cli.flags.timeout, "timeout", "", "Request timeout, e.g. 10s")
	f.StringVar(&cli.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(commands.NewAnalyzeCmd(cli.env))
	cmd.AddCommand(commands.NewHealthCmd(cli.env))
	cmd.AddCommand(commands.NewSessionCmd(cli.env))
	cmd.AddCommand(commands.NewProfilesCmd(cli.env))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(config.LoadOptions{
		ConfigFile: cli.flags.configFile,
		EnvFile:    cli.flags.envFile,
	})
	if err != nil {
		return err
	}

	if cli.flags.profilesFile != "" {
		settings.ProfilesFile = cli.flags.profilesFile
	}
	if err := settings.ApplyProfile(cmd.Context(), firstNonEmpty(cli.flags.profile, settings.Profile)); err != nil {
		return err
	}
	if err := applyFlagOverrides(settings, cli.flags); err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.logOut}).
		Level(settings.Level()).
		With().
		Timestamp().
		Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))

	logger.Debug().
		Str("base_url", settings.APIBaseURL).
		Str("profile", settings.Profile).
		Dur("timeout", settings.RequestTimeout).
		Msg("settings loaded")

	cli.env.Settings = settings
	return nil
}
