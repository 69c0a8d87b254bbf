package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

type HealthCmd struct {
	env *Env
}

func NewHealthCmd(env *Env) *cobra.Command {
	hc := &HealthCmd{env: env}
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis backend is reachable",
		Args:  cobra.NoArgs,
		RunE:  hc.run,
	}
}

func (hc *HealthCmd) run(cmd *cobra.Command, _ []string) error {
	b, err := hc.env.backend()
	if err != nil {
		return err
	}

	health, err := b.HealthCheck(cmd.Context())
	if err != nil {
		cmd.SilenceUsage = true
		return fmt.Errorf("health check against %s failed: %w", hc.env.Settings.APIBaseURL, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "status: %s\nservice: %s\n", health.Status, health.Service)
	return nil
}
