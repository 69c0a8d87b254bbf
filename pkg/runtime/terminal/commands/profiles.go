package commands

import (
	"fmt"

	"github.com/de-tools/ratio-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

type ProfilesCmd struct {
	env *Env
}

func NewProfilesCmd(env *Env) *cobra.Command {
	pc := &ProfilesCmd{env: env}
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the backend profiles found in the profiles file",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	path := pc.env.Settings.ProfilesFile
	registry, err := config.NewRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load profiles from %s: %w", path, err)
	}

	profiles, err := registry.GetProfiles(cmd.Context())
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No profiles found in %s\n", path)
		return nil
	}

	for _, p := range profiles {
		line := fmt.Sprintf("%s\t%s", p.Name, p.BaseURL)
		if p.RequestTimeout > 0 {
			line += fmt.Sprintf("\ttimeout=%s", p.RequestTimeout)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
