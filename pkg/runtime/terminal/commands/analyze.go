package commands

import (
	"fmt"

	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/de-tools/ratio-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	output string
	env    *Env
}

func NewAnalyzeCmd(env *Env) *cobra.Command {
	ac := &AnalyzeCmd{env: env}
	cmd := &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Fetch the financial-ratio analysis of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE:  ac.run,
	}

	cmd.Flags().StringVarP(&ac.output, "output", "o", string(export.FormatTable), "Output format: table, json or yaml")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(ac.output)
	if err != nil {
		return err
	}

	store, err := ac.env.newStore()
	if err != nil {
		return err
	}

	store.FetchAnalysis(cmd.Context(), args[0])
	state := store.Snapshot()

	if err := export.NewReporter(cmd.OutOrStdout(), format).Handle(state); err != nil {
		return fmt.Errorf("failed to render analysis: %w", err)
	}

	if state.Phase() == domain.PhaseFailed {
		cmd.SilenceUsage = true
		return fmt.Errorf("analysis failed: %s", state.ErrorMessage)
	}
	return nil
}
