package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/de-tools/ratio-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

const (
	quitCommand  = ":quit"
	clearCommand = ":clear"
)

type SessionCmd struct {
	env *Env
}

func NewSessionCmd(env *Env) *cobra.Command {
	sc := &SessionCmd{env: env}
	return &cobra.Command{
		Use:   "session",
		Short: "Analyze tickers interactively, one per line",
		Long: "Reads one ticker per line and prints its analysis. " +
			"`:clear` resets the session and `:quit` exits.",
		Args: cobra.NoArgs,
		RunE: sc.run,
	}
}

func (sc *SessionCmd) run(cmd *cobra.Command, _ []string) error {
	store, err := sc.env.newStore()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reporter := export.NewReporter(out, export.FormatTable)

	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()
	drain(updates)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	prompt(out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case quitCommand:
			return nil
		case clearCommand:
			store.ClearResults()
			drain(updates)
			fmt.Fprintln(out, "Session cleared.")
			prompt(out)
			continue
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			store.FetchAnalysis(ctx, line)
		}()

	wait:
		for {
			select {
			case st := <-updates:
				if st.Phase() == domain.PhaseLoading {
					if err := reporter.Handle(st); err != nil {
						return err
					}
				}
			case <-done:
				break wait
			}
		}
		drain(updates)

		if err := reporter.Handle(store.Snapshot()); err != nil {
			return err
		}
		prompt(out)
	}

	return scanner.Err()
}

func prompt(w io.Writer) {
	fmt.Fprint(w, "ticker> ")
}

func drain(updates <-chan domain.SessionState) {
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
