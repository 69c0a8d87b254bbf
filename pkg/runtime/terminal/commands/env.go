package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/de-tools/ratio-atlas/pkg/services/analysis"
	"github.com/de-tools/ratio-atlas/pkg/services/config"
	"github.com/de-tools/ratio-atlas/pkg/store/client"
)

// Backend is the analysis service as seen by the commands.
type Backend interface {
	analysis.Analyzer
	HealthCheck(ctx context.Context) (*domain.HealthStatus, error)
}

type BackendFactory func(settings *config.Settings) (Backend, error)

// Env is shared by all commands. Settings is filled in by the root command
// before any subcommand runs.
type Env struct {
	Settings   *config.Settings
	NewBackend BackendFactory
}

func DefaultBackendFactory(settings *config.Settings) (Backend, error) {
	c, err := client.New(settings.APIBaseURL, client.WithTimeout(settings.RequestTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client: %w", err)
	}
	return c, nil
}

func (e *Env) backend() (Backend, error) {
	if e.Settings == nil {
		return nil, fmt.Errorf("settings are not loaded")
	}
	factory := e.NewBackend
	if factory == nil {
		factory = DefaultBackendFactory
	}
	return factory(e.Settings)
}

func (e *Env) newStore() (*analysis.Store, error) {
	b, err := e.backend()
	if err != nil {
		return nil, err
	}
	return analysis.NewStore(b, analysis.WithRequestTimeout(e.Settings.RequestTimeout)), nil
}
