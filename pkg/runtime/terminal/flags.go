package terminal

import (
	"fmt"
	"time"

	"github.com/de-tools/ratio-atlas/pkg/services/config"
)

func applyFlagOverrides(settings *config.Settings, flags globalFlags) error {
	if flags.baseURL != "" {
		settings.APIBaseURL = flags.baseURL
	}
	if flags.timeout != "" {
		d, err := time.ParseDuration(flags.timeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", flags.timeout, err)
		}
		settings.RequestTimeout = d
	}
	if flags.logLevel != "" {
		settings.LogLevel = flags.logLevel
	}
	return settings.Validate()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
