package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "RATIO_ATLAS"

	DefaultBaseURL        = "http://localhost:8000"
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
	DefaultServerHost     = "localhost"
	DefaultServerPort     = 3001
	DefaultProfilesFile   = ".ratioatlas"
)

type Settings struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	ServerHost     string        `mapstructure:"server_host"`
	ServerPort     int           `mapstructure:"server_port"`
	ProfilesFile   string        `mapstructure:"profiles_file"`
	Profile        string        `mapstructure:"profile"`
}

// LoadOptions point at optional sources. Empty fields are skipped.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
}

// Load resolves settings from defaults, an optional YAML file and the
// environment (RATIO_ATLAS_*), in increasing order of priority. A missing
// .env file is not an error.
func Load(opts LoadOptions) (*Settings, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && opts.EnvFile != "" {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("api_base_url", DefaultBaseURL)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("server_host", DefaultServerHost)
	v.SetDefault("server_port", DefaultServerPort)
	v.SetDefault("profiles_file", defaultProfilesPath())
	v.SetDefault("profile", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if s.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if s.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	return nil
}

// ApplyProfile overrides the backend settings with the named profile from
// the profiles file. An empty name leaves the settings untouched.
func (s *Settings) ApplyProfile(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	registry, err := NewRegistry(s.ProfilesFile)
	if err != nil {
		return fmt.Errorf("failed to load profiles from %s: %w", s.ProfilesFile, err)
	}
	p, err := registry.GetProfile(ctx, name)
	if err != nil {
		return err
	}

	s.Profile = p.Name
	s.APIBaseURL = p.BaseURL
	if p.RequestTimeout > 0 {
		s.RequestTimeout = p.RequestTimeout
	}
	return nil
}

func (s *Settings) Addr() string {
	return net.JoinHostPort(s.ServerHost, strconv.Itoa(s.ServerPort))
}

func (s *Settings) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func defaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfilesFile
	}
	return filepath.Join(home, DefaultProfilesFile)
}
