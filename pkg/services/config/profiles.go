package config

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// Profile describes one analysis backend from the profiles file.
type Profile struct {
	Name           string
	BaseURL        string
	RequestTimeout time.Duration
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, name string) (*Profile, error)
}

type iniRegistry struct {
	cfg *ini.File
}

// NewRegistry loads an INI file with one section per backend:
//
//	[staging]
//	base_url = https://staging.example.com
//	request_timeout = 10s
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &iniRegistry{cfg: cfg}, nil
}

func (r *iniRegistry) GetProfiles(_ context.Context) ([]Profile, error) {
	var profiles []Profile
	for _, section := range r.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		p, err := profileFromSection(section)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func (r *iniRegistry) GetProfile(_ context.Context, name string) (*Profile, error) {
	section, err := r.cfg.GetSection(name)
	if err != nil || len(section.Keys()) == 0 {
		return nil, fmt.Errorf("profile %s not found", name)
	}
	return profileFromSection(section)
}

func profileFromSection(section *ini.Section) (*Profile, error) {
	p := &Profile{
		Name:    section.Name(),
		BaseURL: section.Key("base_url").String(),
	}
	if p.BaseURL == "" {
		return nil, fmt.Errorf("profile %s: base_url is required", p.Name)
	}
	if section.HasKey("request_timeout") {
		d, err := section.Key("request_timeout").Duration()
		if err != nil {
			return nil, fmt.Errorf("profile %s: invalid request_timeout: %w", p.Name, err)
		}
		p.RequestTimeout = d
	}
	return p, nil
}
