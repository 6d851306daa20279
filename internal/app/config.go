package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "condobot/core/config"
	coredatabase "condobot/core/database"
	"condobot/internal/domain"
)

// StaffEntry declares one operator in the access list.
type StaffEntry struct {
	TelegramID int64  `yaml:"telegram_id"`
	Name       string `yaml:"name"`
}

// AccessConfig lists the operators seeded into the staff table on startup.
type AccessConfig struct {
	Admins []StaffEntry `yaml:"admins"`
	Staff  []StaffEntry `yaml:"staff"`
}

// WizardConfig tunes wizard session handling.
type WizardConfig struct {
	// SessionTTLMinutes is how long an untouched session survives before
	// the janitor evicts it; 0 selects the default.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" envconfig:"WIZARD_SESSION_TTL_MINUTES"`
}

// Config aggregates core settings with bot-specific sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Access   AccessConfig        `yaml:"access"`
	Wizard   WizardConfig        `yaml:"wizard"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// StaffList flattens the access lists into domain records.
func (c *Config) StaffList() []domain.Staff {
	var out []domain.Staff
	for _, e := range c.Access.Admins {
		out = append(out, domain.Staff{TelegramID: e.TelegramID, Name: e.Name, Role: domain.RoleAdmin})
	}
	for _, e := range c.Access.Staff {
		out = append(out, domain.Staff{TelegramID: e.TelegramID, Name: e.Name, Role: domain.RoleStaff})
	}
	return out
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if cfg.Wizard.SessionTTLMinutes < 0 {
		return nil, fmt.Errorf("wizard.session_ttl_minutes must be >= 0")
	}
	if len(cfg.Access.Admins) == 0 {
		return nil, fmt.Errorf("access.admins must list at least one operator")
	}
	for _, e := range append(cfg.Access.Admins, cfg.Access.Staff...) {
		if e.TelegramID == 0 {
			return nil, fmt.Errorf("access entry %q is missing telegram_id", e.Name)
		}
	}
	return &cfg, nil
}
