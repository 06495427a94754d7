package autofill

import (
	"errors"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config is the YAML configuration of the autofill command.
type Config struct {
	Store struct {
		Path         string        `yaml:"path"`
		PollInterval time.Duration `yaml:"pollInterval"`
	} `yaml:"store"`

	Chrome struct {
		Headless       bool          `yaml:"headless"`
		UserDataDir    string        `yaml:"userDataDir"`
		ExecPath       string        `yaml:"execPath"`
		Timeout        time.Duration `yaml:"timeout"`
		SignalInterval time.Duration `yaml:"signalInterval"`
	} `yaml:"chrome"`

	// Session names the directory holding the cookie file and failure snapshots.
	Session struct {
		Name      string `yaml:"name"`
		Dir       string `yaml:"dir"`
		Cookies   bool   `yaml:"cookies"`
		Snapshots bool   `yaml:"snapshots"`
	} `yaml:"session"`

	DefaultProvider string `yaml:"defaultProvider"`
	DefaultTemplate string `yaml:"defaultTemplate"`
	CheckOrigin     *bool  `yaml:"checkOrigin"`

	Providers map[Provider]ProviderOverride `yaml:"providers"`
}

// ProviderOverride replaces parts of a built-in profile. Zero values keep
// the built-in setting.
type ProviderOverride struct {
	URL             string   `yaml:"url"`
	Origins         []string `yaml:"origins"`
	PromptSelectors []string `yaml:"promptSelectors"`
	SendSelectors   []string `yaml:"sendSelectors"`
	Timings         Timings  `yaml:"timings"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.Store.Path = "autofill.db"
	cfg.Store.PollInterval = DefaultStorePollInterval
	cfg.Chrome.UserDataDir = "./chromeUserData"
	cfg.Chrome.SignalInterval = DefaultSignalInterval
	cfg.Session.Name = "autofill"
	cfg.Session.Cookies = true
	cfg.Session.Snapshots = true
	cfg.DefaultProvider = string(ProviderChatGPT)
	cfg.DefaultTemplate = promptTemplates[0].ID
	return cfg
}

// LoadConfig reads path over DefaultConfig. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if _, err := ParseProvider(cfg.DefaultProvider); err != nil {
		return cfg, fmt.Errorf("defaultProvider: %w", err)
	}
	overrides := make(map[Provider]ProviderOverride, len(cfg.Providers))
	for name, override := range cfg.Providers {
		p, err := ParseProvider(string(name))
		if err != nil {
			return cfg, fmt.Errorf("providers: %w", err)
		}
		overrides[p] = override
	}
	cfg.Providers = overrides
	return cfg, nil
}

// OriginCheck reports whether the automation refuses foreign pages.
func (cfg Config) OriginCheck() bool {
	return cfg.CheckOrigin == nil || *cfg.CheckOrigin
}

// ProfileFor returns the profile of p with the configured overrides applied.
func (cfg Config) ProfileFor(p Provider) (ProviderProfile, error) {
	profile, err := Profile(p)
	if err != nil {
		return profile, err
	}
	override, ok := cfg.Providers[p]
	if !ok {
		return profile, nil
	}
	if override.URL != "" {
		u, ok := SanitizeURL(override.URL)
		if !ok {
			return profile, fmt.Errorf("%v: url %q is not http(s)", p, override.URL)
		}
		profile.URL = u
	}
	if len(override.Origins) > 0 {
		profile.Origins = append([]string(nil), override.Origins...)
	}
	if len(override.PromptSelectors) > 0 {
		profile.PromptSelectors = append([]string(nil), override.PromptSelectors...)
	}
	if len(override.SendSelectors) > 0 {
		profile.SendSelectors = append([]string(nil), override.SendSelectors...)
	}
	profile.Timings = override.Timings.over(profile.Timings)
	return profile, nil
}

// over fills the zero fields of t from base.
func (t Timings) over(base Timings) Timings {
	if t.InitialDelay > 0 {
		base.InitialDelay = t.InitialDelay
	}
	if t.PollInterval > 0 {
		base.PollInterval = t.PollInterval
	}
	if t.MaxPolls > 0 {
		base.MaxPolls = t.MaxPolls
	}
	if t.VerifyInterval > 0 {
		base.VerifyInterval = t.VerifyInterval
	}
	if t.SendDelay > 0 {
		base.SendDelay = t.SendDelay
	}
	if t.SendInterval > 0 {
		base.SendInterval = t.SendInterval
	}
	if t.MaxSends > 0 {
		base.MaxSends = t.MaxSends
	}
	return base
}
