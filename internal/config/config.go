// Package config loads the application settings file. Secrets (database URL,
// JWT secret) stay in the environment; this file carries everything else.
package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Reminders are the server-side defaults applied to new users. Each user can
// override them through their settings.
type Reminders struct {
	// OwnerHoursBefore is how many hours before a race the owner's
	// "finish your race details" reminder fires. Minimum 1.
	OwnerHoursBefore int `yaml:"owner_hours_before"`

	// WatchingFirstMinutes / WatchingSecondMinutes are the two watching
	// reminder slots, in minutes before race start. 0 disables a slot.
	WatchingFirstMinutes  int `yaml:"watching_first_minutes"`
	WatchingSecondMinutes int `yaml:"watching_second_minutes"`
}

type Config struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string `yaml:"listen"`

	// MeetsCSV is the path of the bundled meets table used as the meet
	// data source.
	MeetsCSV string `yaml:"meets_csv"`

	// RefreshCron schedules the meets CSV reload (robfig/cron syntax).
	RefreshCron string `yaml:"refresh"`

	// DispatchCron schedules the reminder dispatcher sweep.
	DispatchCron string `yaml:"dispatch"`

	Reminders Reminders `yaml:"reminders"`
}

func Default() *Config {
	return &Config{
		Listen:       ":8080",
		MeetsCSV:     "meets.csv",
		RefreshCron:  "@hourly",
		DispatchCron: "* * * * *",
		Reminders: Reminders{
			OwnerHoursBefore:      6,
			WatchingFirstMinutes:  20,
			WatchingSecondMinutes: 0,
		},
	}
}

// Normalize fills zero values so partially filled configs behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.MeetsCSV == "" {
		c.MeetsCSV = "meets.csv"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "@hourly"
	}
	if c.DispatchCron == "" {
		c.DispatchCron = "* * * * *"
	}
	if c.Reminders.OwnerHoursBefore < 1 {
		c.Reminders.OwnerHoursBefore = 6
	}
	if c.Reminders.WatchingFirstMinutes < 0 {
		c.Reminders.WatchingFirstMinutes = 0
	}
	if c.Reminders.WatchingSecondMinutes < 0 {
		c.Reminders.WatchingSecondMinutes = 0
	}
}

// Load reads the YAML config at path. A missing file is not an error: the
// defaults are returned so the server runs without any config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}
