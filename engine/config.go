// SPDX-License-Identifier: GPL-2.0-or-later

package engine

import (
	"os"

	"gopkg.in/yaml.v3"

	"gofakk/errs"
	"gofakk/filesystem"
)

// Config is the startup configuration. The yaml keys mirror the cvars they
// seed.
type Config struct {
	BaseDir     string            `yaml:"basedir"`
	Game        string            `yaml:"game"`
	Developer   bool              `yaml:"developer"`
	FPS         int               `yaml:"sv_fps"`
	MaxClients  int               `yaml:"sv_maxclients"`
	Map         string            `yaml:"map"`
	HunkMegs    int               `yaml:"hunk_megs"`
	Cvars       map[string]string `yaml:"cvars"`
	ModuleDir   string            `yaml:"module_dir"`
	GameModule  string            `yaml:"game_module"`
	CGameModule string            `yaml:"cgame_module"`
	WriteConfig bool              `yaml:"write_config"`
	Seed        uint32            `yaml:"seed"`

	// SetLines run before any config file.
	SetLines []string `yaml:"-"`
	// Commands run once the engine is up.
	Commands []string `yaml:"-"`
}

const (
	DefaultHunkMegs = 16
	maxHunkMegs     = 512
)

func DefaultConfig() Config {
	return Config{
		BaseDir:     ".",
		Game:        filesystem.DefaultGame,
		HunkMegs:    DefaultHunkMegs,
		WriteConfig: true,
	}
}

// ParseConfig reads yaml over the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errs.Wrap(err, errs.Configuration, "bad engine config")
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), errs.Wrap(err, errs.NotFound, "could not read "+path)
	}
	return ParseConfig(data)
}

func (c *Config) validate() error {
	if c.HunkMegs < 0 || c.HunkMegs > maxHunkMegs {
		return errs.New(errs.Configuration, "hunk_megs %d out of range", c.HunkMegs)
	}
	if c.FPS < 0 {
		return errs.New(errs.Configuration, "sv_fps %d must not be negative", c.FPS)
	}
	if c.MaxClients < 0 {
		return errs.New(errs.Configuration, "sv_maxclients %d must not be negative", c.MaxClients)
	}
	if c.Game == "" {
		c.Game = filesystem.DefaultGame
	}
	if c.HunkMegs == 0 {
		c.HunkMegs = DefaultHunkMegs
	}
	return nil
}
