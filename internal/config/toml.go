// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Client ClientConfig `toml:"client"`
	Server ServerConfig `toml:"server"`
}

// ClientConfig maps settings for race and organize.
type ClientConfig struct {
	Host            *string `toml:"host"`
	Competition     *string `toml:"competition"`
	ParticipantName *string `toml:"name"`
	OrganizerToken  *string `toml:"organizer-token"`
	Timeout         *string `toml:"timeout"`
	Countdown       *int    `toml:"countdown"`
	LogLevel        *string `toml:"log-level"`
}

// ServerConfig maps settings for serve.
type ServerConfig struct {
	Addr           *string `toml:"addr"`
	DBPath         *string `toml:"db"`
	OrganizerToken *string `toml:"organizer-token"`
	Competitions   *string `toml:"competitions"`
	WordList       *string `toml:"wordlist"`
	Lang           *string `toml:"lang"`
	LeadTime       *string `toml:"lead-time"`
	LogLevel       *string `toml:"log-level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by the config command when no file exists yet.
const Template = `# typerace configuration

[client]
# host = "http://localhost:8080"
# competition = "friday"
# name = "ada"
# organizer-token = ""
# timeout = "10s"
# countdown = 3
# log-level = "info"

[server]
# addr = ":8080"
# db = ""
# organizer-token = ""
# competitions = "competitions.yaml"
# wordlist = ""
# lang = "en"
# lead-time = "30s"
# log-level = "info"
`
