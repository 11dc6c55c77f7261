package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TYPERACE_"

// LoadDotEnv loads a .env file into the process environment. A missing file
// is ignored; variables already set win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays TYPERACE_* variables on the file config. Flags are
// applied later and win over both.
func ApplyEnv(cfg *FileConfig) error {
	envString(&cfg.Client.Host, "HOST")
	envString(&cfg.Client.Competition, "COMPETITION")
	envString(&cfg.Client.ParticipantName, "NAME")
	envString(&cfg.Client.OrganizerToken, "ORGANIZER_TOKEN")
	envString(&cfg.Client.Timeout, "TIMEOUT")
	envString(&cfg.Client.LogLevel, "LOG_LEVEL")
	if err := envInt(&cfg.Client.Countdown, "COUNTDOWN"); err != nil {
		return err
	}

	envString(&cfg.Server.Addr, "ADDR")
	envString(&cfg.Server.DBPath, "DB")
	envString(&cfg.Server.OrganizerToken, "ORGANIZER_TOKEN")
	envString(&cfg.Server.Competitions, "COMPETITIONS")
	envString(&cfg.Server.WordList, "WORDLIST")
	envString(&cfg.Server.Lang, "LANG")
	envString(&cfg.Server.LeadTime, "LEAD_TIME")
	envString(&cfg.Server.LogLevel, "LOG_LEVEL")
	return nil
}

func envString(dst **string, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = &v
	}
}

func envInt(dst **int, name string) error {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s must be an integer: %w", EnvPrefix, name, err)
	}
	*dst = &n
	return nil
}
