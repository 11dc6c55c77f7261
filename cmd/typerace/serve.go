package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typerace/internal/config"
	"github.com/verte-zerg/typerace/internal/generator"
	"github.com/verte-zerg/typerace/internal/logging"
	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/server"
	"github.com/verte-zerg/typerace/internal/store"
	"github.com/verte-zerg/typerace/internal/wordlist"
)

var (
	serveAddr         string
	serveDBPath       string
	serveToken        string
	serveCompetitions string
	serveWordList     string
	serveLang         string
	serveLeadTime     time.Duration
	serveLogLevel     string

	serveID       string
	serveTitle    string
	serveMode     string
	serveDuration time.Duration
	serveStartIn  time.Duration
	serveWords    int
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host competitions over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&serveDBPath, "db", "", "sqlite database path (default: XDG data dir)")
	cmd.Flags().StringVar(&serveToken, "token", "", "organizer token (generated when empty)")
	cmd.Flags().StringVar(&serveCompetitions, "competitions", "", "YAML file with competition definitions")
	cmd.Flags().StringVar(&serveWordList, "wordlist", "", "word list used for generated texts (default: embedded English list)")
	cmd.Flags().StringVar(&serveLang, "lang", "en", "word list language filter")
	cmd.Flags().DurationVar(&serveLeadTime, "lead-time", server.DefaultLeadTime, "delay before a restarted competition starts")
	cmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	cmd.Flags().StringVar(&serveID, "id", "", "ad-hoc competition id (ignored with --competitions)")
	cmd.Flags().StringVar(&serveTitle, "title", "", "ad-hoc competition title")
	cmd.Flags().StringVar(&serveMode, "mode", string(model.ModePlain), "ad-hoc competition mode (plain, reverse, jumble-word)")
	cmd.Flags().DurationVar(&serveDuration, "duration", time.Minute, "ad-hoc competition duration")
	cmd.Flags().DurationVar(&serveStartIn, "start-in", 30*time.Second, "ad-hoc competition start delay")
	cmd.Flags().IntVar(&serveWords, "words", server.DefaultWordCount, "ad-hoc competition word count")
	return cmd
}

func applyServeConfig(cmd *cobra.Command) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	c := fileCfg.Server
	applyStringConfig(cmd, "addr", &serveAddr, c.Addr)
	applyStringConfig(cmd, "db", &serveDBPath, c.DBPath)
	applyStringConfig(cmd, "token", &serveToken, c.OrganizerToken)
	applyStringConfig(cmd, "competitions", &serveCompetitions, c.Competitions)
	applyStringConfig(cmd, "wordlist", &serveWordList, c.WordList)
	applyStringConfig(cmd, "lang", &serveLang, c.Lang)
	applyStringConfig(cmd, "log-level", &serveLogLevel, c.LogLevel)
	if err := applyDurationConfig(cmd, "lead-time", &serveLeadTime, c.LeadTime); err != nil {
		return err
	}

	if strings.TrimSpace(serveAddr) == "" {
		return fmt.Errorf("--addr must not be empty")
	}
	if serveLeadTime <= 0 {
		return fmt.Errorf("--lead-time must be > 0")
	}
	if serveCompetitions == "" {
		if serveDuration <= 0 {
			return fmt.Errorf("--duration must be > 0")
		}
		if serveStartIn < 0 {
			return fmt.Errorf("--start-in must be >= 0")
		}
		if serveWords <= 0 {
			return fmt.Errorf("--words must be > 0")
		}
	}
	return nil
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	if err := applyServeConfig(cmd); err != nil {
		return err
	}
	level, err := logging.ParseLevel(serveLogLevel)
	if err != nil {
		return err
	}
	log := logging.Console(os.Stderr, level)

	dbPath := serveDBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close database: %v\n", cerr)
		}
	}()

	token := strings.TrimSpace(serveToken)
	if token == "" {
		token = uuid.NewString()
		log.Warn().Str("token", token).Msg("no organizer token configured, generated one")
	}
	svc, err := server.NewService(st, server.Options{
		OrganizerToken: token,
		LeadTime:       serveLeadTime,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	defs, err := serveDefinitions()
	if err != nil {
		return err
	}
	words, err := wordlist.Load(serveWordList, serveLang)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if _, err := svc.Seed(ctx, defs, generator.New(), words); err != nil {
		return err
	}
	return svc.ListenAndServe(ctx, serveAddr)
}

func serveDefinitions() ([]server.Definition, error) {
	if serveCompetitions != "" {
		return server.LoadDefinitions(serveCompetitions)
	}
	return []server.Definition{{
		ID:       serveID,
		Title:    serveTitle,
		Mode:     serveMode,
		Count:    serveWords,
		Duration: serveDuration,
		StartIn:  serveStartIn,
	}}, nil
}
