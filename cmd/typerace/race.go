package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typerace/internal/api"
	"github.com/verte-zerg/typerace/internal/config"
	"github.com/verte-zerg/typerace/internal/logging"
	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/race"
	"github.com/verte-zerg/typerace/internal/scheduler"
	"github.com/verte-zerg/typerace/internal/tui"
)

const (
	defaultHost      = "http://localhost:8080"
	defaultTimeout   = 10 * time.Second
	defaultCountdown = race.DefaultCountdownFrom
)

var (
	clientHost        string
	clientCompetition string
	clientName        string
	clientToken       string
	clientTimeout     time.Duration
	clientCountdown   int
	clientLogLevel    string
	clientLogFile     string
	clientHeadless    bool
)

func addClientFlags(cmd *cobra.Command, organizer bool) {
	cmd.Flags().StringVar(&clientHost, "host", defaultHost, "competition host URL")
	cmd.Flags().StringVarP(&clientCompetition, "competition", "c", "", "competition id")
	cmd.Flags().DurationVar(&clientTimeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().StringVar(&clientLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&clientLogFile, "log-file", "", "log file used while the TUI runs (default: XDG state dir)")
	if organizer {
		cmd.Flags().StringVar(&clientToken, "token", "", "organizer token")
		return
	}
	cmd.Flags().StringVarP(&clientName, "name", "n", "", "display name")
	cmd.Flags().IntVar(&clientCountdown, "countdown", defaultCountdown, "seconds of 3-2-1 overlay before input opens (0 disables)")
	cmd.Flags().BoolVar(&clientHeadless, "headless", false, "log progress instead of drawing the TUI; typing is read from stdin")
}

func newRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "Join a competition as a participant",
		Args:  cobra.NoArgs,
		RunE:  runRaceCmd,
	}
	addClientFlags(cmd, false)
	return cmd
}

func newOrganizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Watch and control a competition as the organizer",
		Args:  cobra.NoArgs,
		RunE:  runOrganizeCmd,
	}
	addClientFlags(cmd, true)
	return cmd
}

func runRaceCmd(cmd *cobra.Command, _ []string) error {
	return runClient(cmd, model.RoleParticipant)
}

func runOrganizeCmd(cmd *cobra.Command, _ []string) error {
	return runClient(cmd, model.RoleOrganizer)
}

func applyClientConfig(cmd *cobra.Command, role model.Role) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	c := fileCfg.Client
	applyStringConfig(cmd, "host", &clientHost, c.Host)
	applyStringConfig(cmd, "competition", &clientCompetition, c.Competition)
	applyStringConfig(cmd, "log-level", &clientLogLevel, c.LogLevel)
	if err := applyDurationConfig(cmd, "timeout", &clientTimeout, c.Timeout); err != nil {
		return err
	}
	if role == model.RoleOrganizer {
		applyStringConfig(cmd, "token", &clientToken, c.OrganizerToken)
	} else {
		applyStringConfig(cmd, "name", &clientName, c.ParticipantName)
		applyIntConfig(cmd, "countdown", &clientCountdown, c.Countdown)
	}
	return validateClientConfig(role)
}

func validateClientConfig(role model.Role) error {
	if strings.TrimSpace(clientHost) == "" {
		return fmt.Errorf("--host must not be empty")
	}
	if strings.TrimSpace(clientCompetition) == "" {
		return fmt.Errorf("--competition must not be empty")
	}
	if clientTimeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if clientCountdown < 0 {
		return fmt.Errorf("--countdown must be >= 0")
	}
	if role == model.RoleOrganizer && strings.TrimSpace(clientToken) == "" {
		return fmt.Errorf("--token must not be empty")
	}
	return nil
}

func runClient(cmd *cobra.Command, role model.Role) error {
	if err := applyClientConfig(cmd, role); err != nil {
		return err
	}
	level, err := logging.ParseLevel(clientLogLevel)
	if err != nil {
		return err
	}

	interactive := !clientHeadless && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if role == model.RoleOrganizer && !interactive {
		return fmt.Errorf("organize needs an interactive terminal")
	}

	var log zerolog.Logger
	if interactive {
		path := clientLogFile
		if path == "" {
			path = config.DefaultLogPath()
		}
		file, err := logging.OpenFile(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				logErrf("failed to close log file: %v\n", cerr)
			}
		}()
		log = logging.JSON(file, level)
	} else {
		log = logging.Console(os.Stderr, level)
	}

	apiCfg := api.Config{
		BaseURL:       clientHost,
		CompetitionID: clientCompetition,
		Timeout:       clientTimeout,
	}
	opts := race.Options{Role: role, Logger: log}
	if role == model.RoleOrganizer {
		apiCfg.OrganizerToken = clientToken
	} else {
		id, err := config.ParticipantID(config.DefaultParticipantIDPath())
		if err != nil {
			return err
		}
		apiCfg.ParticipantID = id
		apiCfg.ParticipantName = clientName
		opts.ParticipantID = id
		opts.CountdownFrom = clientCountdown
		if clientCountdown == 0 {
			opts.CountdownFrom = -1
		}
	}
	client, err := api.New(apiCfg)
	if err != nil {
		return err
	}
	log = log.With().Str("host", clientHost).Str("competition_id", clientCompetition).Logger()
	opts.Logger = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sched := scheduler.New(clockwork.NewRealClock())

	if !interactive {
		runner, err := race.NewRunner(client, tui.NewHeadlessView(log), sched, opts)
		if err != nil {
			return err
		}
		go feedStdin(os.Stdin, runner)
		return ignoreCanceled(runner.Run(ctx))
	}

	bridge := &tui.Bridge{}
	runner, err := race.NewRunner(client, bridge, sched, opts)
	if err != nil {
		return err
	}
	var teaModel tea.Model = tui.NewModel(runner)
	if role == model.RoleOrganizer {
		teaModel = tui.NewOrganizerModel(runner)
	}
	program := tea.NewProgram(teaModel, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(program)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(runCtx)
	}()

	_, progErr := program.Run()
	cancel()
	runErr := <-done
	if progErr != nil && !errors.Is(progErr, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", progErr)
	}
	return ignoreCanceled(runErr)
}

// feedStdin types every rune read from r. Line breaks are skipped.
func feedStdin(r io.Reader, runner *race.Runner) {
	reader := bufio.NewReader(r)
	for {
		ch, _, err := reader.ReadRune()
		if err != nil {
			return
		}
		if ch == '\n' || ch == '\r' {
			continue
		}
		runner.Do(func(e *race.Engine) { e.Type(ch) })
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
