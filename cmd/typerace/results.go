package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typerace/internal/api"
	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/stats"
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Print the current standings of a competition",
		Args:  cobra.NoArgs,
		RunE:  runResultsCmd,
	}
	cmd.Flags().StringVar(&clientHost, "host", defaultHost, "competition host URL")
	cmd.Flags().StringVarP(&clientCompetition, "competition", "c", "", "competition id")
	cmd.Flags().DurationVar(&clientTimeout, "timeout", defaultTimeout, "HTTP request timeout")
	return cmd
}

func runResultsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "host", &clientHost, fileCfg.Client.Host)
	applyStringConfig(cmd, "competition", &clientCompetition, fileCfg.Client.Competition)
	if err := applyDurationConfig(cmd, "timeout", &clientTimeout, fileCfg.Client.Timeout); err != nil {
		return err
	}
	if err := validateClientConfig(model.RoleParticipant); err != nil {
		return err
	}
	client, err := api.New(api.Config{
		BaseURL:       clientHost,
		CompetitionID: clientCompetition,
		Timeout:       clientTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	standings, err := client.FetchResults(ctx)
	if err != nil {
		return err
	}
	return stats.RenderStandings(cmd.OutOrStdout(), stats.SortStandings(standings))
}
