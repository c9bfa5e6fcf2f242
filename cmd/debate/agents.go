package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"agentic_debate/pkg/core/debate"
	"agentic_debate/pkg/core/roster"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the debate roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := roster.Load(cfg.Paths.Roster)
		if err != nil {
			return err
		}
		return printRoster(cmd.OutOrStdout(), rs.Info())
	},
}

func printRoster(w io.Writer, info roster.Info) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tID\tNAME\tPERSONALITY")
	row := func(p debate.Participant) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Role, p.ID, p.Name, p.Personality)
	}
	for _, p := range info.PropositionAgents {
		row(p)
	}
	row(info.OppositionAgent)
	row(info.ModeratorAgent)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d agents: %d proposition, %d opposition, %d moderator\n",
		info.Counts.Total, info.Counts.Proposition, info.Counts.Opposition, info.Counts.Moderator)
	return err
}
