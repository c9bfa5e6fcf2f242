package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"agentic_debate/pkg/app"
	"agentic_debate/pkg/core/debate"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one debate and print its events",
	Long: `Run starts a debate on --topic and prints every event until the moderator
has summarized. The first Ctrl-C asks the debate to conclude early; a second
one exits immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		duration, _ := cmd.Flags().GetInt("duration")
		exchanges, _ := cmd.Flags().GetInt("exchanges")
		firstAgent, _ := cmd.Flags().GetString("first-agent")
		simulate, _ := cmd.Flags().GetBool("simulate")
		asJSON, _ := cmd.Flags().GetBool("json")

		if duration <= 0 {
			duration = cfg.Debate.DurationSeconds
		}
		if exchanges <= 0 {
			exchanges = cfg.Debate.ExchangesPerRound
		}

		logger := newLogger()
		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Manager.Start(debate.Config{
			Topic:             topic,
			DurationSeconds:   duration,
			ExchangesPerRound: exchanges,
			FirstAgentID:      firstAgent,
		}, simulate)
		if err != nil {
			return err
		}
		logger.Info("debate started", "debate_id", id)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		go func() {
			<-sigs
			// Restore default handling so a second interrupt kills the process.
			signal.Stop(sigs)
			fmt.Fprintln(os.Stderr, "\nstopping, waiting for the moderator summary (Ctrl-C again to abort)")
			a.Manager.Stop()
		}()
		defer signal.Stop(sigs)

		if err := printEvents(cmd.OutOrStdout(), a.Manager, asJSON); err != nil {
			return err
		}

		if err := a.Manager.Wait(context.Background()); err != nil {
			return err
		}
		st, err := a.Manager.State()
		if err != nil {
			return err
		}
		if st.Status == debate.StatusError {
			return fmt.Errorf("debate %s failed: %s", id, st.ErrorMessage)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("topic", "", "debate topic (required)")
	runCmd.Flags().Int("duration", 0, "debate length in seconds (default from config)")
	runCmd.Flags().Int("exchanges", 0, "messages per voting round (default from config)")
	runCmd.Flags().String("first-agent", "", "id of the opening proposition agent")
	runCmd.Flags().Bool("simulate", false, "use canned responses instead of an LLM provider")
	runCmd.Flags().Bool("json", false, "print raw event records as JSON lines")
	runCmd.MarkFlagRequired("topic")
}

// printEvents writes buffered and live records of the current debate to w
// until the debate ends.
func printEvents(w io.Writer, mgr *debate.Manager, asJSON bool) error {
	live, history := mgr.Subscribe()
	defer mgr.Unsubscribe(live)

	enc := json.NewEncoder(w)
	write := func(rec debate.Record) error {
		if asJSON {
			return enc.Encode(rec)
		}
		line, err := render(rec)
		if err != nil {
			return fmt.Errorf("render %s: %w", rec.Type, err)
		}
		if line != "" {
			_, err = fmt.Fprintln(w, line)
		}
		return err
	}

	for _, rec := range history {
		if err := write(rec); err != nil {
			return err
		}
	}
	for rec := range live {
		if err := write(rec); err != nil {
			return err
		}
	}
	return nil
}
