package main

import (
	"fmt"

	"agentic_debate/pkg/app"
	"agentic_debate/pkg/core/prompt"
	"agentic_debate/pkg/core/roster"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and check the settings, roster, models and prompt files",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		source := cfg.Path
		if source == "" {
			source = "defaults (no " + configPath + ")"
		}
		fmt.Fprintf(out, "OK   %-10s %s (archive: %s)\n", "settings", source, cfg.Archive.Backend)

		failed := 0
		check := func(name, path string, err error) {
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %-10s %s: %v\n", name, path, err)
				return
			}
			fmt.Fprintf(out, "OK   %-10s %s\n", name, path)
		}

		rs, err := roster.Load(cfg.Paths.Roster)
		check("roster", cfg.Paths.Roster, err)
		if err == nil {
			fmt.Fprintf(out, "     %d agents\n", rs.Info().Counts.Total)
		}

		models, err := app.LoadModels(cfg.Paths.Models, newLogger())
		check("models", cfg.Paths.Models, err)
		if err == nil {
			fmt.Fprintf(out, "     active provider %s\n", models.ActiveProvider)
		}

		n, err := prompt.LoadFromDirectory(cfg.Paths.Prompts)
		check("prompts", cfg.Paths.Prompts, err)
		if err == nil {
			fmt.Fprintf(out, "     %d overrides\n", n)
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}
