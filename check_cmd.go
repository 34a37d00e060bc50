package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/readtext/internal/tts/engines"
)

var checkCmd = &cobra.Command{
	Use:     "check [ENGINE]",
	Short:   "Check which speech engines are available",
	Long:    paragraph(fmt.Sprintf("\n%s that the speech engines can be reached, and print setup instructions for the ones that cannot.", keyword("Check"))),
	Example: paragraph("readtext check\nreadtext check espeak"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := engines.Names()
		if len(args) == 1 {
			names = args
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		var (
			rows   [][]string
			failed []engines.CheckResult
		)
		for _, name := range names {
			synth, err := engines.New(name, cfg.EngineConfig())
			if err != nil {
				return err //nolint:wrapcheck
			}
			res := engines.Check(ctx, synth)

			status := "available"
			if !res.Available {
				status = errorStyle("unavailable")
				failed = append(failed, res)
			}
			selected := ""
			if name == cfg.Engine {
				selected = "*"
			}
			rows = append(rows, []string{selected, res.Engine, status, res.Latency.Round(time.Millisecond).String()})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderTable(
			[]string{"", "Engine", "Status", "Latency"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
		))
		for _, res := range failed {
			fmt.Fprintf(out, "\n%s\n%s\n", keyword(res.Engine), res.Guidance)
		}
		return nil
	},
}
