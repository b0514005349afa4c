package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/studypod/internal/timer"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show practice, focus and gateway statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		attempts, err := s.EventRepo().AttemptStatsByKind(ctx)
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}

		fmt.Println("Practice by Step Kind")
		fmt.Println(strings.Repeat("─", 72))
		if len(attempts) == 0 {
			fmt.Println("No attempts recorded yet.")
		} else {
			fmt.Printf("%-16s  %8s  %8s  %9s  %6s  %8s\n",
				"Kind", "Attempts", "Correct", "Incorrect", "Errors", "Accuracy")
			fmt.Println(strings.Repeat("─", 72))
			for _, a := range attempts {
				fmt.Printf("%-16s  %8d  %8d  %9d  %6d  %7.0f%%\n",
					truncate(a.StepKind, 16), a.Attempts, a.Correct, a.Incorrect, a.Errors, a.Accuracy()*100)
			}
		}

		totals, err := s.FocusRepo().Totals(ctx)
		if err != nil {
			return fmt.Errorf("query focus totals: %w", err)
		}
		fmt.Println()
		fmt.Println("Focus Sessions")
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("Sessions:  %d\n", totals.Sessions)
		fmt.Printf("Focused:   %s\n", timer.FormatSeconds(totals.FocusedSeconds))
		fmt.Printf("Overtime:  %s\n", timer.FormatSeconds(totals.OvertimeSeconds))

		calls, err := s.EventRepo().GatewayCallStats(ctx)
		if err != nil {
			return fmt.Errorf("query gateway calls: %w", err)
		}
		if len(calls) > 0 {
			fmt.Println()
			fmt.Println("Gateway Calls")
			fmt.Println(strings.Repeat("─", 72))
			fmt.Printf("%-24s  %6s  %8s  %8s\n", "Operation", "Calls", "Failures", "Avg Ms")
			fmt.Println(strings.Repeat("─", 72))
			for _, c := range calls {
				fmt.Printf("%-24s  %6d  %8d  %8d\n",
					truncate(c.Operation, 24), c.Calls, c.Failures, c.AvgLatencyMs)
			}
		}
		return nil
	},
}
