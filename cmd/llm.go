package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/llm"
	"github.com/abhisek/coursiz/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests from card drafting",
}

// withEvents opens the configured store for the duration of fn.
func withEvents(cmd *cobra.Command, fn func(ctx context.Context, events store.EventRepo) error) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cmd.Context(), st.EventRepo())
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failedOnly, _ := cmd.Flags().GetBool("failed")

		return withEvents(cmd, func(ctx context.Context, events store.EventRepo) error {
			reqs, err := events.LLMRequests(ctx, store.QueryOpts{Limit: limit})
			if err != nil {
				return err
			}

			rows := reqs[:0]
			for _, e := range reqs {
				if (purpose == "" || e.Purpose == purpose) && (!failedOnly || !e.Success) {
					rows = append(rows, e)
				}
			}
			if len(rows) == 0 {
				fmt.Println("No LLM requests recorded.")
				return nil
			}

			fmt.Printf("%-6s  %-19s  %-12s  %-28s  %6s  %6s  %7s  %s\n",
				"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
			fmt.Println(strings.Repeat("─", 100))
			for _, e := range rows {
				ok := "✓"
				if !e.Success {
					ok = "✗"
				}
				fmt.Printf("%-6d  %-19s  %-12s  %-28s  %6d  %6d  %7d  %s\n",
					e.Sequence,
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					e.Purpose,
					truncate(e.Model, 28),
					e.InputTokens, e.OutputTokens, e.LatencyMs,
					ok)
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and response of one LLM request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withEvents(cmd, func(ctx context.Context, events store.EventRepo) error {
			e, err := events.LLMRequest(ctx, id)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("LLM request %d not found", id)
			}

			fmt.Printf("ID:        %d\n", e.Sequence)
			fmt.Printf("Time:      %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Provider:  %s (%s)\n", e.Provider, e.Model)
			fmt.Printf("Purpose:   %s\n", e.Purpose)
			fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Printf("Latency:   %dms\n", e.LatencyMs)
			if cost := llm.LookupCost(e.Model); cost != nil {
				fmt.Printf("Cost:      %s\n", formatCost(cost.Cost(e.InputTokens, e.OutputTokens)))
			}
			if !e.Success {
				fmt.Printf("Error:     %s\n", e.ErrorMessage)
			}

			printSection("REQUEST", e.RequestBody)
			printSection("RESPONSE", e.ResponseBody)
			return nil
		})
	},
}

func printSection(name, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Printf("\n%s\n%s\n%s\n", sep, name, sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage by purpose and estimated cost by model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(ctx context.Context, events store.EventRepo) error {
			byPurpose, err := events.LLMUsageByPurpose(ctx)
			if err != nil {
				return err
			}
			if len(byPurpose) == 0 {
				fmt.Println("No LLM usage recorded yet.")
				return nil
			}

			rule := strings.Repeat("─", 72)
			fmt.Println("Usage by Purpose")
			fmt.Println(rule)
			fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n",
				"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
			fmt.Println(rule)
			var calls, in, out int
			for _, u := range byPurpose {
				fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
					u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
				calls += u.Calls
				in += u.InputTokens
				out += u.OutputTokens
			}
			fmt.Println(rule)
			fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)

			byModel, err := events.LLMUsageByModel(ctx)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println("Estimated Cost (USD)")
			fmt.Println(rule)
			var total float64
			var unpriced []string
			for _, u := range byModel {
				price := "?"
				if cost := llm.LookupCost(u.Model); cost != nil {
					c := cost.Cost(u.InputTokens, u.OutputTokens)
					total += c
					price = formatCost(c)
				} else {
					unpriced = append(unpriced, u.Model)
				}
				fmt.Printf("%-32s  %6d  %10d  %10d  %9s\n",
					truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, price)
			}
			fmt.Println(rule)
			label := "TOTAL"
			if len(unpriced) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Printf("%-32s  %6s  %10s  %10s  %9s\n", label, "", "", "", formatCost(total))
			if len(unpriced) > 0 {
				fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
			}
			return nil
		})
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show this purpose (e.g. draft-cards)")
	llmListCmd.Flags().Bool("failed", false, "Only show failed requests")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
