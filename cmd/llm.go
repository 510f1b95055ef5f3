package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/llm"
	"github.com/abhisek/pathwise/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect logged LLM calls and their cost",
}

// openEventStore opens the local database that holds the LLM event log.
func openEventStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func rule(n int) string { return strings.Repeat("─", n) }

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		if purpose != "" && !llm.IsPurpose(purpose) {
			return fmt.Errorf("unknown purpose %q (one of %s)", purpose, strings.Join(llm.Purposes(), ", "))
		}

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM calls logged yet.")
			return nil
		}

		fmt.Printf("%-5s  %-14s  %-12s  %-26s  %7s  %7s  %6s  %s\n",
			"ID", "When", "Purpose", "Model", "In", "Out", "Secs", "OK")
		fmt.Println(rule(96))
		for _, e := range events {
			fmt.Printf("%-5d  %-14s  %-12s  %-26s  %7s  %7s  %6.1f  %s\n",
				e.ID,
				truncate(humanize.Time(e.Timestamp), 14),
				truncate(e.Purpose, 12),
				truncate(e.Model, 26),
				humanize.Comma(int64(e.InputTokens)),
				humanize.Comma(int64(e.OutputTokens)),
				float64(e.LatencyMs)/1000,
				mark(e.Success),
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		field := func(label, value string) { fmt.Printf("%-9s %s\n", label+":", value) }
		field("ID", strconv.Itoa(e.ID))
		field("Time", e.Timestamp.Local().Format(timeLayout)+" ("+humanize.Time(e.Timestamp)+")")
		field("Provider", e.Provider)
		field("Model", e.Model)
		field("Purpose", e.Purpose)
		field("Tokens", fmt.Sprintf("%s in / %s out",
			humanize.Comma(int64(e.InputTokens)), humanize.Comma(int64(e.OutputTokens))))
		field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
		field("Success", mark(e.Success))
		if e.ErrorMessage != "" {
			field("Error", e.ErrorMessage)
		}

		printBody("REQUEST", e.RequestBody)
		printBody("RESPONSE", e.ResponseBody)
		return nil
	},
}

func printBody(title, body string) {
	fmt.Println()
	fmt.Println(rule(60))
	fmt.Println(title)
	fmt.Println(rule(60))
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}
		printUsage(byPurpose)

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) > 0 {
			fmt.Println()
			printCost(byModel)
		}
		return nil
	},
}

func printUsage(stats []store.UsageStat) {
	fmt.Println("Usage by purpose")
	fmt.Println(rule(72))
	fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Total", "Avg ms")
	fmt.Println(rule(72))

	var calls, in, out int
	for _, st := range stats {
		fmt.Printf("%-16s  %6d  %10s  %10s  %10s  %8d\n",
			truncate(st.Purpose, 16), st.Calls,
			humanize.Comma(int64(st.InputTokens)),
			humanize.Comma(int64(st.OutputTokens)),
			humanize.Comma(int64(st.InputTokens+st.OutputTokens)),
			st.AvgLatencyMs)
		calls += st.Calls
		in += st.InputTokens
		out += st.OutputTokens
	}
	fmt.Println(rule(72))
	fmt.Printf("%-16s  %6d  %10s  %10s  %10s\n", "TOTAL", calls,
		humanize.Comma(int64(in)), humanize.Comma(int64(out)), humanize.Comma(int64(in+out)))
}

func printCost(stats []store.UsageStat) {
	fmt.Println("Estimated cost (USD)")
	fmt.Println(rule(72))
	fmt.Printf("%-32s  %6s  %10s  %10s  %8s\n", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Println(rule(72))

	var total float64
	var unpriced []string
	for _, mu := range stats {
		cost := "?"
		if price := llm.LookupCost(mu.Model); price != nil {
			c := price.Cost(mu.InputTokens, mu.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, mu.Model)
		}
		fmt.Printf("%-32s  %6d  %10s  %10s  %8s\n",
			truncate(mu.Model, 32), mu.Calls,
			humanize.Comma(int64(mu.InputTokens)),
			humanize.Comma(int64(mu.OutputTokens)),
			cost)
	}
	fmt.Println(rule(72))

	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Printf("%-32s  %6s  %10s  %10s  %8s\n", label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Printf("\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose ("+strings.Join(llm.Purposes(), ", ")+")")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
