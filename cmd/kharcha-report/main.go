// kharcha-report prints a terminal spending report for one ledger
// month, defaulting to the current one.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"kharcha/internal/cli"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/services"
)

func main() {
	month := flag.String("month", "", "ledger month to report (YYYY-MM, default: current month)")
	listMonths := flag.Bool("months", false, "list past ledger months and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentReport)
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenLedger(logger, cfg)
	svc := services.NewLedgerService(store)
	defer svc.Close()

	ctx, stop := cli.NotifyShutdown()
	defer stop()

	records, err := svc.Snapshot(ctx)
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err.Error())
		os.Exit(1)
	}

	now := time.Now()

	if *listMonths {
		for _, m := range core.PastMonths(records, core.MonthKey(now)) {
			fmt.Printf("%s  %s\n", m, core.MonthDisplayName(m))
		}
		return
	}

	target := strings.TrimSpace(*month)
	if target == "" {
		target = core.MonthKey(now)
	}
	if _, err := time.Parse("2006-01", target); err != nil {
		logger.Error("Invalid month", "month", target)
		os.Exit(1)
	}

	printReport(core.SummarizeMonth(records, target), records, now, target == core.MonthKey(now))
}

func printReport(summary core.MonthSummary, records []core.Expense, now time.Time, current bool) {
	fmt.Printf("%s\n%s\n\n", summary.Label, strings.Repeat("=", len(summary.Label)))
	fmt.Printf("Total spent:  %d\n", summary.Total)
	fmt.Printf("Transactions: %d\n", summary.Count)
	if current {
		fmt.Printf("Spent today:  %d\n", core.TodayTotal(records, now))
	}

	if len(summary.ByCategory) == 0 {
		fmt.Println("\nNo expenses recorded.")
		return
	}

	fmt.Println("\nBy category:")
	for _, share := range summary.ByCategory {
		fmt.Printf("  %-15s %8d  %3d%%  %s\n", share.Name, share.Total, share.Percent, bar(share.Percent))
	}

	if current {
		fmt.Println("\nThis week:")
		for _, day := range core.DailyTotalsForWeek(records, now) {
			fmt.Printf("  %-9s %s  %8d\n", day.Weekday, day.Date, day.Total)
		}
	}
}

// bar renders a percentage as a fixed-scale block bar, two percent per
// block.
func bar(percent int) string {
	return strings.Repeat("#", percent/2)
}
