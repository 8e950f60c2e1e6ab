// cmd/stockpulse/status.go — stockpulse status subcommand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/models"
)

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	conn := registerConnFlags(fs)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "status: analysis id argument is required")
		os.Exit(1)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: invalid analysis id %q: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}

	c, err := conn.newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}

	analysis, err := c.GetAnalysis(context.Background(), id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("analysis_id: %s\n", analysis.ID)
	fmt.Printf("ticker:      %s (%s)\n", analysis.Ticker, analysis.Market)
	fmt.Printf("status:      %s\n", analysis.Status)
	fmt.Printf("created_at:  %s\n", analysis.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if analysis.Report != nil {
		printReport(analysis.Report)
	}
}

func printReport(r *models.Report) {
	fmt.Println()
	fmt.Printf("recommendation: %s\n", r.Recommendation)
	fmt.Printf("summary:        %s\n", r.Summary)
	fmt.Printf("signals:        %s\n", strings.Join(r.Signals, "; "))
	if n := len(r.ChartData); n > 0 {
		first, last := r.ChartData[0], r.ChartData[n-1]
		fmt.Printf("chart:          %d points, %s (%.2f) -> %s (%.2f)\n",
			n, first.Time, first.Value, last.Time, last.Value)
	}
}
