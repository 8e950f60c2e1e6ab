// cmd/stockpulse/submit.go — stockpulse submit subcommand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
)

func runSubmit(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	conn := registerConnFlags(fs)
	ticker := fs.String("ticker", "", "stock ticker symbol (required)")
	market := fs.String("market", "US", "market identifier")
	_ = fs.Parse(args)

	if *ticker == "" {
		fmt.Fprintln(os.Stderr, "submit: --ticker is required")
		fs.Usage()
		os.Exit(1)
	}

	c, err := conn.newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		os.Exit(1)
	}

	id, err := c.CreateAnalysis(context.Background(), strings.ToUpper(*ticker), *market)
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("analysis_id: %s\n", id)
	fmt.Printf("ticker:      %s\n", strings.ToUpper(*ticker))
	fmt.Printf("status:      processing\n")
	if sid := c.SessionID(); sid != "" {
		// Needed to read this analysis back later; anonymous ownership is
		// keyed by session id.
		fmt.Printf("session:     %s\n", sid)
	}
}
