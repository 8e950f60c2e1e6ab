// cmd/stockpulse/watch.go — stockpulse watch subcommand. Follows an analysis
// run over its progress stream until it reaches a terminal state.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/client"
	"github.com/joonhokim/stockpulse/pkg/models"
)

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	conn := registerConnFlags(fs)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "watch: analysis id argument is required")
		os.Exit(1)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch: invalid analysis id %q: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}

	c, err := conn.newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	analysis, err := c.GetAnalysis(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}

	cache := client.NewAnalysisCache()
	cache.Put(*analysis)

	if analysis.Terminal() {
		fmt.Printf("analysis %s is already %s\n", id, analysis.Status)
		if analysis.Report != nil {
			printReport(analysis.Report)
		}
		return
	}

	fmt.Printf("watching analysis %s for %s (ctrl-c to stop)\n", id, analysis.Ticker)

	err = c.Subscribe(ctx, cache, id, func(ev client.Event) {
		switch {
		case ev.Status == models.AnalysisStatusProcessing:
			fmt.Printf("  %3d%%  %s\n", ev.Progress, ev.Message)
		case ev.Status == models.AnalysisStatusCompleted:
			fmt.Printf("  100%%  completed\n")
		case ev.Status == models.AnalysisStatusFailed:
			fmt.Printf("  failed: %s\n", ev.Error)
		case ev.Error != "":
			fmt.Printf("  error: %s\n", ev.Error)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}

	view := client.ComposeView(cache, id)
	if view.State == client.ViewCompleted && view.Report != nil {
		printReport(view.Report)
	}
}
