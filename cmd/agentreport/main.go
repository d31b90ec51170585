package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"agentwatch/config"
	"agentwatch/poller"
	"agentwatch/snapshot"
	"agentwatch/status"

	jsoniter "github.com/json-iterator/go"
)

// agentreport performs a single authenticated fetch against the agent and
// prints a one-shot status report, for cron jobs and quick checks without
// the dashboard.

type projectReport struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	SuccessRate *int   `json:"success_rate,omitempty"`
	Tier        string `json:"tier,omitempty"`
	Success     int    `json:"success_count"`
	Failed      int    `json:"failed_count"`
	LastRun     string `json:"last_run"`
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $AGENTWATCH_CONFIG, then ./config.yaml)")
	timeout := flag.Duration("timeout", 5*time.Second, "overall fetch timeout")
	asJSON := flag.Bool("json", false, "emit the report as JSON")
	flag.Parse()

	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	snap, err := poller.FetchOnce(ctx, poller.Config{
		URL:              cfg.Agent.URL,
		Username:         cfg.Agent.Username,
		Password:         cfg.Agent.Password,
		RequestTimeoutMS: int(timeout.Milliseconds()),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		os.Exit(1)
	}

	reports := buildReports(snap)
	if *asJSON {
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(reports, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("agent %s: %d projects, %d feed entries\n", cfg.Agent.URL, len(snap.Projects), len(snap.History))
	for _, r := range reports {
		rate := "--%"
		if r.SuccessRate != nil {
			rate = fmt.Sprintf("%d%% (%s)", *r.SuccessRate, r.Tier)
		}
		fmt.Printf("%-20s %-15s %-15s ok %d fail %d  last %s\n",
			r.Name, r.State, rate, r.Success, r.Failed, r.LastRun)
	}

	if len(snap.History) > 0 {
		fmt.Println("recent activity:")
		limit := len(snap.History)
		if limit > maxHistoryLines {
			limit = maxHistoryLines
		}
		// History arrives newest first.
		for _, entry := range snap.History[:limit] {
			fmt.Printf("  %s [%s] %s: %s\n",
				status.FormatClock(entry.Timestamp), entry.Type, entry.Project, entry.Message)
		}
	}
}

const maxHistoryLines = 10

func buildReports(snap *snapshot.StatsSnapshot) []projectReport {
	names := make([]string, 0, len(snap.Projects))
	for name := range snap.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]projectReport, 0, len(names))
	for _, name := range names {
		ps := snap.Projects[name]
		r := projectReport{
			Name:    name,
			State:   status.Classify(ps).Label(),
			Success: ps.SuccessCount,
			Failed:  ps.FailedCount,
			LastRun: status.FormatClock(ps.LastRun),
		}
		if rate, ok := status.SuccessRate(ps.SuccessCount, ps.FailedCount); ok {
			r.SuccessRate = &rate
			r.Tier = status.RateTier(rate).String()
		}
		reports = append(reports, r)
	}
	return reports
}
