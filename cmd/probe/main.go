package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/skillswap/internal/probe"
	"github.com/okian/skillswap/pkg/logger"
)

// Default configuration constants.
const (
	defaultRounds    = 3
	defaultLimit     = 5
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 10 * time.Second
	defaultRunBudget = 5 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:3000", "Base URL of the service")
		users     = flag.String("users", "", "Comma separated user ids to probe")
		adminID   = flag.Int64("admin", 0, "Active admin account the token is issued for")
		secret    = flag.String("secret", os.Getenv("SKILLSWAP_JWT_SECRET"), "JWT secret shared with the service")
		rounds    = flag.Int("rounds", defaultRounds, "Times each user is queried")
		limit     = flag.Int("limit", defaultLimit, "Recommendation and trending limit")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFormat = flag.String("log-format", "text", "text or json")
		verbose   = flag.Bool("verbose", false, "Log every response")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := probe.SetupLogging(*logFormat, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ids, err := probe.ParseUserIDs(*users)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		probe.ShowHelp()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunBudget)
	defer cancel()

	cfg := &probe.Config{
		BaseURL: *baseURL,
		Secret:  *secret,
		AdminID: *adminID,
		UserIDs: ids,
		Rounds:  *rounds,
		Limit:   *limit,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
	}

	report, err := probe.Run(ctx, cfg, logger.Get())
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
	if !report.OK() {
		cancel()
		os.Exit(1)
	}
}
