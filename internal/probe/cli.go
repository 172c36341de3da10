package probe

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/okian/skillswap/pkg/logger"
)

// SetupLogging initialises the global logger in the given format.
func SetupLogging(format string, verbose bool) error {
	if err := logger.InitWithFormat(format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ParseUserIDs parses a comma separated list of positive ids.
func ParseUserIDs(list string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, ErrNoUsers
	}
	return ids, nil
}

// ShowHelp prints usage information for the probe.
func ShowHelp() {
	os.Stdout.WriteString(`SkillSwap Recommendation Probe
==============================

Calls a running service concurrently and checks that every answer respects
the ranking rules: limit, no self match, one entry per user, non-increasing
scores, and identical rankings across rounds.

Usage:
  probe -users 1,2,3 -admin 1 -secret $SKILLSWAP_JWT_SECRET [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:3000")
  -users string
        Comma separated user ids to probe
  -admin int
        Active admin account the token is issued for
  -secret string
        JWT secret shared with the service (default $SKILLSWAP_JWT_SECRET)
  -rounds int
        Times each user is queried (default 3)
  -limit int
        Recommendation and trending limit (default 5)
  -workers int
        Number of concurrent requests (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -log-format string
        text or json (default "text")
  -verbose
        Log every response
  -help
        Show this help message
`)
}
