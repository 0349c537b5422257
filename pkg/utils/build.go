// Build information injected through -ldflags, e.g.
//
//	go build -ldflags "-X github.com/nobletooth/ring/pkg/utils.Version=v0.1.0 \
//	  -X github.com/nobletooth/ring/pkg/utils.TestMode=true"
//
// TestMode turns invariant violations into panics.

package utils

import (
	"log/slog"
	"strconv"
	"time"
)

const unknownVersion = "v0.0.0-unknown"

var (
	TestMode   string // Should be "true" for builds that must fail loudly on invariant violations.
	IsTestMode bool
	Version    string
	Commit     string
	BuildTime  string
	StartTime  time.Time
)

func init() {
	StartTime = time.Now()

	// If build info is not set, make that clear while keeping Version a valid semantic version.
	if Version == "" {
		Version = unknownVersion
	}
	if Commit == "" {
		Commit = "unknown"
	}
	if BuildTime == "" {
		BuildTime = "unknown"
	}
	if len(TestMode) > 0 {
		if isTestMode, err := strconv.ParseBool(TestMode); err == nil {
			IsTestMode = isTestMode
		} else {
			slog.Warn("Failed to parse TestMode build flag, defaulting to false", "error", err)
		}
	}
}

// BuildInfo returns the build metadata as slog attributes.
func BuildInfo() []any {
	return []any{"version", Version, "commit", Commit, "build", BuildTime, "testMode", IsTestMode}
}
