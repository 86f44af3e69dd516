// Package sysctx samples ambient system state for pipeline dispatches.
package sysctx

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// UnknownApp is the sentinel used when the active application cannot be
// determined. Probe failures never surface as errors.
const UnknownApp = "Unknown"

// probeTimeout bounds the platform-specific active-window probe.
const probeTimeout = 1 * time.Second

// Snapshot is a point-in-time, read-only bag of ambient facts. Constructed
// fresh per pipeline invocation and never mutated once handed to plugins.
type Snapshot struct {
	ActiveApp string
	TimeOfDay string // HH:MM:SS local
	DayOfWeek string
	Timestamp time.Time
	Platform  string // GOOS
	Hostname  string
}

// Capture samples a fresh snapshot. No caching: staleness would silently
// mislead plugins that key behavior off time-of-day or active application.
func Capture() Snapshot {
	now := time.Now()
	host, err := os.Hostname()
	if err != nil {
		host = UnknownApp
	}
	return Snapshot{
		ActiveApp: activeApp(),
		TimeOfDay: now.Format("15:04:05"),
		DayOfWeek: now.Weekday().String(),
		Timestamp: now,
		Platform:  runtime.GOOS,
		Hostname:  host,
	}
}

// activeApp probes the foreground application name, best-effort.
func activeApp() string {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.CommandContext(ctx, "xdotool", "getactivewindow", "getwindowname")
	case "darwin":
		cmd = exec.CommandContext(ctx, "osascript", "-e",
			`tell application "System Events" to get name of first application process whose frontmost is true`)
	default:
		return UnknownApp
	}

	out, err := cmd.Output()
	if err != nil {
		return UnknownApp
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return UnknownApp
	}
	return name
}
