// Package notify sends desktop notifications for break transitions.
package notify

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// Notifier sends desktop notifications via the platform's native tool.
type Notifier struct {
	enabled bool
	log     zerolog.Logger
}

// New creates a Notifier.
func New(enabled bool, logger zerolog.Logger) *Notifier {
	return &Notifier{enabled: enabled, log: logger}
}

// Send shows a notification. Failures are logged, never fatal.
func (notifier *Notifier) Send(title, message string) {
	if !notifier.enabled {
		return
	}

	var err error
	switch runtime.GOOS {
	case "darwin":
		script := `display notification "` + escapeAppleScript(message) +
			`" with title "` + escapeAppleScript(title) + `"`
		err = exec.Command("osascript", "-e", script).Run()
	case "linux":
		err = exec.Command("notify-send", title, message).Run()
	default:
		return
	}
	if err != nil {
		notifier.log.Warn().Err(err).Str("title", title).Msg("desktop notification failed")
	}
}

// escapeAppleScript makes arbitrary text safe inside an AppleScript string
// literal.
func escapeAppleScript(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(text, `"`, `\"`)
}
