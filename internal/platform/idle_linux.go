package platform

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/drneuraldog/lookaway/internal/monitor/useractivity"
)

func newIdleSampler() useractivity.Sampler {
	xprintidlePath, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedSampler
	}
	sessionType := strings.ToLower(os.Getenv("XDG_SESSION_TYPE"))
	if sessionType == "wayland" {
		return unsupportedSampler
	}

	return func(useractivity.Kind) (time.Duration, error) {
		output, err := exec.Command(xprintidlePath).Output()
		if err != nil {
			return 0, fmt.Errorf("xprintidle: %w", err)
		}
		value := strings.TrimSpace(string(output))
		idleMillis, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse idle milliseconds: %w", err)
		}
		if idleMillis < 0 {
			idleMillis = 0
		}
		return time.Duration(idleMillis) * time.Millisecond, nil
	}
}

func unsupportedSampler(useractivity.Kind) (time.Duration, error) {
	return 0, useractivity.ErrUnsupported
}
