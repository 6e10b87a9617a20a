package platform

import (
	"time"

	"github.com/drneuraldog/lookaway/internal/monitor/useractivity"
)

func newIdleSampler() useractivity.Sampler {
	return func(useractivity.Kind) (time.Duration, error) {
		return 0, useractivity.ErrUnsupported
	}
}
