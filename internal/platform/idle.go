// Package platform holds the OS-specific glue: input idle sampling and the
// single-instance guard.
package platform

import "github.com/drneuraldog/lookaway/internal/monitor/useractivity"

// IdleSampler returns a sampler reporting the time since the last user
// input. Desktop OSes expose one global idle counter, so the same value
// answers every input kind; systems without a usable counter report
// useractivity.ErrUnsupported.
func IdleSampler() useractivity.Sampler {
	return newIdleSampler()
}
