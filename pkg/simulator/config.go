// Package simulator implements deterministic and interactive token
// firing over a validated PetriNet, producing a
// reproducible Trace.
package simulator

import "time"

// Mode selects between deterministic and caller-driven firing.
type Mode string

const (
	ModeDeterministic Mode = "deterministic"
	ModeInteractive   Mode = "interactive"
)

// Config holds the Simulate configuration, plus StepDelay. StepDelay
// is not read by Simulate or by Stepper (a real sleep would break
// Simulate's status as a pure function of (net, cfg)).
type Config struct {
	Mode      Mode
	Seed      uint64
	MaxSteps  uint32
	StepDelay time.Duration
	Trace     bool
}

// DefaultConfig returns the package defaults.
func DefaultConfig() Config {
	return Config{
		Mode:     ModeDeterministic,
		Seed:     0,
		MaxSteps: 1000,
		Trace:    true,
	}
}
