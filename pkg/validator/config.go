// Package validator implements structural and bounded-reachability
// checks: free-choice/fork/join structural rules plus a single
// breadth-first exploration of the marking graph, shared
// across the deadlock, reachability, liveness and boundedness checks.
package validator

import "github.com/lyzr/petrinet/pkg/model"

// Config holds the Validate configuration.
type Config struct {
	KBound           uint32
	MaxMillis        uint64
	Checks           map[model.CheckName]bool
	BoundednessBound uint32
}

// DefaultConfig returns the package defaults: all checks enabled.
func DefaultConfig() Config {
	return Config{
		KBound:           200,
		MaxMillis:        30_000,
		BoundednessBound: 1,
		Checks: map[model.CheckName]bool{
			model.CheckStructural:   true,
			model.CheckDeadlock:     true,
			model.CheckReachability: true,
			model.CheckLiveness:     true,
			model.CheckBoundedness:  true,
		},
	}
}

func (c Config) enabled(check model.CheckName) bool {
	if c.Checks == nil {
		return true
	}
	return c.Checks[check]
}
