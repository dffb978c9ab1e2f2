package condition

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// GuardLinter syntax-checks guard strings using a CEL environment. It
// never evaluates a guard against real data — guards remain opaque
// labels used by choice selection and are never executed to decide
// whether a transition fires. Check results are cached per expression
// string.
type GuardLinter struct {
	env   *cel.Env
	mu    sync.RWMutex
	cache map[string]error
}

// NewGuardLinter creates a linter with a fresh compilation cache.
func NewGuardLinter() (*GuardLinter, error) {
	env, err := cel.NewEnv(
		cel.Variable("output", cel.DynType),
		cel.Variable("ctx", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &GuardLinter{env: env, cache: make(map[string]error)}, nil
}

// Check reports whether expr compiles as a CEL expression. An empty
// guard is always valid (it simply means "no guard").
func (g *GuardLinter) Check(expr string) error {
	if expr == "" {
		return nil
	}

	g.mu.RLock()
	cached, ok := g.cache[expr]
	g.mu.RUnlock()
	if ok {
		return cached
	}

	_, issues := g.env.Compile(expr)
	var err error
	if issues != nil && issues.Err() != nil {
		err = fmt.Errorf("invalid guard expression %q: %w", expr, issues.Err())
	}

	g.mu.Lock()
	g.cache[expr] = err
	g.mu.Unlock()

	return err
}
