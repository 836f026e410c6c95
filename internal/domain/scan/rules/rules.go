// Package rules evaluates per-store scan acceptance expressions.
// Stores configure a CEL expression (settings key "scan_rule") over the
// candidate device ID; an empty expression accepts everything.
package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// Rule is a compiled acceptance expression.
type Rule struct {
	expr string
	prg  cel.Program
}

// Expr returns the source expression.
func (r *Rule) Expr() string { return r.expr }

// Allow evaluates the rule against a device ID. A rule that fails to
// evaluate, or evaluates to a non-bool, rejects the candidate.
func (r *Rule) Allow(deviceID string) (bool, error) {
	if r == nil || r.prg == nil {
		return true, nil
	}

	out, _, err := r.prg.Eval(map[string]any{"id": deviceID})
	if err != nil {
		return false, fmt.Errorf("evaluate scan rule: %w", err)
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("scan rule %q did not evaluate to bool", r.expr)
	}
	return ok, nil
}

// Engine compiles and caches store scan rules.
type Engine struct {
	env *cel.Env

	mu    sync.RWMutex
	cache map[string]*Rule // expression -> compiled rule
}

// NewEngine creates a rule engine with the device-ID environment.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	return &Engine{
		env:   env,
		cache: make(map[string]*Rule),
	}, nil
}

// Compile returns the compiled rule for an expression. An empty
// expression returns nil, which Allow treats as accept-all. Compiled
// programs are cached by expression text, so stores sharing a rule
// share the program.
func (e *Engine) Compile(expr string) (*Rule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	e.mu.RLock()
	r, ok := e.cache[expr]
	e.mu.RUnlock()
	if ok {
		return r, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile scan rule %q: %w", expr, issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build scan rule program: %w", err)
	}

	r = &Rule{expr: expr, prg: prg}

	e.mu.Lock()
	e.cache[expr] = r
	e.mu.Unlock()

	return r, nil
}

// Allow compiles the expression (cache hit in the common case) and
// evaluates it in one call.
func (e *Engine) Allow(expr, deviceID string) (bool, error) {
	r, err := e.Compile(expr)
	if err != nil {
		return false, err
	}
	return r.Allow(deviceID)
}
