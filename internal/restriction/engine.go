// Package restriction evaluates the CEL-based user-restriction rule set
// against the {ip, asn, user_agent} of an incoming write request.
package restriction

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/gobwas/glob"
)

var (
	ErrInvalidRuleExpr = errors.New("restriction: invalid rule expression")
	ErrRuleEvaluation  = errors.New("restriction: rule evaluation failed")
)

// RuleType names which check category a rule expression belongs to.
type RuleType string

const (
	TypeIP        RuleType = "ip"
	TypeASN       RuleType = "asn"
	TypeUserAgent RuleType = "user_agent"
)

// Rule is a single active restriction: if Expr evaluates true against the
// request context, the request is denied.
type Rule struct {
	Name   string
	Type   RuleType
	Value  string
	Expr   string
	Active bool
}

// CheckInput is the request-derived context a rule expression is evaluated
// against, bound to CEL variables ip, asn, and user_agent.
type CheckInput struct {
	IP        string
	ASN       int64
	UserAgent string
}

// Engine compiles and evaluates restriction-rule CEL expressions.
type Engine struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
	rules    map[string]Rule
}

// NewEngine builds an Engine with the ip/asn/user_agent variables and the
// glob/cidr_contains custom functions bound.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("ip", cel.StringType),
		cel.Variable("asn", cel.IntType),
		cel.Variable("user_agent", cel.StringType),
		cel.Function("glob",
			cel.Overload("glob_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(globMatch))),
		cel.Function("cidr_contains",
			cel.Overload("cidr_contains_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(cidrContains))),
	)
	if err != nil {
		return nil, fmt.Errorf("restriction: creating CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		programs: make(map[string]cel.Program),
		rules:    make(map[string]Rule),
	}, nil
}

// Load replaces the engine's active rule set, compiling every expression.
// A rule that fails to compile is skipped with an error appended to the
// returned slice rather than aborting the whole load.
func (e *Engine) Load(rules []Rule) []error {
	e.mu.Lock()
	defer e.mu.Unlock()

	programs := make(map[string]cel.Program, len(rules))
	byName := make(map[string]Rule, len(rules))
	var errs []error

	for _, r := range rules {
		if !r.Active {
			continue
		}
		ast, issues := e.env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			errs = append(errs, fmt.Errorf("%w: rule %q: %w", ErrInvalidRuleExpr, r.Name, issues.Err()))
			continue
		}
		program, err := e.env.Program(ast)
		if err != nil {
			errs = append(errs, fmt.Errorf("restriction: building program for rule %q: %w", r.Name, err))
			continue
		}
		programs[r.Name] = program
		byName[r.Name] = r
	}

	e.programs = programs
	e.rules = byName
	return errs
}

// Evaluate returns the first active rule whose expression matches input, or
// nil if none match. Rule iteration order is not guaranteed.
func (e *Engine) Evaluate(input CheckInput) (*Rule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	vars := map[string]any{
		"ip":         input.IP,
		"asn":        input.ASN,
		"user_agent": input.UserAgent,
	}

	for name, program := range e.programs {
		result, _, err := program.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q: %w", ErrRuleEvaluation, name, err)
		}
		matched, ok := result.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("%w: rule %q did not return a boolean", ErrRuleEvaluation, name)
		}
		if matched {
			rule := e.rules[name]
			return &rule, nil
		}
	}

	return nil, nil
}

func globMatch(lhs, rhs ref.Val) ref.Val {
	pattern, ok := rhs.Value().(string)
	if !ok {
		return types.NewErr("glob: pattern must be a string")
	}
	value, ok := lhs.Value().(string)
	if !ok {
		return types.NewErr("glob: value must be a string")
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return types.NewErr("glob: invalid pattern %q: %v", pattern, err)
	}

	return types.Bool(g.Match(value))
}

func cidrContains(lhs, rhs ref.Val) ref.Val {
	cidr, ok := lhs.Value().(string)
	if !ok {
		return types.NewErr("cidr_contains: cidr must be a string")
	}
	addr, ok := rhs.Value().(string)
	if !ok {
		return types.NewErr("cidr_contains: addr must be a string")
	}

	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return types.NewErr("cidr_contains: invalid CIDR %q: %v", cidr, err)
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return types.Bool(false)
	}

	return types.Bool(network.Contains(ip))
}
