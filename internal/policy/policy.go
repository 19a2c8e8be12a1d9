// Package policy evaluates the optional Rego protection policy that can
// veto lifecycle actions on individual instances.
package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/shotty/pkg/resource"
)

// Query is the rule every policy must define. It is a set of messages;
// a non-empty set denies the action.
const Query = "data.shotty.deny"

// Input is the document the policy sees as `input`.
type Input struct {
	Action   string            `json:"action"`
	Instance resource.Instance `json:"instance"`
}

// Decision is the policy outcome for one action on one instance.
type Decision struct {
	Allowed bool
	Reasons []string
}

// Guard decides whether an action may proceed.
type Guard interface {
	Check(ctx context.Context, action string, instance resource.Instance) (Decision, error)
}

// AllowAll is the guard used when no policy is configured.
type AllowAll struct{}

// Check always allows.
func (AllowAll) Check(context.Context, string, resource.Instance) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// Engine is a Guard backed by a compiled Rego module.
type Engine struct {
	name  string
	query rego.PreparedEvalQuery
}

// Load compiles the policy file at path.
func Load(ctx context.Context, path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return NewEngine(ctx, filepath.Base(path), string(data))
}

// NewEngine compiles a Rego module.
func NewEngine(ctx context.Context, name, module string) (*Engine, error) {
	prepared, err := rego.New(
		rego.Query(Query),
		rego.Module(name, module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy %s: %w", name, err)
	}

	log.Debug().Str("policy", name).Msg("policy loaded")
	return &Engine{name: name, query: prepared}, nil
}

// Check evaluates the policy for an action on an instance.
func (e *Engine) Check(ctx context.Context, action string, instance resource.Instance) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(Input{Action: action, Instance: instance}))
	if err != nil {
		return Decision{}, fmt.Errorf("evaluate policy %s: %w", e.name, err)
	}

	reasons := denyReasons(results)
	if len(reasons) > 0 {
		log.Info().
			Str("policy", e.name).
			Str("action", action).
			Str("instance_id", instance.ID).
			Strs("reasons", reasons).
			Msg("action denied by policy")
	}
	return Decision{Allowed: len(reasons) == 0, Reasons: reasons}, nil
}

// denyReasons flattens the deny set. An undefined rule yields no results.
func denyReasons(results rego.ResultSet) []string {
	var reasons []string
	for _, res := range results {
		for _, expr := range res.Expressions {
			values, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, v := range values {
				reasons = append(reasons, fmt.Sprint(v))
			}
		}
	}
	sort.Strings(reasons)
	return reasons
}
