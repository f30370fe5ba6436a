package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document a tool policy is evaluated against.
type Input struct {
	ToolName string         `json:"tool_name"`
	Args     map[string]any `json:"args"`
	Endpoint string         `json:"endpoint,omitempty"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the tool policy.
// The rule may produce either a bare decision string or an object
// {"decision": ..., "reason": ...}.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	if input.Args == nil {
		input.Args = map[string]any{}
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	switch val := results[0].Expressions[0].Value.(type) {
	case string:
		return val, "", nil
	case map[string]interface{}:
		decision, _ := val["decision"].(string)
		reason, _ := val["reason"].(string)
		if decision == "" {
			return DecisionAllow, "policy returned no decision", nil
		}
		return decision, reason, nil
	default:
		return DecisionAllow, "unexpected return type", nil
	}
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package tool_policy

default decision = {"decision": "allow", "reason": ""}

# The media service renders still images only.
decision = {"decision": "block", "reason": "video generation is not available"} {
	input.tool_name == "generateImage"
	input.args.kind == "video"
}
`
