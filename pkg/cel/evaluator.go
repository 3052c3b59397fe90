package cel

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
)

const (
	VarInput  = "input"
	VarResult = "result"
)

// Evaluator compiles boolean expressions over a published input record and
// the result the engine returned for it. Both are exposed as JSON-shaped
// maps, so numbers are doubles.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarInput, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarResult, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return fmt.Errorf("expression must return bool, got %v", out)
	}

	return nil
}

func (e *Evaluator) CompileExpression(expression string) (cel.Program, error) {
	if err := e.ValidateExpression(expression); err != nil {
		return nil, err
	}

	ast, _ := e.env.Compile(expression)
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return program, nil
}

func (e *Evaluator) EvaluateBool(ctx context.Context, expression string, input, result map[string]interface{}) (bool, error) {
	program, err := e.CompileExpression(expression)
	if err != nil {
		return false, err
	}
	return evalBool(ctx, program, input, result)
}

func evalBool(ctx context.Context, program cel.Program, input, result map[string]interface{}) (bool, error) {
	if input == nil {
		input = map[string]interface{}{}
	}
	if result == nil {
		result = map[string]interface{}{}
	}

	out, _, err := program.ContextEval(ctx, map[string]interface{}{
		VarInput:  input,
		VarResult: result,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", out.Value())
	}

	return boolVal, nil
}

// InvariantSet is a named group of expressions compiled once and checked
// together.
type InvariantSet struct {
	names    []string
	programs map[string]cel.Program
}

func NewInvariantSet(e *Evaluator, expressions map[string]string) (*InvariantSet, error) {
	set := &InvariantSet{programs: make(map[string]cel.Program, len(expressions))}

	for name, expr := range expressions {
		program, err := e.CompileExpression(expr)
		if err != nil {
			return nil, fmt.Errorf("invariant %s: %w", name, err)
		}
		set.names = append(set.names, name)
		set.programs[name] = program
	}
	sort.Strings(set.names)

	return set, nil
}

func (s *InvariantSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Check returns the names of the invariants that evaluated to false, in
// name order. An evaluation error counts as a violation and is returned
// alongside.
func (s *InvariantSet) Check(ctx context.Context, input, result map[string]interface{}) ([]string, error) {
	var (
		violated []string
		firstErr error
	)

	for _, name := range s.names {
		ok, err := evalBool(ctx, s.programs[name], input, result)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("invariant %s: %w", name, err)
		}
		if !ok {
			violated = append(violated, name)
		}
	}

	return violated, firstErr
}
