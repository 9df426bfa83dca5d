package predicate

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error

	// compiled CEL programs keyed by source
	programs sync.Map
)

func celEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("stdout", cel.StringType),
			cel.Variable("stderr", cel.StringType),
			cel.Variable("exit_code", cel.IntType),
		)
	})
	return env, envErr
}

func compileExpr(src string) (cel.Program, error) {
	if cached, ok := programs.Load(src); ok {
		return cached.(cel.Program), nil
	}
	if src == "" {
		return nil, fmt.Errorf("expression is empty")
	}

	e, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("CEL environment: %w", err)
	}

	ast, issues := e.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %v", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("CEL expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %v", err)
	}

	actual, _ := programs.LoadOrStore(src, program)
	return actual.(cel.Program), nil
}

func evalExpr(src string, out Output) (bool, error) {
	program, err := compileExpr(src)
	if err != nil {
		return false, err
	}

	result, _, err := program.Eval(map[string]interface{}{
		"stdout":    out.Stdout,
		"stderr":    out.Stderr,
		"exit_code": int64(out.ExitCode),
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %v", err)
	}

	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression must return bool, got %v", result.Type())
	}
	return b, nil
}
