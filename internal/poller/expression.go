package poller

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// StatusExpression derives a status from the sensor flags when the device
// sends an empty one. It is opt-in through device.status_expression. Without
// it the reported status is stored verbatim, empty or unknown values included.
// With it an empty status is replaced before the record is stored; non-empty
// values are never touched.
type StatusExpression struct {
	source  string
	program *vm.Program
}

func expressionEnv(r SensorReadings) map[string]interface{} {
	active := 0
	for _, on := range []bool{r.IR1, r.IR2, r.IR3, r.Ultrasonic} {
		if on {
			active++
		}
	}
	return map[string]interface{}{
		"ir1":        r.IR1,
		"ir2":        r.IR2,
		"ir3":        r.IR3,
		"ultrasonic": r.Ultrasonic,
		"active":     active,
	}
}

// CompileStatusExpression compiles source. An empty source returns nil.
func CompileStatusExpression(source string) (*StatusExpression, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	program, err := expr.Compile(trimmed, expr.Env(expressionEnv(SensorReadings{})), expr.AsKind(reflect.String))
	if err != nil {
		return nil, fmt.Errorf("compile status expression: %w", err)
	}
	return &StatusExpression{source: trimmed, program: program}, nil
}

// String returns the expression source.
func (s *StatusExpression) String() string {
	if s == nil {
		return ""
	}
	return s.source
}

// Evaluate runs the expression against the readings.
func (s *StatusExpression) Evaluate(r SensorReadings) (string, error) {
	out, err := expr.Run(s.program, expressionEnv(r))
	if err != nil {
		return "", fmt.Errorf("evaluate status expression: %w", err)
	}
	status, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("status expression returned %T, want string", out)
	}
	return status, nil
}
