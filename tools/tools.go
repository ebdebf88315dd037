// Package tools provides the built-in toolkit of named callables that ship
// with the chain engine: basic arithmetic, temperature conversion and desktop
// notifications, plus a bridge for tools served over MCP. Each tool carries a
// JSON schema (see tools/schemas) so configuration surfaces and LLM providers
// can describe it.
package tools

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/callable"
)

// RegisterBuiltins registers every built-in tool with the registry.
func RegisterBuiltins(reg *callable.Registry, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "tools").Logger()

	builtins := []callable.Callable{
		additionCallable(),
		calculatorCallable(),
		temperatureCallable(),
		notificationCallable(logger),
	}

	for _, c := range builtins {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register builtin %s: %w", c.Name(), err)
		}
	}

	logger.Info().Int("count", len(builtins)).Msg("Registered built-in tools")
	return nil
}

// numberArg extracts a numeric parameter, accepting positional args first and
// falling back to a named kwarg. YAML and JSON decoders hand us a mix of int,
// int64 and float64, and config files sometimes quote numbers.
func numberArg(args []any, kwargs map[string]any, pos int, name string) (float64, error) {
	var raw any
	if pos < len(args) {
		raw = args[pos]
	} else if v, ok := kwargs[name]; ok {
		raw = v
	} else {
		return 0, fmt.Errorf("missing required parameter %q", name)
	}
	return toFloat(raw, name)
}

func toFloat(raw any, name string) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %q is not a number: %q", name, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("parameter %q has unsupported type %T", name, raw)
	}
}

// stringArg extracts a string parameter by position or name.
func stringArg(args []any, kwargs map[string]any, pos int, name string) (string, error) {
	var raw any
	if pos < len(args) {
		raw = args[pos]
	} else if v, ok := kwargs[name]; ok {
		raw = v
	} else {
		return "", fmt.Errorf("missing required parameter %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q is not a string (got %T)", name, raw)
	}
	return s, nil
}
