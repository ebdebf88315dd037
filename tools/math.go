package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/aschepis/backscratcher/chains/callable"
)

// additionCallable adds two numbers. The oldest tool in the box.
func additionCallable() callable.Callable {
	return callable.Func("add", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		x, err := numberArg(args, kwargs, 0, "x")
		if err != nil {
			return nil, err
		}
		y, err := numberArg(args, kwargs, 1, "y")
		if err != nil {
			return nil, err
		}
		return x + y, nil
	})
}

// calculatorCallable performs a basic arithmetic operation on two operands.
func calculatorCallable() callable.Callable {
	return callable.Func("calculate", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		op, err := stringArg(args, kwargs, 0, "operation")
		if err != nil {
			return nil, err
		}
		x, err := numberArg(args, kwargs, 1, "x")
		if err != nil {
			return nil, err
		}
		y, err := numberArg(args, kwargs, 2, "y")
		if err != nil {
			return nil, err
		}

		switch op {
		case "add":
			return x + y, nil
		case "subtract":
			return x - y, nil
		case "multiply":
			return x * y, nil
		case "divide":
			if y == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return x / y, nil
		case "power":
			return math.Pow(x, y), nil
		case "modulo":
			if y == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return math.Mod(x, y), nil
		default:
			return nil, fmt.Errorf("unknown operation %q (want add, subtract, multiply, divide, power or modulo)", op)
		}
	})
}
