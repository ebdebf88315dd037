package tools

import (
	"context"
	"fmt"

	"github.com/aschepis/backscratcher/chains/callable"
)

// temperatureCallable converts a temperature between celsius, fahrenheit and
// kelvin. Conversion goes through celsius as the common scale.
func temperatureCallable() callable.Callable {
	return callable.Func("convert_temperature", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		value, err := numberArg(args, kwargs, 0, "value")
		if err != nil {
			return nil, err
		}
		fromUnit, err := stringArg(args, kwargs, 1, "from_unit")
		if err != nil {
			return nil, err
		}
		toUnit, err := stringArg(args, kwargs, 2, "to_unit")
		if err != nil {
			return nil, err
		}

		celsius, err := toCelsius(value, fromUnit)
		if err != nil {
			return nil, err
		}
		return fromCelsius(celsius, toUnit)
	})
}

func toCelsius(value float64, unit string) (float64, error) {
	switch unit {
	case "celsius":
		return value, nil
	case "fahrenheit":
		return (value - 32) * 5 / 9, nil
	case "kelvin":
		return value - 273.15, nil
	default:
		return 0, fmt.Errorf("unknown temperature unit %q (want celsius, fahrenheit or kelvin)", unit)
	}
}

func fromCelsius(celsius float64, unit string) (float64, error) {
	switch unit {
	case "celsius":
		return celsius, nil
	case "fahrenheit":
		return celsius*9/5 + 32, nil
	case "kelvin":
		return celsius + 273.15, nil
	default:
		return 0, fmt.Errorf("unknown temperature unit %q (want celsius, fahrenheit or kelvin)", unit)
	}
}
