package schemas

// TemperatureSchemas returns schemas for temperature conversion tools.
func TemperatureSchemas() map[string]ToolSchema {
	return map[string]ToolSchema{
		"convert_temperature": {
			Description: "Convert a temperature between celsius, fahrenheit and kelvin.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"value": map[string]any{
						"type":        "number",
						"description": "Temperature value to convert",
					},
					"from_unit": map[string]any{
						"type":        "string",
						"enum":        []string{"celsius", "fahrenheit", "kelvin"},
						"description": "Unit of the input value",
					},
					"to_unit": map[string]any{
						"type":        "string",
						"enum":        []string{"celsius", "fahrenheit", "kelvin"},
						"description": "Unit to convert to",
					},
				},
				"required": []string{"value", "from_unit", "to_unit"},
			},
		},
	}
}
