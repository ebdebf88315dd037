package schemas

// MathSchemas returns schemas for arithmetic tools.
func MathSchemas() map[string]ToolSchema {
	return map[string]ToolSchema{
		"add": {
			Description: "Add two numbers and return their sum.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"x": map[string]any{
						"type":        "number",
						"description": "First addend",
					},
					"y": map[string]any{
						"type":        "number",
						"description": "Second addend",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		"calculate": {
			Description: "Perform a basic arithmetic operation on two operands. Supports add, subtract, multiply, divide, power and modulo.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"operation": map[string]any{
						"type":        "string",
						"enum":        []string{"add", "subtract", "multiply", "divide", "power", "modulo"},
						"description": "Arithmetic operation to perform",
					},
					"x": map[string]any{
						"type":        "number",
						"description": "Left operand",
					},
					"y": map[string]any{
						"type":        "number",
						"description": "Right operand",
					},
				},
				"required": []string{"operation", "x", "y"},
			},
		},
	}
}
