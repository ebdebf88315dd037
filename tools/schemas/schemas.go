// Package schemas contains tool schema definitions for the built-in chain
// tools. These schemas describe the input parameters of each tool so that
// configuration surfaces and LLM providers can present them.
package schemas

// ToolSchema represents a tool's description and JSON schema.
type ToolSchema struct {
	Description string
	Schema      map[string]any
}

// All returns all tool schemas from all categories.
func All() map[string]ToolSchema {
	schemas := make(map[string]ToolSchema)

	// Merge all category schemas
	for name, schema := range MathSchemas() {
		schemas[name] = schema
	}
	for name, schema := range TemperatureSchemas() {
		schemas[name] = schema
	}
	for name, schema := range NotificationSchemas() {
		schemas[name] = schema
	}

	return schemas
}
