package schemas

// NotificationSchemas returns schemas for notification tools.
func NotificationSchemas() map[string]ToolSchema {
	return map[string]ToolSchema{
		"notify": {
			Description: "Display a desktop notification. Use this to alert the user that a chain has produced something worth their attention.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"message": map[string]any{
						"type":        "string",
						"description": "The notification message to display",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "Optional title for the notification (default: 'Chain Notification')",
					},
				},
				"required": []string{"message"},
			},
		},
	}
}
