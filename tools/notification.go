package tools

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/callable"
)

const defaultNotificationTitle = "Chain Notification"

// notificationCallable displays a desktop notification. beeep uses the
// platform's native notification mechanism (UserNotifications on macOS,
// notify-send on Linux).
func notificationCallable(logger zerolog.Logger) callable.Callable {
	return callable.Func("notify", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		message, err := stringArg(args, kwargs, 0, "message")
		if err != nil {
			return nil, err
		}
		if message == "" {
			return nil, fmt.Errorf("message cannot be empty")
		}

		title := defaultNotificationTitle
		if t, ok := kwargs["title"].(string); ok && t != "" {
			title = t
		}

		if err := beeep.Notify(title, message, ""); err != nil {
			logger.Error().Err(err).Str("title", title).Msg("Failed to send desktop notification")
			return nil, fmt.Errorf("failed to send desktop notification: %w", err)
		}

		logger.Info().Str("title", title).Str("message", message).Msg("Sent desktop notification")
		return message, nil
	})
}
