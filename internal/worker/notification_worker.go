package worker

import (
	"strings"

	"go.uber.org/zap"
)

// Subscriber attaches its event handlers to the dispatcher.
type Subscriber interface {
	RegisterHandlers()
}

// StartNotificationWorker subscribes the post-commit notification handlers.
// Without a webhook URL only in-app rows are written.
func StartNotificationWorker(subscriber Subscriber, webhookURL string, logger *zap.Logger) {
	if subscriber == nil {
		return
	}
	subscriber.RegisterHandlers()
	logger.Info("notification handlers registered",
		zap.Bool("webhook_enabled", strings.TrimSpace(webhookURL) != ""))
}
