// api/util/notification_service.go

package util

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/ledgerdash/ledgerdash/api/logging"
)

type NotificationService struct {
	// Dependencies such as a message queue client would live here
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOperationOutcome surfaces a terminal operation outcome to interested
// operators. The current implementation logs; a real deployment would push to
// a queue or messaging channel.
func (n *NotificationService) NotifyOperationOutcome(ctx context.Context, kind, outcome, principal, errorKind, recordID string) error {
	if errorKind == "" {
		logger.Info("NOTIFICATION: Operation completed",
			zap.String("kind", kind),
			zap.String("outcome", outcome),
			zap.String("principal", principal),
			zap.String("recordID", recordID))
		return nil
	}

	logger.Warn("NOTIFICATION: Operation failed",
		zap.String("kind", kind),
		zap.String("outcome", outcome),
		zap.String("principal", principal),
		zap.String("errorKind", errorKind),
		zap.String("recordID", recordID))
	return nil
}
