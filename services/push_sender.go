package services

import (
	"github.com/google/uuid"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/utils"
)

// PushSender delivers a notification to a single recipient's device.
// Delivery is best effort; a failed push counts toward a partially_sent
// outcome but never fails the request that created the notification.
type PushSender interface {
	Send(recipient models.User, title, content string) error
}

// LogPushSender stands in for a real FCM/APNs integration. Each push is
// stamped with a message id so deliveries can be traced in the logs.
type LogPushSender struct{}

func (LogPushSender) Send(recipient models.User, title, content string) error {
	utils.InfoLogger.Printf("push %s -> user %d (%s): %s", uuid.NewString(), recipient.ID, recipient.Email, title)
	return nil
}
