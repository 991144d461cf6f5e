package usecase

import (
	"context"

	"hall-booking/internal/data/entity"
)

const notificationKeyPrefix = "notification."

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type queueDispatcher struct {
	pub Publisher
}

// NewQueueDispatcher hands notifications to a message broker instead of
// calling FCM in-process. Messages are routed by their data "type".
func NewQueueDispatcher(pub Publisher) NotificationDispatcher {
	return &queueDispatcher{pub: pub}
}

func (d *queueDispatcher) Dispatch(ctx context.Context, n entity.Notification) error {
	key := notificationKeyPrefix + "push"
	if t := n.Data["type"]; t != "" {
		key = notificationKeyPrefix + t
	}
	return d.pub.PublishJSON(ctx, key, n)
}
