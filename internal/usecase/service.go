package usecase

import (
	"hall-booking/internal/data/repository"
	"hall-booking/pkg/utils"

	"go.uber.org/zap"
)

const DriverAMQP = "amqp"

type Service struct {
	Settlement   SettlementService
	Notification NotificationService
}

// NewService wires the use cases. push may be nil when FCM credentials are
// absent; queue is only used when the notify driver is amqp.
func NewService(repo *repository.Repository, config *utils.Config, push PushSender, queue Publisher, log *zap.Logger) *Service {
	notification := NewNotificationService(repo.User, push, log)

	var dispatcher NotificationDispatcher = notification
	if config.Notify.Driver == DriverAMQP && queue != nil {
		dispatcher = NewQueueDispatcher(queue)
	}

	settlement := NewSettlementService(repo.Settlement, dispatcher, SettlementOptions{
		PaymentSecret: config.Payment.KeySecret,
		AllowSkip:     config.Payment.AllowSkip,
		NotifyTimeout: config.Notify.Timeout,
	}, log)

	return &Service{
		Settlement:   settlement,
		Notification: notification,
	}
}
