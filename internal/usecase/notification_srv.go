package usecase

import (
	"context"

	"hall-booking/internal/data/entity"
	"hall-booking/internal/data/repository"
	"hall-booking/pkg/fcm"

	"go.uber.org/zap"
)

type PushSender interface {
	Send(ctx context.Context, m fcm.Message) error
}

type NotificationService interface {
	Send(ctx context.Context, n entity.Notification) error
	NotificationDispatcher
}

type notificationService struct {
	users repository.UserRepository
	push  PushSender
	log   *zap.Logger
}

// NewNotificationService returns a service that pushes through FCM. A nil
// push sender means credentials were not configured; every Send then fails
// with a configuration error.
func NewNotificationService(users repository.UserRepository, push PushSender, log *zap.Logger) NotificationService {
	return &notificationService{
		users: users,
		push:  push,
		log:   log.With(zap.String("service", "notification")),
	}
}

func (s *notificationService) Send(ctx context.Context, n entity.Notification) error {
	const op = "send notification"

	if s.push == nil {
		s.log.Error("Push credentials are not configured")
		return newError(KindConfiguration, op, "Server configuration error", nil)
	}

	user, err := s.users.FindByID(ctx, n.UserID)
	if err != nil {
		return newError(KindStoreFailure, op, "Failed to load user", err)
	}
	if user == nil {
		return newError(KindNotFound, op, "User not found", nil)
	}
	if user.FCMToken == nil || *user.FCMToken == "" {
		return newError(KindUnprocessable, op, "User has no registered FCM token", nil)
	}

	err = s.push.Send(ctx, fcm.Message{
		Token: *user.FCMToken,
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data,
	})
	if err != nil {
		s.log.Warn("FCM send failed",
			zap.Error(err),
			zap.String("user_id", n.UserID.String()),
		)
		return newError(KindUpstream, op, "Failed to send notification", err)
	}

	s.log.Info("Notification sent", zap.String("user_id", n.UserID.String()))
	return nil
}

func (s *notificationService) Dispatch(ctx context.Context, n entity.Notification) error {
	return s.Send(ctx, n)
}
