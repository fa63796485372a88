package services

import (
	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/repositories"
)

type NotificationService interface {
	List(userID string, page, pageSize int) ([]models.Notification, int64, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID string) error
	UnreadCount(userID string) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(userID string, page, pageSize int) ([]models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.PersistenceError(err)
	}
	return notifications, total, nil
}

func (s *notificationService) MarkRead(userID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(notificationID, userID); err != nil {
		if err == repositories.ErrNotificationNotFound {
			return apperrors.NewNotFoundError("Notification not found")
		}
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(userID string) error {
	if err := s.notificationRepo.MarkAllRead(userID); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *notificationService) UnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return 0, apperrors.PersistenceError(err)
	}
	return count, nil
}
