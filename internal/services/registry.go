package services

import (
	"coachhub_backend/internal/gateway"
	"coachhub_backend/internal/repositories"

	"gorm.io/gorm"
)

// Registry wires every service with its repositories. Handlers depend on
// this instead of constructing services themselves.
type Registry struct {
	Auth         AuthService
	Course       CourseService
	Enrollment   EnrollmentService
	Subscription SubscriptionService
	Notification NotificationService
}

func NewRegistry(db *gorm.DB, gatewayClient gateway.Client) *Registry {
	userRepo := repositories.NewUserRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	subscriptionSvc := NewSubscriptionService(subscriptionRepo, userRepo, notificationRepo, gatewayClient)

	return &Registry{
		Auth:         NewAuthService(userRepo),
		Course:       NewCourseService(courseRepo, subscriptionSvc),
		Enrollment:   NewEnrollmentService(enrollmentRepo, courseRepo),
		Subscription: subscriptionSvc,
		Notification: NewNotificationService(notificationRepo),
	}
}
