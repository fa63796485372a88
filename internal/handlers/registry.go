package handlers

import (
	"coachhub_backend/internal/services"
	"coachhub_backend/internal/validator"
)

// Registry holds every HTTP handler, constructed once at startup.
type Registry struct {
	Auth         *AuthHandler
	Course       *CourseHandler
	Enrollment   *EnrollmentHandler
	Subscription *SubscriptionHandler
	Notification *NotificationHandler
}

func NewRegistry(svcs *services.Registry, v *validator.Validator) *Registry {
	base := NewBaseHandler(v)

	return &Registry{
		Auth:         NewAuthHandler(base, svcs.Auth),
		Course:       NewCourseHandler(base, svcs.Course),
		Enrollment:   NewEnrollmentHandler(base, svcs.Enrollment),
		Subscription: NewSubscriptionHandler(base, svcs.Subscription),
		Notification: NewNotificationHandler(base, svcs.Notification),
	}
}
