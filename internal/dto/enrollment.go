package dto

import "time"

type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

type EnrollmentResponse struct {
	ID         string         `json:"id"`
	CourseID   string         `json:"course_id"`
	ClientID   string         `json:"client_id"`
	Status     string         `json:"status"`
	EnrolledAt time.Time      `json:"enrolled_at"`
	Course     CourseResponse `json:"course"`
}

type UpdateEnrollmentRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed dropped"`
}
