package apperrors

// Error codes grouped by domain
const (
	// Authentication and authorization
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Validation
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidPlan      ErrorCode = "INVALID_PLAN"
	CodeWeakPassword     ErrorCode = "WEAK_PASSWORD"

	// Resources
	CodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	CodeCourseNotFound       ErrorCode = "COURSE_NOT_FOUND"
	CodeEnrollmentNotFound   ErrorCode = "ENROLLMENT_NOT_FOUND"
	CodeSubscriptionNotFound ErrorCode = "SUBSCRIPTION_NOT_FOUND"
	CodeBillingNotFound      ErrorCode = "BILLING_NOT_FOUND"

	// Business logic
	CodeEmailAlreadyExists  ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeAlreadyEnrolled     ErrorCode = "ALREADY_ENROLLED"
	CodeCourseNotPublished  ErrorCode = "COURSE_NOT_PUBLISHED"
	CodeSubscriptionActive  ErrorCode = "SUBSCRIPTION_ACTIVE"
	CodeInvalidTransition   ErrorCode = "INVALID_STATUS_TRANSITION"
	CodeNotCourseOwner      ErrorCode = "NOT_COURSE_OWNER"
	CodeInsufficientRole    ErrorCode = "INSUFFICIENT_ROLE"
	CodeSuspendedAccount    ErrorCode = "ACCOUNT_SUSPENDED"

	// System
	CodeConfiguration   ErrorCode = "CONFIGURATION_ERROR"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
	CodePersistence     ErrorCode = "PERSISTENCE_ERROR"
	CodeGatewayDown     ErrorCode = "GATEWAY_UNAVAILABLE"
	CodeGatewayRejected ErrorCode = "GATEWAY_REJECTED"
	CodeGatewayInvalid  ErrorCode = "GATEWAY_RESPONSE_INVALID"
)
