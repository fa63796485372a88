package models

type UserStatus string
type UserRole string
type EnrollmentStatus string
type SubscriptionTier string
type BillingCycle string
type SubscriptionStatus string
type BillingStatus string
type TransactionStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleCoach  UserRole = "coach"
	UserRoleClient UserRole = "client"
	UserRoleAdmin  UserRole = "admin"

	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"

	TierBasic      SubscriptionTier = "basic"
	TierPremium    SubscriptionTier = "premium"
	TierEnterprise SubscriptionTier = "enterprise"

	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"

	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrial    SubscriptionStatus = "trial"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"

	BillingStatusPending BillingStatus = "pending"
	BillingStatusPaid    BillingStatus = "paid"
	BillingStatusFailed  BillingStatus = "failed"

	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusPaid    TransactionStatus = "paid"
	TransactionStatusFailed  TransactionStatus = "failed"
)
