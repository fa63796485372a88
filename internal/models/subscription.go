package models

import (
	"time"

	"gorm.io/datatypes"
)

// CoachSubscription is the single subscription row per coach. Status and
// expiry are reconciled lazily on read and by the background worker, so a
// row with Status "active" may already be past ExpiresAt.
type CoachSubscription struct {
	BaseModel
	CoachID         string             `gorm:"not null;uniqueIndex"`
	Tier            SubscriptionTier   `gorm:"not null"`
	BillingCycle    BillingCycle       `gorm:"not null"`
	Price           float64            `gorm:"not null;default:0"`
	Currency        string             `gorm:"not null;default:'MWK'"`
	Status          SubscriptionStatus `gorm:"not null;default:'inactive'"`
	IsTrial         bool               `gorm:"not null;default:false"`
	AutoRenew       bool               `gorm:"not null;default:true"`
	StartedAt       *time.Time
	ExpiresAt       *time.Time
	TrialEndsAt     *time.Time
	NextBillingDate *time.Time
	GatewayRef      string `gorm:"column:paychangu_subscription_id"`
}

func (CoachSubscription) TableName() string {
	return "coach_subscriptions"
}

type BillingHistory struct {
	BaseModel
	SubscriptionID string           `gorm:"not null;index"`
	CoachID        string           `gorm:"not null;index"`
	Amount         float64          `gorm:"not null"`
	Currency       string           `gorm:"not null;default:'MWK'"`
	Status         BillingStatus    `gorm:"not null;default:'pending'"`
	TxRef          string           `gorm:"index"`
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	PaidAt         *time.Time
	RetryCount     int              `gorm:"not null;default:0"`
	Tier           SubscriptionTier `gorm:"not null"`
	BillingCycle   BillingCycle     `gorm:"not null"`
}

func (BillingHistory) TableName() string {
	return "billing_history"
}

// SubscriptionChange is an append-only audit trail of lifecycle
// transitions. Writes are best effort and never fail the caller.
type SubscriptionChange struct {
	BaseModel
	SubscriptionID string             `gorm:"not null;index"`
	CoachID        string             `gorm:"not null;index"`
	FromStatus     SubscriptionStatus `gorm:"not null"`
	ToStatus       SubscriptionStatus `gorm:"not null"`
	ToTier         SubscriptionTier
	ToPrice        float64
	EffectiveDate  *time.Time
	Reason         string
	Metadata       datatypes.JSON
}

func (SubscriptionChange) TableName() string {
	return "subscription_changes"
}

// Transaction mirrors what the payment gateway reported for a tx_ref.
// The raw gateway payload is kept verbatim for dispute handling.
type Transaction struct {
	BaseModel
	TxRef          string            `gorm:"not null;uniqueIndex"`
	SubscriptionID string            `gorm:"index"`
	CoachID        string            `gorm:"index"`
	Amount         float64
	Currency       string
	Status         TransactionStatus `gorm:"not null;default:'pending'"`
	GatewayPayload datatypes.JSON
	VerifiedAt     *time.Time
}
