package dto

import "time"

// CreateSubscriptionRequest is the body of the checkout endpoint. Field
// names are camelCase to match the web client.
type CreateSubscriptionRequest struct {
	Tier         string `json:"tier" validate:"required,tier"`
	BillingCycle string `json:"billingCycle" validate:"required,billing_cycle"`
}

// CreateSubscriptionResponse is returned when a checkout session was
// created. The client redirects the browser to PaymentURL.
type CreateSubscriptionResponse struct {
	Success        bool   `json:"success"`
	PaymentURL     string `json:"payment_url"`
	TxRef          string `json:"tx_ref"`
	SubscriptionID string `json:"subscription_id"`
	BillingID      string `json:"billing_id,omitempty"`
	Message        string `json:"message"`
}

// WebhookPayload is what the gateway posts to the callback endpoint.
// Only TxRef is trusted; everything else is re-verified against the
// gateway before any state changes.
type WebhookPayload struct {
	TxRef     string  `json:"tx_ref"`
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	EventType string  `json:"event_type"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type SubscriptionResponse struct {
	ID              string     `json:"id"`
	CoachID         string     `json:"coach_id"`
	Tier            string     `json:"tier"`
	BillingCycle    string     `json:"billing_cycle"`
	Price           float64    `json:"price"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	IsActive        bool       `json:"is_active"`
	IsTrial         bool       `json:"is_trial"`
	AutoRenew       bool       `json:"auto_renew"`
	StartedAt       *time.Time `json:"started_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
	TrialEndsAt     *time.Time `json:"trial_ends_at"`
	NextBillingDate *time.Time `json:"next_billing_date"`
}

type BillingHistoryResponse struct {
	ID           string     `json:"id"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	TxRef        string     `json:"tx_ref"`
	Tier         string     `json:"tier"`
	BillingCycle string     `json:"billing_cycle"`
	PeriodStart  *time.Time `json:"period_start"`
	PeriodEnd    *time.Time `json:"period_end"`
	PaidAt       *time.Time `json:"paid_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type PricingEntry struct {
	Tier    string  `json:"tier"`
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

type PricingResponse struct {
	Currency string         `json:"currency"`
	Plans    []PricingEntry `json:"plans"`
}

// SubscriptionStatsResponse is the admin dashboard aggregate.
type SubscriptionStatsResponse struct {
	TotalSubscriptions int64            `json:"total_subscriptions"`
	ByStatus           map[string]int64 `json:"by_status"`
	ByTier             map[string]int64 `json:"by_tier"`
	PaidRevenue        float64          `json:"paid_revenue"`
}
