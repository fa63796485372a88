package services

import (
	"context"
	"encoding/json"
	"time"

	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/billing"
	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/gateway"
	"coachhub_backend/internal/logger"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/repositories"

	"gorm.io/datatypes"
)

type SubscriptionService interface {
	// Checkout and reconciliation
	CreateSubscription(ctx context.Context, coachID string, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
	HandleGatewayCallback(ctx context.Context, payload *dto.WebhookPayload) error

	// Queries
	GetMySubscription(coachID string) (*dto.SubscriptionResponse, error)
	GetBillingHistory(coachID string, page, pageSize int) ([]dto.BillingHistoryResponse, int64, error)
	GetPricing() *dto.PricingResponse
	HasActiveSubscription(coachID string) (bool, error)

	// Admin operations
	GetStats() (*dto.SubscriptionStatsResponse, error)

	// Worker operations
	ExpireLapsed(now time.Time) (int, error)
	CleanupStaleInactive(now time.Time) (int64, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	gateway          gateway.Client
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	gatewayClient gateway.Client,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		gateway:          gatewayClient,
	}
}

// staleInactiveAge is how long an unpaid inactive row survives before
// the worker garbage-collects it.
const staleInactiveAge = 7 * 24 * time.Hour

// CreateSubscription starts a hosted checkout for the coach. The row is
// created (or reused) in inactive status before the gateway is called;
// activation happens only when the webhook verifies the payment.
//
// The existence check and the insert are intentionally not wrapped in a
// transaction. Two concurrent first-time checkouts can both pass the
// check; the unique index on coach_id makes the loser fail on insert,
// which surfaces as a persistence error rather than a double charge.
func (s *subscriptionService) CreateSubscription(ctx context.Context, coachID string, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	coach, err := s.userRepo.FindByID(coachID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.PersistenceError(err)
	}
	if coach.Role != models.UserRoleCoach {
		return nil, apperrors.ErrInsufficientRole.WithDetails("only coaches can subscribe")
	}

	tier := models.SubscriptionTier(req.Tier)
	cycle := models.BillingCycle(req.BillingCycle)
	amount, ok := billing.Price(tier, cycle)
	if !ok {
		return nil, apperrors.ErrInvalidPlan.WithDetails(map[string]string{
			"tier":         req.Tier,
			"billingCycle": req.BillingCycle,
		})
	}

	now := time.Now()

	sub, err := s.subscriptionRepo.FindByCoachID(coachID)
	switch {
	case err == repositories.ErrSubscriptionNotFound:
		sub = &models.CoachSubscription{
			CoachID:      coachID,
			Tier:         tier,
			BillingCycle: cycle,
			Price:        amount,
			Currency:     billing.Currency,
			Status:       models.SubscriptionStatusInactive,
			AutoRenew:    true,
		}
		if err := s.subscriptionRepo.Create(sub); err != nil {
			return nil, apperrors.PersistenceError(err)
		}
	case err != nil:
		return nil, apperrors.PersistenceError(err)
	default:
		if billing.IsTrulyActive(sub, now) {
			return nil, apperrors.ErrSubscriptionActive.WithDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"expires_at":      billing.EffectiveExpiry(sub),
			})
		}
		// Lapsed or never-paid row: repoint it at the requested plan and
		// reset every lifecycle field, exactly as if the old row had been
		// deleted and a fresh one inserted. A fresh checkout restarting
		// the lifecycle is the only way out of the terminal expired
		// status.
		prevStatus := sub.Status
		sub.Tier = tier
		sub.BillingCycle = cycle
		sub.Price = amount
		sub.Currency = billing.Currency
		sub.Status = models.SubscriptionStatusInactive
		sub.IsTrial = false
		sub.AutoRenew = true
		sub.StartedAt = nil
		sub.ExpiresAt = nil
		sub.TrialEndsAt = nil
		sub.NextBillingDate = nil
		sub.GatewayRef = ""
		if err := s.subscriptionRepo.Update(sub); err != nil {
			return nil, apperrors.PersistenceError(err)
		}
		if prevStatus != models.SubscriptionStatusInactive {
			s.recordChange(ctx, &models.CoachSubscription{
				BaseModel: sub.BaseModel,
				CoachID:   sub.CoachID,
				Status:    prevStatus,
			}, models.SubscriptionStatusInactive, "checkout restart", nil)
		}
	}

	txRef := billing.NewTxRef(sub.ID, now)
	periodEnd := billing.PeriodEnd(now, cycle)

	// The pending billing row is best effort. A checkout without it
	// still returns a payment URL; the later webhook for such a payment
	// finds no billing row and reports BILLING_NOT_FOUND instead of
	// activating anything.
	billingRecord := &models.BillingHistory{
		SubscriptionID: sub.ID,
		CoachID:        coachID,
		Amount:         amount,
		Currency:       billing.Currency,
		Status:         models.BillingStatusPending,
		TxRef:          txRef,
		PeriodStart:    &now,
		PeriodEnd:      &periodEnd,
		Tier:           tier,
		BillingCycle:   cycle,
	}
	billingInsert := billing.SideEffectFailed(s.subscriptionRepo.CreateBillingRecord(billingRecord))
	if !billingInsert.OK {
		logger.CtxWarn(ctx, "pending billing record insert failed",
			"tx_ref", txRef, "reason", billingInsert.Reason)
		billingRecord.ID = ""
	}

	resp, err := s.gateway.CreatePayment(ctx, gateway.CheckoutRequest{
		Amount:      amount,
		Currency:    billing.Currency,
		TxRef:       txRef,
		Email:       coach.Email,
		Name:        coach.FullName,
		Title:       string(tier) + " subscription",
		Description: string(cycle) + " billing for the " + string(tier) + " plan",
	})
	if err != nil {
		if billingRecord.ID != "" {
			s.failBilling(ctx, txRef)
		}
		return nil, err
	}

	paymentURL, keys, found := billing.ExtractCheckoutURL(resp)
	if !found {
		if billingRecord.ID != "" {
			s.failBilling(ctx, txRef)
		}
		return nil, apperrors.ErrGatewayResponseInvalid.WithDetails(map[string]interface{}{
			"response_keys": keys,
		})
	}

	// Store the reference the gateway minted for the session when it
	// returned one; older API versions only echo the tx_ref back.
	gatewayRef, ok := billing.ExtractGatewayRef(resp)
	if !ok {
		gatewayRef = txRef
	}
	sub.GatewayRef = gatewayRef
	if err := s.subscriptionRepo.Update(sub); err != nil {
		return nil, apperrors.PersistenceError(err)
	}

	checkoutChange := billing.SideEffectFailed(s.subscriptionRepo.RecordChange(&models.SubscriptionChange{
		SubscriptionID: sub.ID,
		CoachID:        coachID,
		FromStatus:     models.SubscriptionStatusInactive,
		ToStatus:       models.SubscriptionStatusInactive,
		ToTier:         tier,
		ToPrice:        amount,
		EffectiveDate:  &now,
		Reason:         "checkout created",
	}))
	if !checkoutChange.OK {
		logger.CtxWarn(ctx, "audit trail write failed", "tx_ref", txRef, "reason", checkoutChange.Reason)
	}

	return &dto.CreateSubscriptionResponse{
		Success:        true,
		PaymentURL:     paymentURL,
		TxRef:          txRef,
		SubscriptionID: sub.ID,
		BillingID:      billingRecord.ID,
		Message:        "Checkout session created, redirect the user to payment_url",
	}, nil
}

// HandleGatewayCallback reconciles a gateway callback against the
// gateway's own verification endpoint. The callback body is treated as
// a hint; only the verified state changes anything.
func (s *subscriptionService) HandleGatewayCallback(ctx context.Context, payload *dto.WebhookPayload) error {
	txRef := payload.TxRef
	if txRef == "" {
		txRef = payload.Reference
	}
	if txRef == "" {
		return apperrors.NewBadRequestError("Webhook payload carries no tx_ref")
	}

	billingRecord, err := s.subscriptionRepo.FindBillingByTxRef(txRef)
	if err != nil {
		if err == repositories.ErrBillingNotFound {
			return apperrors.ErrBillingNotFound.WithDetails(map[string]string{"tx_ref": txRef})
		}
		return apperrors.PersistenceError(err)
	}

	// Replayed callback for an already settled payment.
	if billingRecord.Status == models.BillingStatusPaid {
		logger.CtxInfo(ctx, "webhook replay for settled payment", "tx_ref", txRef)
		return nil
	}

	verification, err := s.gateway.VerifyTransaction(ctx, txRef)
	if err != nil {
		return err
	}

	now := time.Now()
	rawPayload, _ := json.Marshal(verification.Raw)
	txnStatus := models.TransactionStatusFailed
	if verification.Status == "success" || verification.Status == "successful" {
		txnStatus = models.TransactionStatusPaid
	}
	txnInsert := billing.SideEffectFailed(s.subscriptionRepo.SaveTransaction(&models.Transaction{
		TxRef:          txRef,
		SubscriptionID: billingRecord.SubscriptionID,
		CoachID:        billingRecord.CoachID,
		Amount:         verification.Amount,
		Currency:       verification.Currency,
		Status:         txnStatus,
		GatewayPayload: datatypes.JSON(rawPayload),
		VerifiedAt:     &now,
	}))
	if !txnInsert.OK {
		logger.CtxWarn(ctx, "transaction record save failed", "tx_ref", txRef, "reason", txnInsert.Reason)
	}

	if txnStatus != models.TransactionStatusPaid {
		if err := s.subscriptionRepo.MarkBillingFailed(txRef); err != nil {
			return apperrors.PersistenceError(err)
		}
		logger.CtxInfo(ctx, "payment failed at gateway", "tx_ref", txRef, "status", verification.Status)
		return nil
	}

	sub, err := s.subscriptionRepo.FindByID(billingRecord.SubscriptionID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			return apperrors.ErrSubscriptionNotFound.WithDetails(map[string]string{"tx_ref": txRef})
		}
		return apperrors.PersistenceError(err)
	}

	if !billing.CanTransition(sub.Status, models.SubscriptionStatusActive) {
		return apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"from": string(sub.Status),
			"to":   string(models.SubscriptionStatusActive),
		})
	}

	periodEnd := billing.PeriodEnd(now, billingRecord.BillingCycle)
	if err := s.subscriptionRepo.Activate(sub.ID, billingRecord.Tier, billingRecord.BillingCycle, now, periodEnd); err != nil {
		return apperrors.PersistenceError(err)
	}
	if err := s.subscriptionRepo.MarkBillingPaid(txRef, now); err != nil {
		return apperrors.PersistenceError(err)
	}

	s.recordChange(ctx, sub, models.SubscriptionStatusActive, "payment verified", map[string]interface{}{
		"tx_ref": txRef,
		"amount": verification.Amount,
	})
	s.notify(ctx, sub.CoachID, "subscription_activated", "Subscription activated",
		"Your "+string(billingRecord.Tier)+" subscription is active until "+periodEnd.Format("2006-01-02"))

	logger.CtxInfo(ctx, "subscription activated",
		"subscription_id", sub.ID, "tier", billingRecord.Tier, "expires_at", periodEnd)
	return nil
}

// Queries

func (s *subscriptionService) GetMySubscription(coachID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByCoachID(coachID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.PersistenceError(err)
	}
	return toSubscriptionResponse(sub, time.Now()), nil
}

func (s *subscriptionService) GetBillingHistory(coachID string, page, pageSize int) ([]dto.BillingHistoryResponse, int64, error) {
	records, total, err := s.subscriptionRepo.ListBillingByCoach(coachID, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.PersistenceError(err)
	}

	result := make([]dto.BillingHistoryResponse, 0, len(records))
	for _, rec := range records {
		result = append(result, dto.BillingHistoryResponse{
			ID:           rec.ID,
			Amount:       rec.Amount,
			Currency:     rec.Currency,
			Status:       string(rec.Status),
			TxRef:        rec.TxRef,
			Tier:         string(rec.Tier),
			BillingCycle: string(rec.BillingCycle),
			PeriodStart:  rec.PeriodStart,
			PeriodEnd:    rec.PeriodEnd,
			PaidAt:       rec.PaidAt,
			CreatedAt:    rec.CreatedAt,
		})
	}
	return result, total, nil
}

func (s *subscriptionService) GetPricing() *dto.PricingResponse {
	resp := &dto.PricingResponse{Currency: billing.Currency}
	for _, tier := range []models.SubscriptionTier{models.TierBasic, models.TierPremium, models.TierEnterprise} {
		monthly, _ := billing.Price(tier, models.BillingCycleMonthly)
		yearly, _ := billing.Price(tier, models.BillingCycleYearly)
		resp.Plans = append(resp.Plans, dto.PricingEntry{
			Tier:    string(tier),
			Monthly: monthly,
			Yearly:  yearly,
		})
	}
	return resp
}

func (s *subscriptionService) HasActiveSubscription(coachID string) (bool, error) {
	sub, err := s.subscriptionRepo.FindByCoachID(coachID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			return false, nil
		}
		return false, apperrors.PersistenceError(err)
	}
	return billing.IsTrulyActive(sub, time.Now()), nil
}

// Admin operations

func (s *subscriptionService) GetStats() (*dto.SubscriptionStatsResponse, error) {
	stats, err := s.subscriptionRepo.GetStats()
	if err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return &dto.SubscriptionStatsResponse{
		TotalSubscriptions: stats.TotalSubscriptions,
		ByStatus:           stats.ByStatus,
		ByTier:             stats.ByTier,
		PaidRevenue:        stats.PaidRevenue,
	}, nil
}

// Worker operations

// ExpireLapsed marks every subscription whose effective expiry has
// passed as expired and returns how many were flipped.
func (s *subscriptionService) ExpireLapsed(now time.Time) (int, error) {
	lapsed, err := s.subscriptionRepo.FindLapsed(now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range lapsed {
		sub := &lapsed[i]
		if !billing.CanTransition(sub.Status, models.SubscriptionStatusExpired) {
			continue
		}
		if err := s.subscriptionRepo.UpdateStatus(sub.ID, models.SubscriptionStatusExpired); err != nil {
			logger.Warn("failed to expire subscription",
				"worker", "subscription-expiry", "subscription_id", sub.ID, "error", err)
			continue
		}
		expired++
		s.recordChange(context.Background(), sub, models.SubscriptionStatusExpired, "expiry sweep", nil)
		s.notify(context.Background(), sub.CoachID, "subscription_expired", "Subscription expired",
			"Your "+string(sub.Tier)+" subscription has expired. Renew to keep publishing courses.")
	}
	return expired, nil
}

func (s *subscriptionService) CleanupStaleInactive(now time.Time) (int64, error) {
	return s.subscriptionRepo.DeleteStaleInactive(now.Add(-staleInactiveAge))
}

// Helpers

// failBilling flips the pending billing row to failed after a gateway
// failure. Best effort: the checkout already failed, a stuck pending row
// only costs the cleanup sweep a little work.
func (s *subscriptionService) failBilling(ctx context.Context, txRef string) {
	if err := s.subscriptionRepo.MarkBillingFailed(txRef); err != nil {
		logger.CtxWarn(ctx, "failed to mark billing record failed", "tx_ref", txRef, "error", err)
	}
}

func (s *subscriptionService) recordChange(ctx context.Context, sub *models.CoachSubscription, to models.SubscriptionStatus, reason string, meta map[string]interface{}) {
	var metaJSON datatypes.JSON
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			metaJSON = datatypes.JSON(b)
		}
	}
	effect := billing.SideEffectFailed(s.subscriptionRepo.RecordChange(&models.SubscriptionChange{
		SubscriptionID: sub.ID,
		CoachID:        sub.CoachID,
		FromStatus:     sub.Status,
		ToStatus:       to,
		Reason:         reason,
		Metadata:       metaJSON,
	}))
	if !effect.OK {
		logger.CtxWarn(ctx, "audit trail write failed",
			"subscription_id", sub.ID, "reason", effect.Reason)
	}
}

func (s *subscriptionService) notify(ctx context.Context, userID, kind, title, message string) {
	effect := billing.SideEffectFailed(s.notificationRepo.Create(&models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}))
	if !effect.OK {
		logger.CtxWarn(ctx, "notification write failed", "user_id", userID, "reason", effect.Reason)
	}
}

func toSubscriptionResponse(sub *models.CoachSubscription, now time.Time) *dto.SubscriptionResponse {
	return &dto.SubscriptionResponse{
		ID:              sub.ID,
		CoachID:         sub.CoachID,
		Tier:            string(sub.Tier),
		BillingCycle:    string(sub.BillingCycle),
		Price:           sub.Price,
		Currency:        sub.Currency,
		Status:          string(sub.Status),
		IsActive:        billing.IsTrulyActive(sub, now),
		IsTrial:         sub.IsTrial,
		AutoRenew:       sub.AutoRenew,
		StartedAt:       sub.StartedAt,
		ExpiresAt:       sub.ExpiresAt,
		TrialEndsAt:     sub.TrialEndsAt,
		NextBillingDate: sub.NextBillingDate,
	}
}
