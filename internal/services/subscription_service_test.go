package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/gateway"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/repositories"
)

// In-memory fakes. They honor the repository contracts closely enough
// for service-level behavior: sentinel errors, one subscription per
// coach, tx_ref lookups.

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateStatus(id string, status models.UserStatus) error {
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Status = status
	return nil
}

func (f *fakeUserRepo) ListByRole(role models.UserRole, page, pageSize int) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) CountByRole(role models.UserRole) (int64, error) {
	var count int64
	for _, u := range f.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct {
	notifications []*models.Notification
	failCreate    bool
}

func (f *fakeNotificationRepo) Create(n *models.Notification) error {
	if f.failCreate {
		return errors.New("notification insert refused")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(userID string, page, pageSize int) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) MarkRead(id, userID string) error {
	for _, n := range f.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(userID string) error {
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) CountUnread(userID string) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type fakeSubscriptionRepo struct {
	subs        map[string]*models.CoachSubscription
	billing     map[string]*models.BillingHistory
	changes     []*models.SubscriptionChange
	txns        map[string]*models.Transaction
	failBilling bool
	failChanges bool
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		subs:    make(map[string]*models.CoachSubscription),
		billing: make(map[string]*models.BillingHistory),
		txns:    make(map[string]*models.Transaction),
	}
}

func (f *fakeSubscriptionRepo) Create(sub *models.CoachSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.CreatedAt = time.Now()
	f.subs[sub.ID] = sub
	return nil
}

func (f *fakeSubscriptionRepo) FindByID(id string) (*models.CoachSubscription, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, repositories.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubscriptionRepo) FindByCoachID(coachID string) (*models.CoachSubscription, error) {
	for _, sub := range f.subs {
		if sub.CoachID == coachID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repositories.ErrSubscriptionNotFound
}

func (f *fakeSubscriptionRepo) Update(sub *models.CoachSubscription) error {
	if _, ok := f.subs[sub.ID]; !ok {
		return repositories.ErrSubscriptionNotFound
	}
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeSubscriptionRepo) UpdateStatus(id string, status models.SubscriptionStatus) error {
	sub, ok := f.subs[id]
	if !ok {
		return repositories.ErrSubscriptionNotFound
	}
	sub.Status = status
	return nil
}

func (f *fakeSubscriptionRepo) Activate(id string, tier models.SubscriptionTier, cycle models.BillingCycle, startedAt, expiresAt time.Time) error {
	sub, ok := f.subs[id]
	if !ok {
		return repositories.ErrSubscriptionNotFound
	}
	sub.Status = models.SubscriptionStatusActive
	sub.Tier = tier
	sub.BillingCycle = cycle
	sub.IsTrial = false
	sub.StartedAt = &startedAt
	sub.ExpiresAt = &expiresAt
	sub.NextBillingDate = &expiresAt
	sub.TrialEndsAt = nil
	return nil
}

func (f *fakeSubscriptionRepo) FindLapsed(now time.Time) ([]models.CoachSubscription, error) {
	var out []models.CoachSubscription
	for _, sub := range f.subs {
		if sub.Status == models.SubscriptionStatusActive && sub.ExpiresAt != nil && !sub.ExpiresAt.After(now) {
			out = append(out, *sub)
		}
		if sub.Status == models.SubscriptionStatusTrial && sub.TrialEndsAt != nil && !sub.TrialEndsAt.After(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) DeleteStaleInactive(olderThan time.Time) (int64, error) {
	var deleted int64
	for id, sub := range f.subs {
		if sub.Status != models.SubscriptionStatusInactive || !sub.CreatedAt.Before(olderThan) {
			continue
		}
		paid := false
		for _, b := range f.billing {
			if b.SubscriptionID == id && b.Status == models.BillingStatusPaid {
				paid = true
				break
			}
		}
		if !paid {
			delete(f.subs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeSubscriptionRepo) CreateBillingRecord(record *models.BillingHistory) error {
	if f.failBilling {
		return errors.New("billing insert refused")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now()
	f.billing[record.TxRef] = record
	return nil
}

func (f *fakeSubscriptionRepo) FindBillingByTxRef(txRef string) (*models.BillingHistory, error) {
	record, ok := f.billing[txRef]
	if !ok {
		return nil, repositories.ErrBillingNotFound
	}
	cp := *record
	return &cp, nil
}

func (f *fakeSubscriptionRepo) MarkBillingPaid(txRef string, paidAt time.Time) error {
	record, ok := f.billing[txRef]
	if !ok {
		return repositories.ErrBillingNotFound
	}
	record.Status = models.BillingStatusPaid
	record.PaidAt = &paidAt
	return nil
}

func (f *fakeSubscriptionRepo) MarkBillingFailed(txRef string) error {
	record, ok := f.billing[txRef]
	if !ok {
		return repositories.ErrBillingNotFound
	}
	record.Status = models.BillingStatusFailed
	record.RetryCount++
	return nil
}

func (f *fakeSubscriptionRepo) ListBillingByCoach(coachID string, page, pageSize int) ([]models.BillingHistory, int64, error) {
	var out []models.BillingHistory
	for _, record := range f.billing {
		if record.CoachID == coachID {
			out = append(out, *record)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSubscriptionRepo) RecordChange(change *models.SubscriptionChange) error {
	if f.failChanges {
		return errors.New("audit insert refused")
	}
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeSubscriptionRepo) ListChanges(subscriptionID string) ([]models.SubscriptionChange, error) {
	var out []models.SubscriptionChange
	for _, ch := range f.changes {
		if ch.SubscriptionID == subscriptionID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) SaveTransaction(txn *models.Transaction) error {
	f.txns[txn.TxRef] = txn
	return nil
}

func (f *fakeSubscriptionRepo) FindTransactionByTxRef(txRef string) (*models.Transaction, error) {
	txn, ok := f.txns[txRef]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return txn, nil
}

func (f *fakeSubscriptionRepo) GetStats() (*repositories.SubscriptionStats, error) {
	stats := &repositories.SubscriptionStats{
		ByStatus: make(map[string]int64),
		ByTier:   make(map[string]int64),
	}
	for _, sub := range f.subs {
		stats.TotalSubscriptions++
		stats.ByStatus[string(sub.Status)]++
		stats.ByTier[string(sub.Tier)]++
	}
	for _, b := range f.billing {
		if b.Status == models.BillingStatusPaid {
			stats.PaidRevenue += b.Amount
		}
	}
	return stats, nil
}

type fakeGateway struct {
	createFn func(ctx context.Context, req gateway.CheckoutRequest) (map[string]any, error)
	verifyFn func(ctx context.Context, txRef string) (*gateway.VerifyResult, error)
	lastReq  gateway.CheckoutRequest
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req gateway.CheckoutRequest) (map[string]any, error) {
	f.lastReq = req
	return f.createFn(ctx, req)
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, txRef string) (*gateway.VerifyResult, error) {
	return f.verifyFn(ctx, txRef)
}

// Test fixture

type subscriptionFixture struct {
	svc       SubscriptionService
	subRepo   *fakeSubscriptionRepo
	userRepo  *fakeUserRepo
	notifRepo *fakeNotificationRepo
	gw        *fakeGateway
	coachID   string
}

func newSubscriptionFixture(t *testing.T) *subscriptionFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	coach := &models.User{
		Email:    "coach@example.com",
		FullName: "Thandiwe Banda",
		Role:     models.UserRoleCoach,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, userRepo.Create(coach))

	subRepo := newFakeSubscriptionRepo()
	notifRepo := &fakeNotificationRepo{}
	gw := &fakeGateway{
		createFn: func(ctx context.Context, req gateway.CheckoutRequest) (map[string]any, error) {
			return map[string]any{
				"status": "success",
				"data":   map[string]any{"link": "https://checkout.paychangu.test/session"},
			}, nil
		},
		verifyFn: func(ctx context.Context, txRef string) (*gateway.VerifyResult, error) {
			return &gateway.VerifyResult{
				TxRef:    txRef,
				Status:   "success",
				Amount:   25000,
				Currency: "MWK",
				Raw:      map[string]any{"status": "success"},
			}, nil
		},
	}

	return &subscriptionFixture{
		svc:       NewSubscriptionService(subRepo, userRepo, notifRepo, gw),
		subRepo:   subRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		gw:        gw,
		coachID:   coach.ID,
	}
}

func TestCreateSubscription_NewCoach(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://checkout.paychangu.test/session", resp.PaymentURL)
	assert.True(t, strings.HasPrefix(resp.TxRef, "sub_"+resp.SubscriptionID+"_"))

	// Row created inactive; activation waits for the webhook.
	sub, err := fx.subRepo.FindByCoachID(fx.coachID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusInactive, sub.Status)
	assert.Equal(t, models.TierPremium, sub.Tier)
	assert.Equal(t, float64(25000), sub.Price)
	assert.True(t, sub.AutoRenew)
	assert.Equal(t, resp.TxRef, sub.GatewayRef)

	// Pending billing row carries the quoted amount and period window.
	record, err := fx.subRepo.FindBillingByTxRef(resp.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.BillingStatusPending, record.Status)
	assert.Equal(t, float64(25000), record.Amount)
	assert.Equal(t, "MWK", record.Currency)
	require.NotNil(t, record.PeriodEnd)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *record.PeriodEnd, time.Minute)

	// One audit row per successful checkout.
	changes, _ := fx.subRepo.ListChanges(sub.ID)
	require.Len(t, changes, 1)
	assert.Equal(t, "checkout created", changes[0].Reason)
	assert.Equal(t, models.TierPremium, changes[0].ToTier)
	assert.Equal(t, float64(25000), changes[0].ToPrice)

	// The gateway was asked for exactly the quoted amount.
	assert.Equal(t, float64(25000), fx.gw.lastReq.Amount)
	assert.Equal(t, resp.TxRef, fx.gw.lastReq.TxRef)
}

func TestCreateSubscription_StoresGatewayReference(t *testing.T) {
	fx := newSubscriptionFixture(t)
	fx.gw.createFn = func(ctx context.Context, req gateway.CheckoutRequest) (map[string]any, error) {
		return map[string]any{
			"status": "success",
			"data": map[string]any{
				"reference": "ref_9f3a",
				"link":      "https://checkout.paychangu.test/session",
			},
		}, nil
	}

	_, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})

	require.NoError(t, err)
	sub, err := fx.subRepo.FindByCoachID(fx.coachID)
	require.NoError(t, err)

	// The gateway's own reference takes precedence over the tx_ref echo.
	assert.Equal(t, "ref_9f3a", sub.GatewayRef)
}

func TestCreateSubscription_InvalidPlan(t *testing.T) {
	fx := newSubscriptionFixture(t)

	_, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "gold",
		BillingCycle: "monthly",
	})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeInvalidPlan, appErr.Code)
	assert.Equal(t, 400, appErr.HTTPCode)

	// Nothing persisted for an invalid plan.
	_, err = fx.subRepo.FindByCoachID(fx.coachID)
	assert.Equal(t, repositories.ErrSubscriptionNotFound, err)
}

func TestCreateSubscription_ConflictWhenActive(t *testing.T) {
	fx := newSubscriptionFixture(t)
	expires := time.Now().Add(10 * 24 * time.Hour)
	started := time.Now().Add(-5 * 24 * time.Hour)
	require.NoError(t, fx.subRepo.Create(&models.CoachSubscription{
		CoachID:      fx.coachID,
		Tier:         models.TierBasic,
		BillingCycle: models.BillingCycleMonthly,
		Status:       models.SubscriptionStatusActive,
		StartedAt:    &started,
		ExpiresAt:    &expires,
	}))

	_, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeSubscriptionActive, appErr.Code)
	assert.Equal(t, 409, appErr.HTTPCode)

	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, details["subscription_id"])
	assert.NotNil(t, details["expires_at"])
}

func TestCreateSubscription_ReusesExpiredRow(t *testing.T) {
	fx := newSubscriptionFixture(t)
	expired := time.Now().Add(-24 * time.Hour)
	require.NoError(t, fx.subRepo.Create(&models.CoachSubscription{
		CoachID:      fx.coachID,
		Tier:         models.TierBasic,
		BillingCycle: models.BillingCycleMonthly,
		Status:       models.SubscriptionStatusExpired,
		ExpiresAt:    &expired,
	}))

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "enterprise",
		BillingCycle: "yearly",
	})

	require.NoError(t, err)
	sub, err := fx.subRepo.FindByCoachID(fx.coachID)
	require.NoError(t, err)
	assert.Equal(t, resp.SubscriptionID, sub.ID)
	assert.Equal(t, models.SubscriptionStatusInactive, sub.Status)
	assert.Equal(t, models.TierEnterprise, sub.Tier)
	assert.Equal(t, models.BillingCycleYearly, sub.BillingCycle)
	assert.Nil(t, sub.ExpiresAt)
	assert.True(t, sub.AutoRenew)

	// One subscription row per coach, even across renewals.
	assert.Len(t, fx.subRepo.subs, 1)
}

func TestCreateSubscription_TrialConflictLeavesRowUntouched(t *testing.T) {
	fx := newSubscriptionFixture(t)
	trialEnd := time.Now().Add(5 * 24 * time.Hour)
	require.NoError(t, fx.subRepo.Create(&models.CoachSubscription{
		CoachID:      fx.coachID,
		Tier:         models.TierBasic,
		BillingCycle: models.BillingCycleMonthly,
		Status:       models.SubscriptionStatusTrial,
		IsTrial:      true,
		TrialEndsAt:  &trialEnd,
	}))

	_, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeSubscriptionActive, appErr.Code)

	sub, err := fx.subRepo.FindByCoachID(fx.coachID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusTrial, sub.Status)
	assert.Equal(t, models.TierBasic, sub.Tier)
	require.NotNil(t, sub.TrialEndsAt)
	assert.True(t, sub.TrialEndsAt.Equal(trialEnd))
}

func TestCreateSubscription_StaleActiveRowDoesNotConflict(t *testing.T) {
	fx := newSubscriptionFixture(t)
	lapsed := time.Now().Add(-48 * time.Hour)
	started := time.Now().AddDate(0, -1, -2)
	require.NoError(t, fx.subRepo.Create(&models.CoachSubscription{
		CoachID:      fx.coachID,
		Tier:         models.TierBasic,
		BillingCycle: models.BillingCycleMonthly,
		Status:       models.SubscriptionStatusActive,
		StartedAt:    &started,
		ExpiresAt:    &lapsed,
	}))

	// The row still says active, but its period is over. Checkout must
	// proceed and restart the lifecycle instead of returning a conflict.
	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})

	require.NoError(t, err)
	sub, err := fx.subRepo.FindByCoachID(fx.coachID)
	require.NoError(t, err)
	assert.Equal(t, resp.SubscriptionID, sub.ID)
	assert.Equal(t, models.SubscriptionStatusInactive, sub.Status)
	assert.Equal(t, models.TierPremium, sub.Tier)
	assert.Nil(t, sub.ExpiresAt)
	assert.Len(t, fx.subRepo.subs, 1)
}

func TestCreateSubscription_SecondCheckoutAfterActivationConflicts(t *testing.T) {
	fx := newSubscriptionFixture(t)

	first, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{TxRef: first.TxRef}))

	// The payment settled between the two calls, so the retry sees a
	// truly active subscription and stops.
	_, err = fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeSubscriptionActive, appErr.Code)
	assert.Equal(t, 409, appErr.HTTPCode)
}

func TestCreateSubscription_BillingInsertFailureDoesNotBlockCheckout(t *testing.T) {
	fx := newSubscriptionFixture(t)
	fx.subRepo.failBilling = true

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "basic",
		BillingCycle: "monthly",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.PaymentURL)
	assert.Empty(t, resp.BillingID)
}

func TestCreateSubscription_GatewayResponseWithoutURL(t *testing.T) {
	fx := newSubscriptionFixture(t)
	fx.gw.createFn = func(ctx context.Context, req gateway.CheckoutRequest) (map[string]any, error) {
		return map[string]any{"status": "success", "message": "queued"}, nil
	}

	_, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "basic",
		BillingCycle: "monthly",
	})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeGatewayInvalid, appErr.Code)
	assert.Equal(t, 500, appErr.HTTPCode)

	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"message", "status"}, details["response_keys"])

	// The pending billing row is failed, not left dangling.
	for _, record := range fx.subRepo.billing {
		assert.Equal(t, models.BillingStatusFailed, record.Status)
	}
}

func TestCreateSubscription_GatewayErrorPassedThrough(t *testing.T) {
	fx := newSubscriptionFixture(t)
	fx.gw.createFn = func(ctx context.Context, req gateway.CheckoutRequest) (map[string]any, error) {
		return nil, apperrors.ErrGatewayUnavailable
	}

	_, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "basic",
		BillingCycle: "monthly",
	})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeGatewayDown, appErr.Code)

	for _, record := range fx.subRepo.billing {
		assert.Equal(t, models.BillingStatusFailed, record.Status)
		assert.Equal(t, 1, record.RetryCount)
	}
}

func TestCreateSubscription_ClientCannotSubscribe(t *testing.T) {
	fx := newSubscriptionFixture(t)
	client := &models.User{Email: "client@example.com", FullName: "Client", Role: models.UserRoleClient}
	require.NoError(t, fx.userRepo.Create(client))

	_, err := fx.svc.CreateSubscription(context.Background(), client.ID, &dto.CreateSubscriptionRequest{
		Tier:         "basic",
		BillingCycle: "monthly",
	})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeInsufficientRole, appErr.Code)
}

func TestHandleGatewayCallback_ActivatesSubscription(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})
	require.NoError(t, err)

	err = fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{TxRef: resp.TxRef, Status: "success"})
	require.NoError(t, err)

	sub, err := fx.subRepo.FindByCoachID(fx.coachID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *sub.ExpiresAt, time.Minute)
	require.NotNil(t, sub.NextBillingDate)
	assert.True(t, sub.NextBillingDate.Equal(*sub.ExpiresAt))

	record, err := fx.subRepo.FindBillingByTxRef(resp.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.BillingStatusPaid, record.Status)
	require.NotNil(t, record.PaidAt)

	// Audit row and notification written.
	changes, _ := fx.subRepo.ListChanges(sub.ID)
	require.NotEmpty(t, changes)
	assert.Equal(t, models.SubscriptionStatusActive, changes[len(changes)-1].ToStatus)
	assert.NotEmpty(t, fx.notifRepo.notifications)

	// Verified transaction stored with the raw payload.
	txn, err := fx.subRepo.FindTransactionByTxRef(resp.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPaid, txn.Status)
}

func TestHandleGatewayCallback_YearlyPeriod(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "basic",
		BillingCycle: "yearly",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{TxRef: resp.TxRef}))

	sub, _ := fx.subRepo.FindByCoachID(fx.coachID)
	require.NotNil(t, sub.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(1, 0, 0), *sub.ExpiresAt, time.Minute)
}

func TestHandleGatewayCallback_FailedPayment(t *testing.T) {
	fx := newSubscriptionFixture(t)
	fx.gw.verifyFn = func(ctx context.Context, txRef string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{TxRef: txRef, Status: "failed", Raw: map[string]any{}}, nil
	}

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{TxRef: resp.TxRef, Status: "failed"}))

	sub, _ := fx.subRepo.FindByCoachID(fx.coachID)
	assert.Equal(t, models.SubscriptionStatusInactive, sub.Status)

	record, _ := fx.subRepo.FindBillingByTxRef(resp.TxRef)
	assert.Equal(t, models.BillingStatusFailed, record.Status)
}

func TestHandleGatewayCallback_ReplayIsIdempotent(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "premium",
		BillingCycle: "monthly",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{TxRef: resp.TxRef}))
	changesAfterFirst := len(fx.subRepo.changes)

	// Replay: verification must not run again, nothing changes.
	fx.gw.verifyFn = func(ctx context.Context, txRef string) (*gateway.VerifyResult, error) {
		t.Fatal("verification must not be called for a settled payment")
		return nil, nil
	}
	require.NoError(t, fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{TxRef: resp.TxRef}))
	assert.Equal(t, changesAfterFirst, len(fx.subRepo.changes))
}

func TestHandleGatewayCallback_UnknownTxRef(t *testing.T) {
	fx := newSubscriptionFixture(t)

	err := fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{TxRef: "sub_missing_1"})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeBillingNotFound, appErr.Code)
}

func TestHandleGatewayCallback_EmptyTxRef(t *testing.T) {
	fx := newSubscriptionFixture(t)

	err := fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestHandleGatewayCallback_ReferenceFallback(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.svc.CreateSubscription(context.Background(), fx.coachID, &dto.CreateSubscriptionRequest{
		Tier:         "basic",
		BillingCycle: "monthly",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.HandleGatewayCallback(context.Background(), &dto.WebhookPayload{Reference: resp.TxRef}))

	sub, _ := fx.subRepo.FindByCoachID(fx.coachID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
}

func TestExpireLapsed(t *testing.T) {
	fx := newSubscriptionFixture(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	lapsed := &models.CoachSubscription{CoachID: "c1", Tier: models.TierBasic, BillingCycle: models.BillingCycleMonthly, Status: models.SubscriptionStatusActive, ExpiresAt: &past}
	current := &models.CoachSubscription{CoachID: "c2", Tier: models.TierBasic, BillingCycle: models.BillingCycleMonthly, Status: models.SubscriptionStatusActive, ExpiresAt: &future}
	lapsedTrial := &models.CoachSubscription{CoachID: "c3", Tier: models.TierBasic, BillingCycle: models.BillingCycleMonthly, Status: models.SubscriptionStatusTrial, TrialEndsAt: &past}
	require.NoError(t, fx.subRepo.Create(lapsed))
	require.NoError(t, fx.subRepo.Create(current))
	require.NoError(t, fx.subRepo.Create(lapsedTrial))

	expired, err := fx.svc.ExpireLapsed(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	assert.Equal(t, models.SubscriptionStatusExpired, fx.subRepo.subs[lapsed.ID].Status)
	assert.Equal(t, models.SubscriptionStatusActive, fx.subRepo.subs[current.ID].Status)
	assert.Equal(t, models.SubscriptionStatusExpired, fx.subRepo.subs[lapsedTrial.ID].Status)
}

func TestCleanupStaleInactive(t *testing.T) {
	fx := newSubscriptionFixture(t)

	stale := &models.CoachSubscription{CoachID: "c1", Tier: models.TierBasic, BillingCycle: models.BillingCycleMonthly, Status: models.SubscriptionStatusInactive}
	require.NoError(t, fx.subRepo.Create(stale))
	fx.subRepo.subs[stale.ID].CreatedAt = time.Now().Add(-10 * 24 * time.Hour)

	fresh := &models.CoachSubscription{CoachID: "c2", Tier: models.TierBasic, BillingCycle: models.BillingCycleMonthly, Status: models.SubscriptionStatusInactive}
	require.NoError(t, fx.subRepo.Create(fresh))

	deleted, err := fx.svc.CleanupStaleInactive(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.NotContains(t, fx.subRepo.subs, stale.ID)
	assert.Contains(t, fx.subRepo.subs, fresh.ID)
}

func TestGetPricing(t *testing.T) {
	fx := newSubscriptionFixture(t)

	pricing := fx.svc.GetPricing()
	assert.Equal(t, "MWK", pricing.Currency)
	require.Len(t, pricing.Plans, 3)
	assert.Equal(t, "basic", pricing.Plans[0].Tier)
	assert.Equal(t, float64(10000), pricing.Plans[0].Monthly)
	assert.Equal(t, float64(1000000), pricing.Plans[2].Yearly)
}

func TestHasActiveSubscription(t *testing.T) {
	fx := newSubscriptionFixture(t)

	active, err := fx.svc.HasActiveSubscription(fx.coachID)
	require.NoError(t, err)
	assert.False(t, active)

	future := time.Now().Add(time.Hour)
	require.NoError(t, fx.subRepo.Create(&models.CoachSubscription{
		CoachID: fx.coachID, Tier: models.TierBasic, BillingCycle: models.BillingCycleMonthly,
		Status: models.SubscriptionStatusActive, ExpiresAt: &future,
	}))

	active, err = fx.svc.HasActiveSubscription(fx.coachID)
	require.NoError(t, err)
	assert.True(t, active)
}
