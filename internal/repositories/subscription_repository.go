package repositories

import (
	"errors"
	"time"

	"coachhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrBillingNotFound      = errors.New("billing record not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
)

type SubscriptionRepository interface {
	// CoachSubscription operations
	Create(sub *models.CoachSubscription) error
	FindByID(id string) (*models.CoachSubscription, error)
	FindByCoachID(coachID string) (*models.CoachSubscription, error)
	Update(sub *models.CoachSubscription) error
	UpdateStatus(id string, status models.SubscriptionStatus) error
	Activate(id string, tier models.SubscriptionTier, cycle models.BillingCycle, startedAt, expiresAt time.Time) error
	FindLapsed(now time.Time) ([]models.CoachSubscription, error)
	DeleteStaleInactive(olderThan time.Time) (int64, error)

	// BillingHistory operations
	CreateBillingRecord(record *models.BillingHistory) error
	FindBillingByTxRef(txRef string) (*models.BillingHistory, error)
	MarkBillingPaid(txRef string, paidAt time.Time) error
	MarkBillingFailed(txRef string) error
	ListBillingByCoach(coachID string, page, pageSize int) ([]models.BillingHistory, int64, error)

	// Audit trail
	RecordChange(change *models.SubscriptionChange) error
	ListChanges(subscriptionID string) ([]models.SubscriptionChange, error)

	// Gateway transactions
	SaveTransaction(txn *models.Transaction) error
	FindTransactionByTxRef(txRef string) (*models.Transaction, error)

	// Admin stats
	GetStats() (*SubscriptionStats, error)
}

type SubscriptionStats struct {
	TotalSubscriptions int64
	ByStatus           map[string]int64
	ByTier             map[string]int64
	PaidRevenue        float64
}

type SubscriptionRepositoryImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &SubscriptionRepositoryImpl{db: db}
}

// CoachSubscription operations

func (r *SubscriptionRepositoryImpl) Create(sub *models.CoachSubscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepositoryImpl) FindByID(id string) (*models.CoachSubscription, error) {
	var sub models.CoachSubscription
	err := r.db.First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByCoachID(coachID string) (*models.CoachSubscription, error) {
	var sub models.CoachSubscription
	err := r.db.Where("coach_id = ?", coachID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) Update(sub *models.CoachSubscription) error {
	result := r.db.Model(sub).Updates(map[string]interface{}{
		"tier":                      sub.Tier,
		"billing_cycle":             sub.BillingCycle,
		"price":                     sub.Price,
		"currency":                  sub.Currency,
		"status":                    sub.Status,
		"is_trial":                  sub.IsTrial,
		"auto_renew":                sub.AutoRenew,
		"started_at":                sub.StartedAt,
		"expires_at":                sub.ExpiresAt,
		"trial_ends_at":             sub.TrialEndsAt,
		"next_billing_date":         sub.NextBillingDate,
		"paychangu_subscription_id": sub.GatewayRef,
		"updated_at":                time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) UpdateStatus(id string, status models.SubscriptionStatus) error {
	result := r.db.Model(&models.CoachSubscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Activate flips the row to active with the paid period in one update,
// so a verified payment is applied atomically.
func (r *SubscriptionRepositoryImpl) Activate(id string, tier models.SubscriptionTier, cycle models.BillingCycle, startedAt, expiresAt time.Time) error {
	result := r.db.Model(&models.CoachSubscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":            models.SubscriptionStatusActive,
		"tier":              tier,
		"billing_cycle":     cycle,
		"is_trial":          false,
		"started_at":        startedAt,
		"expires_at":        expiresAt,
		"next_billing_date": expiresAt,
		"trial_ends_at":     nil,
		"updated_at":        time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// FindLapsed returns rows whose persisted status still grants access but
// whose effective expiry has passed. The worker marks these expired.
func (r *SubscriptionRepositoryImpl) FindLapsed(now time.Time) ([]models.CoachSubscription, error) {
	var subs []models.CoachSubscription
	err := r.db.Where(
		"(status = ? AND expires_at IS NOT NULL AND expires_at <= ?) OR (status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?)",
		models.SubscriptionStatusActive, now,
		models.SubscriptionStatusTrial, now,
	).Order("expires_at ASC").Find(&subs).Error
	return subs, err
}

// DeleteStaleInactive garbage-collects inactive rows that never saw a
// payment and are older than the cutoff. Rows with any billing history
// are kept for audit.
func (r *SubscriptionRepositoryImpl) DeleteStaleInactive(olderThan time.Time) (int64, error) {
	result := r.db.Where(
		"status = ? AND created_at < ? AND id NOT IN (?)",
		models.SubscriptionStatusInactive, olderThan,
		r.db.Model(&models.BillingHistory{}).Select("subscription_id").Where("status = ?", models.BillingStatusPaid),
	).Delete(&models.CoachSubscription{})
	return result.RowsAffected, result.Error
}

// BillingHistory operations

func (r *SubscriptionRepositoryImpl) CreateBillingRecord(record *models.BillingHistory) error {
	return r.db.Create(record).Error
}

func (r *SubscriptionRepositoryImpl) FindBillingByTxRef(txRef string) (*models.BillingHistory, error) {
	var record models.BillingHistory
	err := r.db.Where("tx_ref = ?", txRef).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillingNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *SubscriptionRepositoryImpl) MarkBillingPaid(txRef string, paidAt time.Time) error {
	result := r.db.Model(&models.BillingHistory{}).Where("tx_ref = ?", txRef).Updates(map[string]interface{}{
		"status":     models.BillingStatusPaid,
		"paid_at":    paidAt,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBillingNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) MarkBillingFailed(txRef string) error {
	result := r.db.Model(&models.BillingHistory{}).Where("tx_ref = ?", txRef).Updates(map[string]interface{}{
		"status":      models.BillingStatusFailed,
		"retry_count": gorm.Expr("retry_count + 1"),
		"updated_at":  time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBillingNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) ListBillingByCoach(coachID string, page, pageSize int) ([]models.BillingHistory, int64, error) {
	var records []models.BillingHistory
	var total int64

	query := r.db.Model(&models.BillingHistory{}).Where("coach_id = ?", coachID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	return records, total, err
}

// Audit trail

func (r *SubscriptionRepositoryImpl) RecordChange(change *models.SubscriptionChange) error {
	return r.db.Create(change).Error
}

func (r *SubscriptionRepositoryImpl) ListChanges(subscriptionID string) ([]models.SubscriptionChange, error) {
	var changes []models.SubscriptionChange
	err := r.db.Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").Find(&changes).Error
	return changes, err
}

// Gateway transactions

func (r *SubscriptionRepositoryImpl) SaveTransaction(txn *models.Transaction) error {
	var existing models.Transaction
	err := r.db.Where("tx_ref = ?", txn.TxRef).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(txn).Error
	}
	if err != nil {
		return err
	}

	return r.db.Model(&existing).Updates(map[string]interface{}{
		"status":          txn.Status,
		"amount":          txn.Amount,
		"currency":        txn.Currency,
		"gateway_payload": txn.GatewayPayload,
		"verified_at":     txn.VerifiedAt,
		"updated_at":      time.Now(),
	}).Error
}

func (r *SubscriptionRepositoryImpl) FindTransactionByTxRef(txRef string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Where("tx_ref = ?", txRef).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// Admin stats

func (r *SubscriptionRepositoryImpl) GetStats() (*SubscriptionStats, error) {
	stats := &SubscriptionStats{
		ByStatus: make(map[string]int64),
		ByTier:   make(map[string]int64),
	}

	if err := r.db.Model(&models.CoachSubscription{}).Count(&stats.TotalSubscriptions).Error; err != nil {
		return nil, err
	}

	var statusCounts []struct {
		Status string
		Count  int64
	}
	if err := r.db.Model(&models.CoachSubscription{}).
		Select("status, COUNT(*) as count").
		Group("status").Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, sc := range statusCounts {
		stats.ByStatus[sc.Status] = sc.Count
	}

	var tierCounts []struct {
		Tier  string
		Count int64
	}
	if err := r.db.Model(&models.CoachSubscription{}).
		Select("tier, COUNT(*) as count").
		Group("tier").Scan(&tierCounts).Error; err != nil {
		return nil, err
	}
	for _, tc := range tierCounts {
		stats.ByTier[tc.Tier] = tc.Count
	}

	if err := r.db.Model(&models.BillingHistory{}).
		Where("status = ?", models.BillingStatusPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.PaidRevenue).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
