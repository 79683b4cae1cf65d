package repository

import (
	"context"

	"gorm.io/gorm"

	"journeyinbox/internal/models"
)

// AccountRepository defines methods for accessing accounts. Accounts are
// always returned with their User loaded.
type AccountRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Account, error)
	FindByStripeCustomer(ctx context.Context, customerID string) (*models.Account, error)
	// List returns the accounts matching e, ordered by id.
	List(ctx context.Context, e models.Eligibility) ([]models.Account, error)
	CountByStatus(ctx context.Context, status models.AccountStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error
	SetStripeCustomer(ctx context.Context, id uint, customerID string) error
	MarkVerified(ctx context.Context, userID uint) error
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) withUser(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User")
}

func (r *accountRepo) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	return r.take(ctx, "get account", "id = ?", id)
}

func (r *accountRepo) GetByUserID(ctx context.Context, userID uint) (*models.Account, error) {
	return r.take(ctx, "get account by user", "user_id = ?", userID)
}

func (r *accountRepo) FindByStripeCustomer(ctx context.Context, customerID string) (*models.Account, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.take(ctx, "get account by stripe customer", "stripe_customer_id = ?", customerID)
}

// take returns nil, nil when nothing matches.
func (r *accountRepo) take(ctx context.Context, op string, query string, args ...interface{}) (*models.Account, error) {
	var account models.Account
	err := r.withUser(ctx).Where(query, args...).Take(&account).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &account, nil
}

func (r *accountRepo) List(ctx context.Context, e models.Eligibility) ([]models.Account, error) {
	var accounts []models.Account
	q := r.withUser(ctx).Where("status IN ?", e.Statuses)
	if e.RequireVerified {
		q = q.Where("verified = ?", true)
	}
	if err := q.Order("id").Find(&accounts).Error; err != nil {
		return nil, storageErr("list accounts", err)
	}
	return accounts, nil
}

func (r *accountRepo) CountByStatus(ctx context.Context, status models.AccountStatus) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, storageErr("count accounts", err)
	}
	return n, nil
}

func (r *accountRepo) UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error {
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return storageErr("update account status", err)
	}
	return nil
}

func (r *accountRepo) SetStripeCustomer(ctx context.Context, id uint, customerID string) error {
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("stripe_customer_id", customerID).Error
	if err != nil {
		return storageErr("set stripe customer", err)
	}
	return nil
}

func (r *accountRepo) MarkVerified(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ? AND verified = ?", userID, false).
		Update("verified", true).Error
	if err != nil {
		return storageErr("mark account verified", err)
	}
	return nil
}
