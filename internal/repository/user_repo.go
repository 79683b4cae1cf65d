package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"journeyinbox/internal/models"
)

// ErrEmailTaken is returned when signing up with an address that already has a user.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository defines methods for accessing users.
type UserRepository interface {
	// Create inserts a user; its trialing account is created with it.
	Create(ctx context.Context, email string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// SetLoginNonce replaces the user's outstanding login link nonce.
	SetLoginNonce(ctx context.Context, id uint, nonce string) error
	// ConsumeLoginNonce clears nonce if it is the outstanding one and
	// reports whether it was. Only one caller can consume a given nonce.
	ConsumeLoginNonce(ctx context.Context, id uint, nonce string) (bool, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, email string) (*models.User, error) {
	user := models.User{Email: normalizeEmail(email)}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, storageErr("create user", err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user by email", err)
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Take(&user, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &user, nil
}

func (r *userRepo) SetLoginNonce(ctx context.Context, id uint, nonce string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("login_nonce", nonce).Error
	if err != nil {
		return storageErr("set login nonce", err)
	}
	return nil
}

func (r *userRepo) ConsumeLoginNonce(ctx context.Context, id uint, nonce string) (bool, error) {
	if nonce == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND login_nonce = ?", id, nonce).
		Update("login_nonce", "")
	if res.Error != nil {
		return false, storageErr("consume login nonce", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
