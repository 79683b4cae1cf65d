package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// AccountStatus is the enrollment state driven by billing and trial expiry.
type AccountStatus int

const (
	StatusTrialing AccountStatus = iota + 1
	StatusActive
	StatusExempt
	StatusCanceled
	StatusTrialExpired
)

func (s AccountStatus) String() string {
	switch s {
	case StatusTrialing:
		return "trialing"
	case StatusActive:
		return "active"
	case StatusExempt:
		return "exempt"
	case StatusCanceled:
		return "canceled"
	case StatusTrialExpired:
		return "trial_expired"
	default:
		return "unknown"
	}
}

// Value stores the status as its integer code.
func (s AccountStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *AccountStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case int64:
		*s = AccountStatus(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("invalid account status %q: %w", v, err)
		}
		*s = AccountStatus(n)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid account status %q: %w", v, err)
		}
		*s = AccountStatus(n)
	default:
		return fmt.Errorf("unsupported type for account status: %T", value)
	}
	return nil
}

// User is the identity that owns an account, its entries and its prompts.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DateJoined time.Time `gorm:"not null" json:"date_joined"`
	// LoginNonce is the jti of the one outstanding login link, empty once used.
	LoginNonce string    `gorm:"size:64;not null;default:''" json:"-"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// Account holds the enrollment state of exactly one user.
type Account struct {
	ID               uint          `gorm:"primaryKey" json:"-"`
	UserID           uint          `gorm:"uniqueIndex;not null" json:"-"`
	User             *User         `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Status           AccountStatus `gorm:"not null;index" json:"status"`
	Verified         bool          `gorm:"not null;index" json:"verified"`
	StripeCustomerID string        `gorm:"size:255;index" json:"-"`
	CreatedAt        time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook is called before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now()
	}
	return nil
}

// AfterCreate gives every new user a trialing, unverified account.
func (u *User) AfterCreate(tx *gorm.DB) error {
	account := Account{UserID: u.ID, Status: StatusTrialing}
	return tx.Create(&account).Error
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.Status == 0 {
		a.Status = StatusTrialing
	}
	return nil
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "app_user"
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}

// CreateAccountRequest is the signup payload.
type CreateAccountRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// LoginRequest asks for a magic link to be mailed.
type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}
