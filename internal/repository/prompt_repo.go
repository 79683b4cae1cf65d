package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"journeyinbox/internal/models"
)

// PromptRepository is the ledger of prompts already sent.
type PromptRepository interface {
	Exists(ctx context.Context, userID uint, when time.Time) (bool, error)
	// Record marks the prompt for (user, when) as sent. Recording the same
	// day twice keeps the first row.
	Record(ctx context.Context, userID uint, when time.Time, messageID string) error
}

type promptRepo struct {
	db *gorm.DB
}

func NewPromptRepo(db *gorm.DB) PromptRepository {
	return &promptRepo{db: db}
}

func (r *promptRepo) Exists(ctx context.Context, userID uint, when time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Prompt{}).
		Where("user_id = ? AND prompt_date = ?", userID, models.Day(when)).
		Count(&n).Error
	if err != nil {
		return false, storageErr("check prompt ledger", err)
	}
	return n > 0, nil
}

func (r *promptRepo) Record(ctx context.Context, userID uint, when time.Time, messageID string) error {
	prompt := models.Prompt{
		UserID:    userID,
		When:      models.Day(when),
		MessageID: messageID,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "prompt_date"}},
		DoNothing: true,
	}).Create(&prompt).Error
	if err != nil {
		return storageErr("record prompt", err)
	}
	return nil
}
