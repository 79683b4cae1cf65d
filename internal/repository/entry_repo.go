package repository

import (
	"context"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"journeyinbox/internal/models"
)

// EntryRepository defines methods for accessing journal entries.
type EntryRepository interface {
	// Upsert writes body as the user's entry for when, replacing any
	// existing body for that date in a single statement.
	Upsert(ctx context.Context, userID uint, when time.Time, body string) error
	Get(ctx context.Context, userID uint, when time.Time) (*models.Entry, error)
	// Random picks one of the user's entries uniformly, or nil when there are none.
	Random(ctx context.Context, userID uint) (*models.Entry, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Entry, error)
	Count(ctx context.Context, userID uint) (int64, error)
}

type entryRepo struct {
	db   *gorm.DB
	intn func(n int) int
}

func NewEntryRepo(db *gorm.DB) EntryRepository {
	return &entryRepo{db: db, intn: rand.IntN}
}

func (r *entryRepo) Upsert(ctx context.Context, userID uint, when time.Time, body string) error {
	entry := models.Entry{
		UserID: userID,
		When:   models.Day(when),
		Body:   body,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "entry_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return storageErr("upsert entry", err)
	}
	return nil
}

func (r *entryRepo) Get(ctx context.Context, userID uint, when time.Time) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entry_date = ?", userID, models.Day(when)).
		Take(&entry).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get entry", err)
	}
	return &entry, nil
}

func (r *entryRepo) Random(ctx context.Context, userID uint) (*models.Entry, error) {
	n, err := r.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	var entry models.Entry
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Offset(r.intn(int(n))).
		Take(&entry).Error
	if notFound(err) {
		// An entry was deleted between the count and the read.
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get random entry", err)
	}
	return &entry, nil
}

func (r *entryRepo) ListForUser(ctx context.Context, userID uint) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("entry_date").Find(&entries).Error
	if err != nil {
		return nil, storageErr("list entries", err)
	}
	return entries, nil
}

func (r *entryRepo) Count(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Entry{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, storageErr("count entries", err)
	}
	return n, nil
}
