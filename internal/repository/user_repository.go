package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nagger/internal/model"
)

// UserRepository stores Telegram users with their zone and task counter.
type UserRepository struct {
	db          *gorm.DB
	defaultZone string
}

// NewUserRepository returns a repository that places first-time users in
// defaultZone. An empty defaultZone leaves their zone unset.
func NewUserRepository(db *gorm.DB, defaultZone string) *UserRepository {
	return &UserRepository{db: db, defaultZone: defaultZone}
}

// UpsertFromTelegram records the sender's profile in a single statement and
// returns the stored user. Only the name fields are refreshed on later calls,
// so a zone picked with /timezone and the task counter are kept.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	profile := model.User{
		TelegramID: telegramID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
		Timezone:   r.defaultZone,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "username", "updated_at"}),
	}).Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", telegramID, err)
	}

	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("reload user %d: %w", telegramID, err)
	}
	return user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetTimezone stores the user's IANA zone name. Callers validate the name.
func (r *UserRepository) SetTimezone(ctx context.Context, user *model.User, zone string) error {
	if err := r.db.WithContext(ctx).Model(user).Update("timezone", zone).Error; err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return nil
}
