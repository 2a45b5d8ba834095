package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"nagger/internal/model"
)

// ReminderRepository reads pending reminders and records deliveries.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// FetchPendingPairs returns one pair per policy of every incomplete task whose
// deadline is still ahead of now.
func (r *ReminderRepository) FetchPendingPairs(ctx context.Context, now time.Time) ([]model.PendingReminder, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("Policies").
		Preload("User").
		Where("is_completed = ? AND deadline > ?", false, now.UTC()).
		Order("deadline ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("fetch pending reminders: %w", err)
	}

	var pairs []model.PendingReminder
	for _, task := range tasks {
		policies := task.Policies
		owner := task.User
		task.Policies = nil
		task.User = model.User{}
		for _, policy := range policies {
			pairs = append(pairs, model.PendingReminder{Task: task, Policy: policy, Owner: owner})
		}
	}
	return pairs, nil
}

// AddPolicy attaches another policy to an existing task.
func (r *ReminderRepository) AddPolicy(ctx context.Context, policy *model.ReminderPolicy) error {
	if err := r.db.WithContext(ctx).Create(policy).Error; err != nil {
		return fmt.Errorf("add policy: %w", err)
	}
	return nil
}

func (r *ReminderRepository) UpdateFireTimes(ctx context.Context, policyID uint, lastFired, nextFire time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.ReminderPolicy{}).
		Where("id = ?", policyID).
		Updates(map[string]interface{}{"last_fired_at": lastFired.UTC(), "next_fire_at": nextFire.UTC()})
	if res.Error != nil {
		return fmt.Errorf("update policy %d: %w", policyID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update policy %d: %w", policyID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *ReminderRepository) AppendDelivery(ctx context.Context, taskID uint, flavor model.Flavor, sentAt time.Time) error {
	record := model.DeliveryRecord{TaskID: taskID, Flavor: flavor, SentAt: sentAt.UTC()}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("append delivery: %w", err)
	}
	return nil
}

// RecordDelivery advances the policy's fire times and appends the history row in
// one transaction, so a pair is either fully updated or not at all.
func (r *ReminderRepository) RecordDelivery(ctx context.Context, pair model.PendingReminder, flavor model.Flavor, firedAt, nextFire time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &ReminderRepository{db: tx}
		if err := scoped.UpdateFireTimes(ctx, pair.Policy.ID, firedAt, nextFire); err != nil {
			return err
		}
		return scoped.AppendDelivery(ctx, pair.Task.ID, flavor, firedAt)
	})
}

// History lists the task's deliveries, newest first.
func (r *ReminderRepository) History(ctx context.Context, taskID uint, limit int) ([]model.DeliveryRecord, error) {
	var records []model.DeliveryRecord
	q := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("sent_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("delivery history: %w", err)
	}
	return records, nil
}
