package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"nagger/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create stores the task together with its policies and hands out the next
// per-user task number.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", task.UserID).
			UpdateColumn("task_seq", gorm.Expr("task_seq + 1")).Error; err != nil {
			return fmt.Errorf("bump task seq: %w", err)
		}
		var owner model.User
		if err := tx.Select("id", "task_seq").First(&owner, task.UserID).Error; err != nil {
			return fmt.Errorf("read task seq: %w", err)
		}
		task.UserTaskID = owner.TaskSeq
		return tx.Omit("User").Create(task).Error
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByUserTaskID looks a task up by its per-user number, with policies.
func (r *TaskRepository) FindByUserTaskID(ctx context.Context, userID, userTaskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Preload("Policies").
		Where("user_id = ? AND user_task_id = ?", userID, userTaskID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListActive returns the user's incomplete tasks, overdue ones included, soonest first.
func (r *TaskRepository) ListActive(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Preload("Policies").
		Where("user_id = ? AND is_completed = ?", userID, false).
		Order("deadline ASC, user_task_id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkCompleted flips the task to completed once. It reports false when the task
// was already completed.
func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task, completedAt time.Time) (bool, error) {
	if task.IsCompleted {
		return false, nil
	}
	completedAt = completedAt.UTC()
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND is_completed = ?", task.ID, false).
		Updates(map[string]interface{}{"is_completed": true, "completed_at": completedAt})
	if res.Error != nil {
		return false, fmt.Errorf("complete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	task.IsCompleted = true
	task.CompletedAt = &completedAt
	return true, nil
}

// Delete removes a task for the given user along with its policies and history.
// It returns gorm.ErrRecordNotFound when the user has no such task.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.DeliveryRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.ReminderPolicy{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ClearUser deletes every task of the user with its policies and history. The
// user's task counter is left alone, so numbers are never handed out twice.
// It returns the number of deleted tasks.
func (r *TaskRepository) ClearUser(ctx context.Context, userID uint) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := func() *gorm.DB {
			return tx.Model(&model.Task{}).Select("id").Where("user_id = ?", userID)
		}
		if err := tx.Where("task_id IN (?)", owned()).Delete(&model.DeliveryRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", owned()).Delete(&model.ReminderPolicy{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ?", userID).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear user tasks: %w", err)
	}
	return deleted, nil
}
