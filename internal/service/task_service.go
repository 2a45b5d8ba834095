package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nagger/internal/model"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
	maxMessageLen     = 500
	maxMessages       = 10
)

// TaskStore is the task persistence used by TaskService.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	FindByUserTaskID(ctx context.Context, userID, userTaskID uint) (*model.Task, error)
	ListActive(ctx context.Context, userID uint) ([]model.Task, error)
	MarkCompleted(ctx context.Context, task *model.Task, completedAt time.Time) (bool, error)
	Delete(ctx context.Context, userID, taskID uint) error
	ClearUser(ctx context.Context, userID uint) (int64, error)
}

// PolicyStore covers policy attachment and delivery history.
type PolicyStore interface {
	AddPolicy(ctx context.Context, policy *model.ReminderPolicy) error
	History(ctx context.Context, taskID uint, limit int) ([]model.DeliveryRecord, error)
}

// PolicyInput describes one reminder policy.
type PolicyInput struct {
	Kind                model.FrequencyKind
	Value               int
	Window              *model.ActiveHours
	Escalation          bool
	EscalationThreshold int
	Messages            []string
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Deadline    time.Time
	Policy      PolicyInput
}

// TaskService wraps task-related business logic.
type TaskService struct {
	tasks    TaskStore
	policies PolicyStore
	now      func() time.Time
}

func NewTaskService(tasks TaskStore, policies PolicyStore) *TaskService {
	return &TaskService{tasks: tasks, policies: policies, now: time.Now}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case n > maxTitleLen:
		return nil, fmt.Errorf("%w: title is longer than %d characters", ErrInvalidInput, maxTitleLen)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description is longer than %d characters", ErrInvalidInput, maxDescriptionLen)
	}
	if !input.Deadline.After(s.now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", ErrInvalidInput)
	}

	policy, err := buildPolicy(input.Policy)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:      user.ID,
		Title:       title,
		Description: description,
		Deadline:    input.Deadline.UTC(),
		Policies:    []model.ReminderPolicy{policy},
	}
	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AttachPolicy adds one more reminder policy to an existing task.
func (s *TaskService) AttachPolicy(ctx context.Context, user *model.User, userTaskID uint, input PolicyInput) (*model.ReminderPolicy, error) {
	task, err := s.GetTask(ctx, user, userTaskID)
	if err != nil {
		return nil, err
	}
	if task.IsCompleted {
		return nil, fmt.Errorf("%w: task #%d is already completed", ErrInvalidInput, userTaskID)
	}
	policy, err := buildPolicy(input)
	if err != nil {
		return nil, err
	}
	policy.TaskID = task.ID
	if err := s.policies.AddPolicy(ctx, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (s *TaskService) ListActive(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.tasks.ListActive(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, userTaskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByUserTaskID(ctx, user.ID, userTaskID)
	if err != nil {
		return nil, notFound(err, userTaskID)
	}
	return task, nil
}

// CompleteTask marks a task as done. Completing an already completed task is a
// no-op reported through the returned flag.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, userTaskID uint) (*model.Task, bool, error) {
	task, err := s.GetTask(ctx, user, userTaskID)
	if err != nil {
		return nil, false, err
	}
	changed, err := s.tasks.MarkCompleted(ctx, task, s.now())
	if err != nil {
		return nil, false, err
	}
	return task, changed, nil
}

// DeleteTask removes a task with its policies and history.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, userTaskID uint) (*model.Task, error) {
	task, err := s.GetTask(ctx, user, userTaskID)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Delete(ctx, user.ID, task.ID); err != nil {
		return nil, notFound(err, userTaskID)
	}
	return task, nil
}

// ClearAll deletes every task of the user and returns how many were removed.
func (s *TaskService) ClearAll(ctx context.Context, user *model.User) (int64, error) {
	return s.tasks.ClearUser(ctx, user.ID)
}

// History returns the task with its most recent deliveries, newest first.
func (s *TaskService) History(ctx context.Context, user *model.User, userTaskID uint, limit int) (*model.Task, []model.DeliveryRecord, error) {
	task, err := s.GetTask(ctx, user, userTaskID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.policies.History(ctx, task.ID, limit)
	if err != nil {
		return nil, nil, err
	}
	return task, records, nil
}

func buildPolicy(input PolicyInput) (model.ReminderPolicy, error) {
	policy := model.ReminderPolicy{
		FrequencyKind:       input.Kind,
		FrequencyValue:      input.Value,
		EscalationEnabled:   input.Escalation,
		EscalationThreshold: input.EscalationThreshold,
	}
	if policy.FrequencyKind == model.FrequencyDaily && policy.FrequencyValue == 0 {
		policy.FrequencyValue = 1
	}
	if policy.EscalationThreshold == 0 {
		policy.EscalationThreshold = model.DefaultEscalationThreshold
	}
	policy.SetWindow(input.Window)

	if len(input.Messages) > maxMessages {
		return policy, fmt.Errorf("%w: at most %d custom messages", ErrInvalidInput, maxMessages)
	}
	for _, msg := range input.Messages {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			continue
		}
		if utf8.RuneCountInString(msg) > maxMessageLen {
			return policy, fmt.Errorf("%w: custom message is longer than %d characters", ErrInvalidInput, maxMessageLen)
		}
		policy.CustomMessages = append(policy.CustomMessages, msg)
	}
	if len(policy.CustomMessages) == 0 {
		policy.CustomMessages = datatypes.JSONSlice[string]{}
	}

	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return policy, nil
}

func notFound(err error, userTaskID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: #%d", ErrTaskNotFound, userTaskID)
	}
	return err
}
