package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"nagger/internal/model"
)

type mockReminderStore struct {
	mock.Mock
}

func (m *mockReminderStore) FetchPendingPairs(ctx context.Context, now time.Time) ([]model.PendingReminder, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PendingReminder), args.Error(1)
}

func (m *mockReminderStore) RecordDelivery(ctx context.Context, pair model.PendingReminder, flavor model.Flavor, firedAt, nextFire time.Time) error {
	args := m.Called(ctx, pair, flavor, firedAt, nextFire)
	return args.Error(0)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Send(ctx context.Context, chatID int64, text string, flavor model.Flavor) error {
	args := m.Called(ctx, chatID, text, flavor)
	return args.Error(0)
}

type mockTaskStore struct {
	mock.Mock
}

func (m *mockTaskStore) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockTaskStore) FindByUserTaskID(ctx context.Context, userID, userTaskID uint) (*model.Task, error) {
	args := m.Called(ctx, userID, userTaskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *mockTaskStore) ListActive(ctx context.Context, userID uint) ([]model.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *mockTaskStore) MarkCompleted(ctx context.Context, task *model.Task, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, task, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockTaskStore) Delete(ctx context.Context, userID, taskID uint) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

func (m *mockTaskStore) ClearUser(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPolicyStore struct {
	mock.Mock
}

func (m *mockPolicyStore) AddPolicy(ctx context.Context, policy *model.ReminderPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *mockPolicyStore) History(ctx context.Context, taskID uint, limit int) ([]model.DeliveryRecord, error) {
	args := m.Called(ctx, taskID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DeliveryRecord), args.Error(1)
}
