package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nagger/internal/model"
)

var taskNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func newTaskService(tasks *mockTaskStore, policies *mockPolicyStore) *TaskService {
	s := NewTaskService(tasks, policies)
	s.now = func() time.Time { return taskNow }
	return s
}

func validInput() TaskInput {
	return TaskInput{
		Title:    "  Renew passport ",
		Deadline: taskNow.Add(48 * time.Hour).In(time.FixedZone("UTC+3", 3*60*60)),
		Policy:   PolicyInput{Kind: model.FrequencyHours, Value: 4, Escalation: true},
	}
}

func TestCreateTask(t *testing.T) {
	tasks := new(mockTaskStore)
	user := &model.User{ID: 7}
	tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.UserID == 7 && task.Title == "Renew passport"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Task).UserTaskID = 3
	}).Return(nil)

	task, err := newTaskService(tasks, new(mockPolicyStore)).CreateTask(context.Background(), user, validInput())
	require.NoError(t, err)
	assert.Equal(t, uint(3), task.UserTaskID)
	assert.Equal(t, time.UTC, task.Deadline.Location())
	require.Len(t, task.Policies, 1)
	assert.Equal(t, model.DefaultEscalationThreshold, task.Policies[0].EscalationThreshold)
	assert.Empty(t, task.Policies[0].CustomMessages)
	tasks.AssertExpectations(t)
}

func TestCreateTask_Validation(t *testing.T) {
	window := &model.ActiveHours{Start: model.Clock(22, 0), End: model.Clock(8, 0)}
	tests := []struct {
		name   string
		modify func(*TaskInput)
	}{
		{name: "empty title", modify: func(in *TaskInput) { in.Title = "   " }},
		{name: "long title", modify: func(in *TaskInput) { in.Title = strings.Repeat("я", 101) }},
		{name: "long description", modify: func(in *TaskInput) { in.Description = strings.Repeat("d", 501) }},
		{name: "deadline now", modify: func(in *TaskInput) { in.Deadline = taskNow }},
		{name: "deadline past", modify: func(in *TaskInput) { in.Deadline = taskNow.Add(-time.Minute) }},
		{name: "zero frequency", modify: func(in *TaskInput) { in.Policy.Value = 0 }},
		{name: "unknown kind", modify: func(in *TaskInput) { in.Policy.Kind = "weekly" }},
		{name: "negative threshold", modify: func(in *TaskInput) { in.Policy.EscalationThreshold = -5 }},
		{name: "oversized hours", modify: func(in *TaskInput) { in.Policy.Kind, in.Policy.Value = model.FrequencyHours, 9_999_999 }},
		{name: "oversized threshold", modify: func(in *TaskInput) {
			in.Policy.Escalation, in.Policy.EscalationThreshold = true, model.MaxIntervalMinutes+1
		}},
		{name: "too many messages", modify: func(in *TaskInput) { in.Policy.Messages = make([]string, 11) }},
		{name: "valid window is fine", modify: func(in *TaskInput) { in.Policy.Window = window }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(mockTaskStore)
			tasks.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
			input := validInput()
			tt.modify(&input)

			_, err := newTaskService(tasks, new(mockPolicyStore)).CreateTask(context.Background(), &model.User{ID: 1}, input)
			if tt.name == "valid window is fine" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
			tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateTask_DailyDefaultsMagnitude(t *testing.T) {
	tasks := new(mockTaskStore)
	tasks.On("Create", mock.Anything, mock.Anything).Return(nil)
	input := validInput()
	input.Policy = PolicyInput{Kind: model.FrequencyDaily, Messages: []string{" drink water ", ""}}

	task, err := newTaskService(tasks, new(mockPolicyStore)).CreateTask(context.Background(), &model.User{ID: 1}, input)
	require.NoError(t, err)
	assert.Equal(t, 1, task.Policies[0].FrequencyValue)
	assert.Equal(t, []string{"drink water"}, []string(task.Policies[0].CustomMessages))
}

func TestCompleteTask(t *testing.T) {
	tasks := new(mockTaskStore)
	user := &model.User{ID: 1}
	task := &model.Task{ID: 10, UserID: 1, UserTaskID: 2}
	tasks.On("FindByUserTaskID", mock.Anything, uint(1), uint(2)).Return(task, nil)
	tasks.On("MarkCompleted", mock.Anything, task, taskNow).Return(true, nil).Once()
	tasks.On("MarkCompleted", mock.Anything, task, taskNow).Return(false, nil).Once()

	s := newTaskService(tasks, new(mockPolicyStore))
	_, changed, err := s.CompleteTask(context.Background(), user, 2)
	require.NoError(t, err)
	assert.True(t, changed)

	_, changed, err = s.CompleteTask(context.Background(), user, 2)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTaskNotFound(t *testing.T) {
	tasks := new(mockTaskStore)
	tasks.On("FindByUserTaskID", mock.Anything, uint(1), uint(9)).Return(nil, gorm.ErrRecordNotFound)
	s := newTaskService(tasks, new(mockPolicyStore))
	user := &model.User{ID: 1}

	_, _, err := s.CompleteTask(context.Background(), user, 9)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.DeleteTask(context.Background(), user, 9)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, _, err = s.History(context.Background(), user, 9, 5)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetTask_StorageError(t *testing.T) {
	tasks := new(mockTaskStore)
	boom := errors.New("db down")
	tasks.On("FindByUserTaskID", mock.Anything, uint(1), uint(1)).Return(nil, boom)

	_, err := newTaskService(tasks, new(mockPolicyStore)).GetTask(context.Background(), &model.User{ID: 1}, 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteTask(t *testing.T) {
	tasks := new(mockTaskStore)
	task := &model.Task{ID: 10, UserID: 1, UserTaskID: 2}
	tasks.On("FindByUserTaskID", mock.Anything, uint(1), uint(2)).Return(task, nil)
	tasks.On("Delete", mock.Anything, uint(1), uint(10)).Return(nil)

	deleted, err := newTaskService(tasks, new(mockPolicyStore)).DeleteTask(context.Background(), &model.User{ID: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(10), deleted.ID)
	tasks.AssertExpectations(t)
}

func TestClearAll(t *testing.T) {
	tasks := new(mockTaskStore)
	tasks.On("ClearUser", mock.Anything, uint(1)).Return(int64(3), nil)

	n, err := newTaskService(tasks, new(mockPolicyStore)).ClearAll(context.Background(), &model.User{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestHistory(t *testing.T) {
	tasks := new(mockTaskStore)
	policies := new(mockPolicyStore)
	task := &model.Task{ID: 10, UserID: 1, UserTaskID: 2}
	records := []model.DeliveryRecord{{TaskID: 10, Flavor: model.FlavorEscalated}, {TaskID: 10, Flavor: model.FlavorNormal}}
	tasks.On("FindByUserTaskID", mock.Anything, uint(1), uint(2)).Return(task, nil)
	policies.On("History", mock.Anything, uint(10), 5).Return(records, nil)

	got, history, err := newTaskService(tasks, policies).History(context.Background(), &model.User{ID: 1}, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, task, got)
	assert.Equal(t, records, history)
}

func TestAttachPolicy(t *testing.T) {
	tasks := new(mockTaskStore)
	policies := new(mockPolicyStore)
	tasks.On("FindByUserTaskID", mock.Anything, uint(1), uint(2)).Return(&model.Task{ID: 10, UserTaskID: 2}, nil)
	policies.On("AddPolicy", mock.Anything, mock.MatchedBy(func(p *model.ReminderPolicy) bool {
		return p.TaskID == 10 && p.FrequencyKind == model.FrequencyMinutes && p.FrequencyValue == 15
	})).Return(nil)

	policy, err := newTaskService(tasks, policies).AttachPolicy(context.Background(), &model.User{ID: 1}, 2,
		PolicyInput{Kind: model.FrequencyMinutes, Value: 15})
	require.NoError(t, err)
	assert.Equal(t, uint(10), policy.TaskID)
	policies.AssertExpectations(t)
}

func TestAttachPolicy_CompletedTask(t *testing.T) {
	tasks := new(mockTaskStore)
	policies := new(mockPolicyStore)
	tasks.On("FindByUserTaskID", mock.Anything, uint(1), uint(2)).Return(&model.Task{ID: 10, UserTaskID: 2, IsCompleted: true}, nil)

	_, err := newTaskService(tasks, policies).AttachPolicy(context.Background(), &model.User{ID: 1}, 2,
		PolicyInput{Kind: model.FrequencyMinutes, Value: 15})
	assert.ErrorIs(t, err, ErrInvalidInput)
	policies.AssertNotCalled(t, "AddPolicy", mock.Anything, mock.Anything)
}
