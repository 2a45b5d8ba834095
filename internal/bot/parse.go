package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nagger/internal/model"
	"nagger/internal/service"
)

var deadlineLayouts = []string{
	"2006-01-02 15:04",
	"02.01.2006 15:04",
}

const dateOnlyLayout = "2006-01-02"

var (
	relativeDeadlineRe = regexp.MustCompile(`^in\s+(\d+)\s*(m|min|mins|minute|minutes|h|hour|hours|d|day|days)$`)
	shortFrequencyRe   = regexp.MustCompile(`^(\d+)\s*(m|h)$`)
	everyFrequencyRe   = regexp.MustCompile(`^every\s+(\d+)\s+(minute|minutes|min|hour|hours)$`)
	escalationRe       = regexp.MustCompile(`^esc(?:\s+(\d+))?$`)
)

var errQuickAddUsage = errors.New("usage: /q title | deadline | frequency [| HH:MM-HH:MM] [| esc N] [| note text] [| say text]")

// parseQuickAdd turns "/q" arguments into a task input. Deadlines are read in loc.
func parseQuickAdd(args string, now time.Time, loc *time.Location) (service.TaskInput, error) {
	parts := splitArgs(args)
	if len(parts) < 3 {
		return service.TaskInput{}, errQuickAddUsage
	}

	deadline, err := parseDeadline(parts[1], now, loc)
	if err != nil {
		return service.TaskInput{}, err
	}
	policy, description, err := parsePolicy(parts[2], parts[3:])
	if err != nil {
		return service.TaskInput{}, err
	}

	return service.TaskInput{
		Title:       parts[0],
		Description: description,
		Deadline:    deadline,
		Policy:      policy,
	}, nil
}

// parseRemind handles "/remind N | frequency [| options]".
func parseRemind(args string) (uint, service.PolicyInput, error) {
	parts := splitArgs(args)
	if len(parts) < 2 {
		return 0, service.PolicyInput{}, errors.New("usage: /remind N | frequency [| HH:MM-HH:MM] [| esc N] [| say text]")
	}
	number, err := parseTaskNumber(parts[0])
	if err != nil {
		return 0, service.PolicyInput{}, err
	}
	policy, description, err := parsePolicy(parts[1], parts[2:])
	if err != nil {
		return 0, service.PolicyInput{}, err
	}
	if description != "" {
		return 0, service.PolicyInput{}, errors.New("notes can only be set when the task is created")
	}
	return number, policy, nil
}

func parsePolicy(frequency string, options []string) (service.PolicyInput, string, error) {
	kind, value, err := parseFrequency(frequency)
	if err != nil {
		return service.PolicyInput{}, "", err
	}
	policy := service.PolicyInput{Kind: kind, Value: value}

	var description string
	for _, opt := range options {
		lower := strings.ToLower(opt)
		switch {
		case strings.HasPrefix(lower, "note "):
			description = strings.TrimSpace(opt[len("note "):])
		case strings.HasPrefix(lower, "say "):
			policy.Messages = append(policy.Messages, strings.TrimSpace(opt[len("say "):]))
		case escalationRe.MatchString(lower):
			policy.Escalation = true
			if m := escalationRe.FindStringSubmatch(lower); m[1] != "" {
				threshold, err := strconv.Atoi(m[1])
				if err != nil || threshold <= 0 || threshold > model.MaxIntervalMinutes {
					return service.PolicyInput{}, "", fmt.Errorf("invalid escalation threshold %q", m[1])
				}
				policy.EscalationThreshold = threshold
			}
		case strings.Contains(opt, ":") && strings.Contains(opt, "-"):
			window, err := parseWindow(opt)
			if err != nil {
				return service.PolicyInput{}, "", err
			}
			policy.Window = window
		default:
			return service.PolicyInput{}, "", fmt.Errorf("unknown option %q", opt)
		}
	}
	return policy, description, nil
}

func parseDeadline(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}

	if m := relativeDeadlineRe.FindStringSubmatch(strings.ToLower(raw)); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("invalid amount in %q", raw)
		}
		if n > relativeLimit(m[2][0]) {
			return time.Time{}, fmt.Errorf("deadline %q is too far away", raw)
		}
		switch m[2][0] {
		case 'm':
			return now.Add(time.Duration(n) * time.Minute), nil
		case 'h':
			return now.Add(time.Duration(n) * time.Hour), nil
		default:
			return now.AddDate(0, 0, n), nil
		}
	}

	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	// A bare date means the end of that day.
	if t, err := time.ParseInLocation(dateOnlyLayout, raw, loc); err == nil {
		return t.Add(23*time.Hour + 59*time.Minute), nil
	}
	return time.Time{}, fmt.Errorf("cannot read deadline %q, use 2025-11-30 18:00, 30.11.2025 18:00, 2025-11-30 or \"in 3 hours\"", raw)
}

// relativeLimit bounds "in N <unit>" deadlines to the frequency cap.
func relativeLimit(unit byte) int {
	switch unit {
	case 'm':
		return model.MaxIntervalMinutes
	case 'h':
		return model.FrequencyHours.MaxValue()
	default:
		return model.FrequencyDaily.MaxValue()
	}
}

func parseFrequency(raw string) (model.FrequencyKind, int, error) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch lower {
	case "daily", "every day":
		return model.FrequencyDaily, 1, nil
	case "hourly":
		return model.FrequencyHours, 1, nil
	}

	var amount, unit string
	if m := shortFrequencyRe.FindStringSubmatch(lower); m != nil {
		amount, unit = m[1], m[2]
	} else if m := everyFrequencyRe.FindStringSubmatch(lower); m != nil {
		amount, unit = m[1], m[2][:1]
	} else {
		return "", 0, fmt.Errorf("cannot read frequency %q, use 30m, 2h, daily or \"every 45 minutes\"", raw)
	}

	n, err := strconv.Atoi(amount)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("frequency must be a positive number, got %q", amount)
	}
	kind := model.FrequencyMinutes
	if unit == "h" {
		kind = model.FrequencyHours
	}
	if n > kind.MaxValue() {
		return "", 0, fmt.Errorf("frequency %q is too long, keep it under ten years", raw)
	}
	return kind, n, nil
}

func parseWindow(raw string) (*model.ActiveHours, error) {
	bounds := strings.Split(strings.ReplaceAll(raw, " ", ""), "-")
	if len(bounds) != 2 {
		return nil, fmt.Errorf("invalid active hours %q, expected HH:MM-HH:MM", raw)
	}
	start, err := model.ParseClock(bounds[0])
	if err != nil {
		return nil, err
	}
	end, err := model.ParseClock(bounds[1])
	if err != nil {
		return nil, err
	}
	return &model.ActiveHours{Start: start, End: end}, nil
}

func parseTaskNumber(raw string) (uint, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if raw == "" {
		return 0, errors.New("task number is required")
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("task number must be a positive integer, got %q", raw)
	}
	return uint(n), nil
}

func splitArgs(args string) []string {
	var parts []string
	for _, part := range strings.Split(args, "|") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
