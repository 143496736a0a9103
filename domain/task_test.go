package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func validTask() Task {
	return Task{
		ID:       "t1",
		Title:    "Ship the board",
		Priority: PriorityHigh,
		Owner:    "owner",
		Category: DefaultCategory,
	}
}

func TestTaskValidate(t *testing.T) {
	if err := validTask().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := validTask()
	empty.Title = "   "
	if err := empty.Validate(); !IsValidation(err) {
		t.Fatalf("expected ValidationError for blank title, got %v", err)
	}

	badPrio := validTask()
	badPrio.Priority = "urgent"
	if err := badPrio.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}

	badCat := validTask()
	badCat.Category = "archived"
	if err := badCat.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	noOwner := validTask()
	noOwner.Owner = ""
	if err := noOwner.Validate(); !IsValidation(err) {
		t.Fatalf("expected ValidationError for missing owner, got %v", err)
	}
}

func TestApplyCategoryIdempotent(t *testing.T) {
	task := validTask()

	task, err := ApplyCategory(task, CategoryDone)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	task, err = ApplyCategory(task, CategoryDone)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if task.Category != CategoryDone {
		t.Fatalf("expected done, got %s", task.Category)
	}

	// All four states stay reachable from done.
	task, err = ApplyCategory(task, CategoryBacklog)
	if err != nil || task.Category != CategoryBacklog {
		t.Fatalf("expected done -> backlog to succeed, got %s, %v", task.Category, err)
	}

	if _, err := ApplyCategory(task, "shipped"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestPublicProjectionWithholdsSensitiveFields(t *testing.T) {
	due := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	task := validTask()
	task.Assignee = "assignee"
	task.Member = "member"
	task.CreatedAt = due
	task.DueDate = &due

	payload, err := sonic.Marshal(task.Public())
	if err != nil {
		t.Fatalf("marshal projection: %v", err)
	}
	body := string(payload)
	for _, field := range []string{"owner", "assignee", "member", "createdAt", "\"id\""} {
		if strings.Contains(body, field) {
			t.Fatalf("projection leaked %s: %s", field, body)
		}
	}
	if !strings.Contains(body, "\"title\"") || !strings.Contains(body, "\"duedate\"") {
		t.Fatalf("projection missing public fields: %s", body)
	}
}

func TestUserPublicProjection(t *testing.T) {
	u := User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "secret"}
	payload, err := sonic.Marshal(u.Public())
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	if strings.Contains(string(payload), "example.com") || strings.Contains(string(payload), "secret") {
		t.Fatalf("user projection leaked credentials: %s", payload)
	}
}
