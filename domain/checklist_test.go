package domain

import (
	"errors"
	"testing"
)

func TestSplitChecklistTrimsEntries(t *testing.T) {
	items := SplitChecklist("a, b , c")
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"a", "b", "c"} {
		if items[i].Content != want {
			t.Fatalf("item %d: expected %q, got %q", i, want, items[i].Content)
		}
		if items[i].Completed {
			t.Fatalf("item %d: expected completed=false", i)
		}
		if items[i].ID == "" {
			t.Fatalf("item %d: expected a stable id", i)
		}
	}
	if items[0].ID == items[1].ID {
		t.Fatal("expected distinct ids per entry")
	}
}

func TestSplitChecklistDropsEmptySegments(t *testing.T) {
	items := SplitChecklist("one,, ,two")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Content != "one" || items[1].Content != "two" {
		t.Fatalf("unexpected items: %#v", items)
	}
}

func TestSplitChecklistEmptyInput(t *testing.T) {
	if items := SplitChecklist("   "); len(items) != 0 {
		t.Fatalf("expected no items, got %#v", items)
	}
}

func TestToggleChecklistItemFlipsExactlyOne(t *testing.T) {
	task := Task{Checklist: []ChecklistItem{
		{ID: "i1", Content: "first"},
		{ID: "i2", Content: "second"},
		{ID: "i3", Content: "third", Completed: true},
	}}

	updated, err := ToggleChecklistItem(task, "i2", true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !updated.Checklist[1].Completed {
		t.Fatal("expected i2 to be completed")
	}
	if updated.Checklist[0].Completed || !updated.Checklist[2].Completed {
		t.Fatal("expected other entries untouched")
	}
	for i := range updated.Checklist {
		if updated.Checklist[i].Content != task.Checklist[i].Content {
			t.Fatalf("content of entry %d changed", i)
		}
	}
	// The original slice must not be mutated in place.
	if task.Checklist[1].Completed {
		t.Fatal("input task mutated")
	}
}

func TestToggleChecklistItemUnknownID(t *testing.T) {
	task := Task{Checklist: []ChecklistItem{{ID: "i1"}}}
	if _, err := ToggleChecklistItem(task, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if task.Checklist[0].Completed {
		t.Fatal("failed toggle must not mutate the task")
	}
}

func TestToggleChecklistItemClear(t *testing.T) {
	task := Task{Checklist: []ChecklistItem{{ID: "i1", Completed: true}}}
	updated, err := ToggleChecklistItem(task, "i1", false)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if updated.Checklist[0].Completed {
		t.Fatal("expected completed=false after clearing")
	}
}
