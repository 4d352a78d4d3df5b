package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriorityWeight(t *testing.T) {
	assert.Greater(t, HIGH.Weight(), MEDIUM.Weight())
	assert.Greater(t, MEDIUM.Weight(), LOW.Weight())
	assert.Equal(t, 0, Priority("URGENT").Weight())
}

func TestTaskPatchApply(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assignee := "u2"
	base := Task{Id: "t1", Title: "old", Status: OPEN, Priority: LOW, DueDate: &due, AssigneeId: &assignee, Tags: []string{"a"}}

	title := "new"
	status := DONE
	tags := []string{"x", "y"}
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	got := TaskPatch{Title: &title, Status: &status, Tags: &tags, ClearDueDate: true, ClearAssignee: true, UpdatedAt: now}.Apply(base)

	assert.Equal(t, "new", got.Title)
	assert.Equal(t, DONE, got.Status)
	assert.Equal(t, LOW, got.Priority)
	assert.Nil(t, got.DueDate)
	assert.Nil(t, got.AssigneeId)
	assert.Equal(t, []string{"x", "y"}, got.Tags)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Equal(t, "old", base.Title)
}

func TestTaskOnTime(t *testing.T) {
	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	early := &Task{Status: DONE, DueDate: &due, UpdatedAt: due.Add(-time.Hour)}
	late := &Task{Status: DONE, DueDate: &due, UpdatedAt: due.Add(time.Hour)}
	open := &Task{Status: OPEN, DueDate: &due, UpdatedAt: due.Add(-time.Hour)}
	noDue := &Task{Status: DONE, UpdatedAt: due}

	assert.True(t, early.OnTime())
	assert.False(t, late.OnTime())
	assert.False(t, open.OnTime())
	assert.False(t, noDue.OnTime())
}

func TestTaskVisibleTo(t *testing.T) {
	assignee := "u2"
	task := &Task{OwnerId: "u1", AssigneeId: &assignee}

	assert.True(t, task.VisibleTo("u1"))
	assert.True(t, task.VisibleTo("u2"))
	assert.False(t, task.VisibleTo("u3"))
}
