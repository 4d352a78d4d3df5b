package domain

import (
	"encoding/json"
	"errors"
	"io"
	"time"
)

type Task struct {
	Id          string     `bson:"_id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Status      Status     `bson:"status" json:"status"`
	Priority    Priority   `bson:"priority" json:"priority"`
	DueDate     *time.Time `bson:"dueDate" json:"dueDate"`
	Tags        []string   `bson:"tags" json:"tags"`
	OwnerId     string     `bson:"userId" json:"userId"`
	AssigneeId  *string    `bson:"assignedToId" json:"assignedToId"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeletedAt   *time.Time `bson:"deletedAt" json:"deletedAt,omitempty"`
}

type Tasks []*Task

func (t *Tasks) ToJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(t)
}

func (t *Task) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(t)
}

func (t *Task) Active() bool {
	return t.DeletedAt == nil
}

// VisibleTo reports whether userId owns the task or is assigned to it.
func (t *Task) VisibleTo(userId string) bool {
	return t.OwnerId == userId || (t.AssigneeId != nil && *t.AssigneeId == userId)
}

// Completed reports whether the task is DONE. Completion time is the last modification.
func (t *Task) Completed() bool {
	return t.Status == DONE
}

// OnTime reports whether a completed task was finished no later than its due date.
func (t *Task) OnTime() bool {
	return t.Completed() && t.DueDate != nil && !t.UpdatedAt.After(*t.DueDate)
}

// TaskDetails is a task together with its comments and attachment metadata.
type TaskDetails struct {
	*Task
	Comments Comments `json:"comments"`
	Files    Files    `json:"files"`
}

type Status string

const (
	OPEN        Status = "OPEN"
	IN_PROGRESS Status = "IN_PROGRESS"
	DONE        Status = "DONE"
)

var Statuses = []Status{OPEN, IN_PROGRESS, DONE}

func (s Status) String() string {
	return string(s)
}

func StatusFromString(s string) (Status, error) {
	switch s {
	case "OPEN":
		return OPEN, nil
	case "IN_PROGRESS":
		return IN_PROGRESS, nil
	case "DONE":
		return DONE, nil
	default:
		return "", errors.New("invalid status")
	}
}

type Priority string

const (
	LOW    Priority = "LOW"
	MEDIUM Priority = "MEDIUM"
	HIGH   Priority = "HIGH"
)

var Priorities = []Priority{LOW, MEDIUM, HIGH}

func (p Priority) String() string {
	return string(p)
}

// Weight orders priorities numerically so that HIGH > MEDIUM > LOW.
func (p Priority) Weight() int {
	switch p {
	case LOW:
		return 1
	case MEDIUM:
		return 2
	case HIGH:
		return 3
	default:
		return 0
	}
}

func PriorityFromString(s string) (Priority, error) {
	switch s {
	case "LOW":
		return LOW, nil
	case "MEDIUM":
		return MEDIUM, nil
	case "HIGH":
		return HIGH, nil
	default:
		return "", errors.New("invalid priority")
	}
}

// TaskPatch is a partial update. Nil fields are left untouched; the Clear flags
// reset nullable fields.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *Status
	Priority      *Priority
	DueDate       *time.Time
	ClearDueDate  bool
	Tags          *[]string
	AssigneeId    *string
	ClearAssignee bool
	UpdatedAt     time.Time
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.ClearAssignee {
		t.AssigneeId = nil
	} else if p.AssigneeId != nil {
		a := *p.AssigneeId
		t.AssigneeId = &a
	}
	t.UpdatedAt = p.UpdatedAt
	return t
}

// TaskFilter selects active tasks of one owner. Zero-valued fields are not applied.
type TaskFilter struct {
	OwnerId  string
	Status   Status
	Priority Priority
	Search   string
	Tags     []string
}

// Matches evaluates the filter in memory with the same semantics the stores apply.
func (f TaskFilter) Matches(t *Task) bool {
	if !t.Active() {
		return false
	}
	if f.OwnerId != "" && t.OwnerId != f.OwnerId {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Search != "" && !containsFold(t.Title, f.Search) && !containsFold(t.Description, f.Search) {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(t.Tags, f.Tags) {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortDueDate   SortField = "dueDate"
	SortTitle     SortField = "title"
	SortStatus    SortField = "status"
	SortPriority  SortField = "priority"
)

var SortFields = []SortField{SortCreatedAt, SortUpdatedAt, SortDueDate, SortTitle, SortStatus, SortPriority}

type TaskSort struct {
	Field SortField
	Order SortOrder
}

func (s TaskSort) Descending() bool {
	return s.Order != Asc
}
