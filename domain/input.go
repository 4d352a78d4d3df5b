package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Optional records whether a JSON field was present and whether it was null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// TaskInput is the body of a create request.
type TaskInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Priority     string   `json:"priority"`
	DueDate      string   `json:"dueDate"`
	Tags         []string `json:"tags"`
	AssignedToId string   `json:"assignedToId"`
}

// Task validates the input into a new task owned by ownerId. Problems are
// added to verr with field names prefixed by prefix.
func (in TaskInput) Task(id, ownerId string, now time.Time, prefix string, verr *ValidationError) *Task {
	t := &Task{
		Id:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      OPEN,
		Priority:    MEDIUM,
		Tags:        cleanTags(in.Tags),
		OwnerId:     ownerId,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if t.Title == "" {
		verr.Add(prefix+"title", "is required")
	}
	if in.Status != "" {
		s, err := StatusFromString(in.Status)
		if err != nil {
			verr.Add(prefix+"status", "must be one of OPEN, IN_PROGRESS, DONE")
		}
		t.Status = s
	}
	if in.Priority != "" {
		p, err := PriorityFromString(in.Priority)
		if err != nil {
			verr.Add(prefix+"priority", "must be one of LOW, MEDIUM, HIGH")
		}
		t.Priority = p
	}
	if in.DueDate != "" {
		d, err := ParseDate(in.DueDate)
		if err != nil {
			verr.Add(prefix+"dueDate", "must be an ISO 8601 date")
		}
		t.DueDate = &d
	}
	if a := strings.TrimSpace(in.AssignedToId); a != "" {
		t.AssigneeId = &a
	}
	return t
}

// TaskPatchInput is the body of an update request. Absent fields are left
// untouched; dueDate and assignedToId may be null to clear them.
type TaskPatchInput struct {
	Title        Optional[string]   `json:"title"`
	Description  Optional[string]   `json:"description"`
	Status       Optional[string]   `json:"status"`
	Priority     Optional[string]   `json:"priority"`
	DueDate      Optional[string]   `json:"dueDate"`
	Tags         Optional[[]string] `json:"tags"`
	AssignedToId Optional[string]   `json:"assignedToId"`
}

func (in TaskPatchInput) Patch(now time.Time) (TaskPatch, error) {
	p := TaskPatch{UpdatedAt: now}
	verr := &ValidationError{}

	if in.Title.Set {
		title := strings.TrimSpace(in.Title.Value)
		if in.Title.Null || title == "" {
			verr.Add("title", "must not be empty")
		}
		p.Title = &title
	}
	if in.Description.Set {
		d := in.Description.Value
		p.Description = &d
	}
	if in.Status.Set {
		s, err := StatusFromString(in.Status.Value)
		if err != nil {
			verr.Add("status", "must be one of OPEN, IN_PROGRESS, DONE")
		}
		p.Status = &s
	}
	if in.Priority.Set {
		pr, err := PriorityFromString(in.Priority.Value)
		if err != nil {
			verr.Add("priority", "must be one of LOW, MEDIUM, HIGH")
		}
		p.Priority = &pr
	}
	if in.DueDate.Set {
		if in.DueDate.Null || in.DueDate.Value == "" {
			p.ClearDueDate = true
		} else {
			d, err := ParseDate(in.DueDate.Value)
			if err != nil {
				verr.Add("dueDate", "must be an ISO 8601 date")
			}
			p.DueDate = &d
		}
	}
	if in.Tags.Set {
		tags := cleanTags(in.Tags.Value)
		p.Tags = &tags
	}
	if in.AssignedToId.Set {
		a := strings.TrimSpace(in.AssignedToId.Value)
		if in.AssignedToId.Null || a == "" {
			p.ClearAssignee = true
		} else {
			p.AssigneeId = &a
		}
	}

	if err := verr.Err(); err != nil {
		return TaskPatch{}, err
	}
	return p, nil
}

// ParseDate accepts RFC 3339 timestamps and plain dates, returning UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func cleanTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
