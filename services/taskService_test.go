package services

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"task-management-app/tasks-service/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePage(t *testing.T, body []byte) domain.Page {
	t.Helper()

	var page domain.Page
	require.NoError(t, json.Unmarshal(body, &page))
	return page
}

func titles(tasks domain.Tasks) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func patchInput(t *testing.T, body string) domain.TaskPatchInput {
	t.Helper()

	var in domain.TaskPatchInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestTaskServiceList(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*TaskService, stores) {
		st := newStores(t)
		st.addUser(t, "u1", "Ana")
		svc := NewTaskService(st.tasks, st.users, st.comments, st.files, testTracer, WithClock(fixedClock(testNow)))
		_, err := svc.CreateBulk(ctx, "u1", []domain.TaskInput{
			{Title: "low", Priority: "LOW", Tags: []string{"home"}},
			{Title: "high", Priority: "HIGH", Tags: []string{"work"}},
			{Title: "medium", Priority: "MEDIUM", Description: "Quarterly REPORT"},
		})
		require.NoError(t, err)
		return svc, st
	}

	t.Run("sorts by priority weight", func(t *testing.T) {
		svc, _ := setup(t)

		body, err := svc.List(ctx, "u1", url.Values{"sortBy": {"priority"}, "order": {"desc"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"high", "medium", "low"}, titles(decodePage(t, body).Data))

		body, err = svc.List(ctx, "u1", url.Values{"sortBy": {"priority"}, "order": {"asc"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"low", "medium", "high"}, titles(decodePage(t, body).Data))
	})

	t.Run("filters", func(t *testing.T) {
		svc, _ := setup(t)

		body, err := svc.List(ctx, "u1", url.Values{"tags": {"work,home"}, "sortBy": {"title"}, "order": {"asc"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"high", "low"}, titles(decodePage(t, body).Data))

		body, err = svc.List(ctx, "u1", url.Values{"search": {"report"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"medium"}, titles(decodePage(t, body).Data))

		body, err = svc.List(ctx, "u2", url.Values{})
		require.NoError(t, err)
		page := decodePage(t, body)
		assert.Empty(t, page.Data)
		assert.Equal(t, int64(0), page.Meta.TotalPages)
	})

	t.Run("pagination meta", func(t *testing.T) {
		svc, _ := setup(t)

		body, err := svc.List(ctx, "u1", url.Values{"limit": {"2"}, "page": {"2"}, "sortBy": {"title"}, "order": {"asc"}})
		require.NoError(t, err)
		page := decodePage(t, body)
		assert.Equal(t, []string{"medium"}, titles(page.Data))
		assert.Equal(t, domain.PageMeta{Total: 3, Page: 2, Limit: 2, TotalPages: 2}, page.Meta)

		body, err = svc.List(ctx, "u1", url.Values{"limit": {"2"}, "page": {"5"}})
		require.NoError(t, err)
		page = decodePage(t, body)
		assert.Empty(t, page.Data)
		assert.Equal(t, int64(3), page.Meta.Total)
	})

	t.Run("validation happens before the cache", func(t *testing.T) {
		svc, _ := setup(t)
		cache, mr := newRedisCache(t)
		WithCache(cache, 0)(svc)

		_, err := svc.List(ctx, "u1", url.Values{"status": {"DONEISH"}})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "status")
		assert.Empty(t, mr.Keys())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.List(ctx, "", url.Values{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized())
	})
}

func TestTaskServiceCache(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*TaskService, *countingStore, stores) {
		st := newStores(t)
		st.addUser(t, "u1", "Ana")
		st.addUser(t, "u2", "Bojan")
		cache, _ := newRedisCache(t)
		counting := &countingStore{TaskStore: st.tasks}
		svc := NewTaskService(counting, st.users, st.comments, st.files, testTracer,
			WithCache(cache, DefaultCacheTTL), WithClock(fixedClock(testNow)))
		_, err := svc.Create(ctx, "u1", domain.TaskInput{Title: "first"})
		require.NoError(t, err)
		return svc, counting, st
	}

	t.Run("equivalent queries share cached bytes", func(t *testing.T) {
		svc, counting, _ := setup(t)

		first, err := svc.List(ctx, "u1", url.Values{"tags": {"b,a"}})
		require.NoError(t, err)
		second, err := svc.List(ctx, "u1", url.Values{"tags": {"a, b"}, "page": {"1"}, "order": {"DESC"}})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, counting.count())
	})

	t.Run("every mutation invalidates", func(t *testing.T) {
		svc, counting, _ := setup(t)
		list := func() domain.Page {
			body, err := svc.List(ctx, "u1", url.Values{})
			require.NoError(t, err)
			return decodePage(t, body)
		}

		require.Len(t, list().Data, 1)

		created, err := svc.Create(ctx, "u1", domain.TaskInput{Title: "second"})
		require.NoError(t, err)
		require.Len(t, list().Data, 2)

		_, err = svc.Update(ctx, "u1", created.Id, patchInput(t, `{"title":"renamed"}`))
		require.NoError(t, err)
		assert.Contains(t, titles(list().Data), "renamed")

		require.NoError(t, svc.Delete(ctx, "u1", created.Id))
		assert.Equal(t, []string{"first"}, titles(list().Data))

		assert.Equal(t, 4, counting.count())
	})

	t.Run("other users keep their cache", func(t *testing.T) {
		svc, counting, _ := setup(t)

		_, err := svc.List(ctx, "u2", url.Values{})
		require.NoError(t, err)
		_, err = svc.Create(ctx, "u1", domain.TaskInput{Title: "other"})
		require.NoError(t, err)
		_, err = svc.List(ctx, "u2", url.Values{})
		require.NoError(t, err)

		assert.Equal(t, 1, counting.count())
	})

	t.Run("broken cache falls back to the store", func(t *testing.T) {
		st := newStores(t)
		st.addUser(t, "u1", "Ana")
		svc := NewTaskService(st.tasks, st.users, st.comments, st.files, testTracer, WithCache(brokenCache{}, 0))

		_, err := svc.Create(ctx, "u1", domain.TaskInput{Title: "still works"})
		require.NoError(t, err)
		body, err := svc.List(ctx, "u1", url.Values{})
		require.NoError(t, err)
		assert.Equal(t, []string{"still works"}, titles(decodePage(t, body).Data))
	})

	t.Run("cache down after start", func(t *testing.T) {
		st := newStores(t)
		st.addUser(t, "u1", "Ana")
		cache, mr := newRedisCache(t)
		svc := NewTaskService(st.tasks, st.users, st.comments, st.files, testTracer, WithCache(cache, 0))

		_, err := svc.Create(ctx, "u1", domain.TaskInput{Title: "a"})
		require.NoError(t, err)
		mr.Close()

		body, err := svc.List(ctx, "u1", url.Values{})
		require.NoError(t, err)
		assert.Len(t, decodePage(t, body).Data, 1)
	})
}

func TestTaskServiceMutations(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*TaskService, *spyNotifier, *spyMailer) {
		st := newStores(t)
		st.addUser(t, "owner", "Olga")
		st.addUser(t, "helper", "Hana")
		notifier := &spyNotifier{}
		mailer := &spyMailer{}
		svc := NewTaskService(st.tasks, st.users, st.comments, st.files, testTracer,
			WithNotifier(notifier), WithMailer(mailer), WithClock(fixedClock(testNow)))
		return svc, notifier, mailer
	}

	t.Run("create applies defaults", func(t *testing.T) {
		svc, notifier, _ := setup(t)

		task, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "  write  ", Tags: []string{"x", " x ", ""}})
		require.NoError(t, err)
		assert.Equal(t, "write", task.Title)
		assert.Equal(t, domain.OPEN, task.Status)
		assert.Equal(t, domain.MEDIUM, task.Priority)
		assert.Equal(t, []string{"x"}, task.Tags)
		assert.Equal(t, testNow, task.CreatedAt)
		assert.Equal(t, []string{domain.EventTaskCreated}, notifier.events())
	})

	t.Run("bulk validates every item first", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, err := svc.CreateBulk(ctx, "owner", []domain.TaskInput{
			{Title: "ok"},
			{Title: "", Priority: "URGENT"},
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "[1].title")
		assert.Contains(t, verr.Fields, "[1].priority")

		body, err := svc.List(ctx, "owner", url.Values{})
		require.NoError(t, err)
		assert.Empty(t, decodePage(t, body).Data)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "x", AssignedToId: "ghost"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "assignedToId")
	})

	t.Run("assignment notifies and mails", func(t *testing.T) {
		svc, notifier, mailer := setup(t)

		_, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "<deploy>", AssignedToId: "helper", DueDate: "2024-06-20"})
		require.NoError(t, err)

		assert.Len(t, notifier.messagesFor("helper"), 1)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "helper@example.com", mailer.sent[0].To)
		assert.Contains(t, mailer.sent[0].Html, "&lt;deploy&gt;")
		assert.Contains(t, mailer.sent[0].Html, "2024-06-20")
	})

	t.Run("self assignment is silent", func(t *testing.T) {
		svc, notifier, mailer := setup(t)

		_, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "mine", AssignedToId: "owner"})
		require.NoError(t, err)
		assert.Empty(t, notifier.messagesFor("owner"))
		assert.Empty(t, mailer.sent)
	})

	t.Run("assignee may update but not delete", func(t *testing.T) {
		svc, _, _ := setup(t)
		task, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "shared", AssignedToId: "helper"})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, "helper", task.Id, patchInput(t, `{"status":"DONE","dueDate":null}`))
		require.NoError(t, err)
		assert.Equal(t, domain.DONE, updated.Status)
		assert.Equal(t, "shared", updated.Title)

		assert.ErrorIs(t, svc.Delete(ctx, "helper", task.Id), domain.ErrForbidden())
	})

	t.Run("strangers are forbidden and missing tasks not found", func(t *testing.T) {
		svc, _, _ := setup(t)
		task, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "private"})
		require.NoError(t, err)

		_, err = svc.Get(ctx, "helper", task.Id)
		assert.ErrorIs(t, err, domain.ErrForbidden())
		_, err = svc.Update(ctx, "helper", task.Id, patchInput(t, `{"title":"x"}`))
		assert.ErrorIs(t, err, domain.ErrForbidden())

		_, err = svc.Get(ctx, "owner", "missing")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound())
	})

	t.Run("update rejects an empty title", func(t *testing.T) {
		svc, _, _ := setup(t)
		task, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "keep"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, "owner", task.Id, patchInput(t, `{"title":"  "}`))
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("deleted tasks disappear", func(t *testing.T) {
		svc, notifier, _ := setup(t)
		task, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "gone"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, "owner", task.Id))
		_, err = svc.Get(ctx, "owner", task.Id)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound())
		assert.ErrorIs(t, svc.Delete(ctx, "owner", task.Id), domain.ErrTaskNotFound())
		assert.Equal(t, []string{domain.EventTaskCreated, domain.EventTaskDeleted}, notifier.events())
	})

	t.Run("details include comments and files", func(t *testing.T) {
		svc, _, _ := setup(t)
		task, err := svc.Create(ctx, "owner", domain.TaskInput{Title: "detailed"})
		require.NoError(t, err)

		details, err := svc.Get(ctx, "owner", task.Id)
		require.NoError(t, err)
		assert.Equal(t, task.Id, details.Id)
		assert.NotNil(t, details.Comments)
		assert.NotNil(t, details.Files)
	})
}
