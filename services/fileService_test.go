package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"task-management-app/tasks-service/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// unreachableTaskStore fails every task lookup.
type unreachableTaskStore struct {
	TaskStore
}

func (unreachableTaskStore) FindById(context.Context, string) (*domain.Task, error) {
	return nil, errStoreDown
}

func TestFileService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*FileService, *domain.Task, stores) {
		st := newStores(t)
		st.addUser(t, "owner", "Olga")
		st.addUser(t, "helper", "Hana")
		tasks := NewTaskService(st.tasks, st.users, st.comments, st.files, testTracer)
		task, err := tasks.Create(ctx, "owner", domain.TaskInput{Title: "attach", AssignedToId: "helper"})
		require.NoError(t, err)
		return NewFileService(st.files, st.tasks, testTracer), task, st
	}

	t.Run("upload and download", func(t *testing.T) {
		svc, task, st := setup(t)

		n, err := svc.Upload(ctx, "helper", task.Id, []FileUpload{
			{Name: "a.txt", MimeType: "text/plain", Data: []byte("hello")},
			{Name: "b.bin", Data: []byte{1, 2, 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		files, err := st.files.FindByTask(ctx, task.Id)
		require.NoError(t, err)
		require.Len(t, files, 2)

		var bin *domain.File
		for _, f := range files {
			if f.OriginalName == "b.bin" {
				bin = f
			}
		}
		require.NotNil(t, bin)
		assert.Equal(t, "application/octet-stream", bin.MimeType)

		got, err := svc.Download(ctx, "owner", bin.Id)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, got.Data)
		assert.Equal(t, int64(3), got.Size)
	})

	t.Run("limits", func(t *testing.T) {
		svc, task, _ := setup(t)
		var verr *domain.ValidationError

		_, err := svc.Upload(ctx, "owner", task.Id, nil)
		assert.ErrorAs(t, err, &verr)

		six := make([]FileUpload, domain.MaxFilesPerUpload+1)
		for i := range six {
			six[i] = FileUpload{Name: "f", Data: []byte("x")}
		}
		_, err = svc.Upload(ctx, "owner", task.Id, six)
		assert.ErrorAs(t, err, &verr)

		big := FileUpload{Name: "big", Data: bytes.Repeat([]byte{0}, domain.MaxFileSize+1)}
		_, err = svc.Upload(ctx, "owner", task.Id, []FileUpload{big})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "files[0]")

		_, err = svc.Upload(ctx, "owner", "", []FileUpload{{Name: "f", Data: []byte("x")}})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "taskId")
	})

	t.Run("access", func(t *testing.T) {
		svc, task, _ := setup(t)
		_, err := svc.Upload(ctx, "stranger", task.Id, []FileUpload{{Name: "f", Data: []byte("x")}})
		assert.ErrorIs(t, err, domain.ErrForbidden())

		_, err = svc.Upload(ctx, "owner", task.Id, []FileUpload{{Name: "f", Data: []byte("x")}})
		require.NoError(t, err)
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		svc, task, st := setup(t)
		_, err := svc.Upload(ctx, "helper", task.Id, []FileUpload{{Name: "f", Data: []byte("x")}})
		require.NoError(t, err)
		files, err := st.files.FindByTask(ctx, task.Id)
		require.NoError(t, err)
		require.Len(t, files, 1)
		id := files[0].Id

		assert.ErrorIs(t, svc.Delete(ctx, "helper", id), domain.ErrForbidden())
		require.NoError(t, svc.Delete(ctx, "owner", id))

		_, err = svc.Download(ctx, "owner", id)
		assert.ErrorIs(t, err, domain.ErrFileNotFound())
	})

	t.Run("delete surfaces store failures", func(t *testing.T) {
		svc, task, st := setup(t)
		_, err := svc.Upload(ctx, "owner", task.Id, []FileUpload{{Name: "f", Data: []byte("x")}})
		require.NoError(t, err)
		files, err := st.files.FindByTask(ctx, task.Id)
		require.NoError(t, err)
		require.Len(t, files, 1)

		broken := NewFileService(st.files, unreachableTaskStore{st.tasks}, testTracer)
		err = broken.Delete(ctx, "owner", files[0].Id)
		assert.ErrorIs(t, err, errStoreDown)
		assert.NotErrorIs(t, err, domain.ErrForbidden())

		require.NoError(t, st.tasks.SoftDelete(ctx, task.Id, testNow))
		assert.ErrorIs(t, svc.Delete(ctx, "owner", files[0].Id), domain.ErrForbidden())
	})
}
