package services

import (
	"context"
	"fmt"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// FileUpload is one attachment received from a client.
type FileUpload struct {
	Name     string
	MimeType string
	Data     []byte
}

type FileService struct {
	files  FileStore
	tasks  TaskStore
	tracer trace.Tracer
}

func NewFileService(files FileStore, tasks TaskStore, tracer trace.Tracer) *FileService {
	return &FileService{files: files, tasks: tasks, tracer: tracer}
}

// Upload attaches up to five files to a task the caller owns or is assigned to.
func (s *FileService) Upload(ctx context.Context, userId, taskId string, uploads []FileUpload) (int, error) {
	ctx, span := s.tracer.Start(ctx, "FileService.Upload")
	defer span.End()

	verr := &domain.ValidationError{}
	if taskId == "" {
		verr.Add("taskId", "is required")
	}
	switch {
	case len(uploads) == 0:
		verr.Add("files", "no files uploaded")
	case len(uploads) > domain.MaxFilesPerUpload:
		verr.Add("files", fmt.Sprintf("at most %d files per upload", domain.MaxFilesPerUpload))
	}
	for i, u := range uploads {
		if len(u.Data) > domain.MaxFileSize {
			verr.Add(fmt.Sprintf("files[%d]", i), "exceeds the 4MB limit")
		}
	}
	if err := verr.Err(); err != nil {
		return 0, err
	}

	if _, err := s.visibleTask(ctx, userId, taskId); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	files := make([]*domain.File, 0, len(uploads))
	for _, u := range uploads {
		mimeType := u.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, &domain.File{
			Id:           uuid.NewString(),
			TaskId:       taskId,
			OriginalName: u.Name,
			MimeType:     mimeType,
			Size:         int64(len(u.Data)),
			Data:         u.Data,
			CreatedAt:    now,
		})
	}
	if err := s.files.Create(ctx, files...); err != nil {
		return 0, err
	}
	return len(files), nil
}

// Download returns the file with its content.
func (s *FileService) Download(ctx context.Context, userId, id string) (*domain.File, error) {
	ctx, span := s.tracer.Start(ctx, "FileService.Download")
	defer span.End()

	file, err := s.files.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleTask(ctx, userId, file.TaskId); err != nil {
		return nil, err
	}
	return file, nil
}

// Delete removes a file. Only the owner of the parent task may do so.
func (s *FileService) Delete(ctx context.Context, userId, id string) error {
	ctx, span := s.tracer.Start(ctx, "FileService.Delete")
	defer span.End()

	file, err := s.files.FindById(ctx, id)
	if err != nil {
		return err
	}
	task, err := s.tasks.FindById(ctx, file.TaskId)
	if err != nil {
		// a soft-deleted parent no longer grants ownership
		if domain.IsNotFound(err) {
			return domain.ErrForbidden()
		}
		return err
	}
	if task.OwnerId != userId {
		return domain.ErrForbidden()
	}
	return s.files.Delete(ctx, id)
}

func (s *FileService) visibleTask(ctx context.Context, userId, taskId string) (*domain.Task, error) {
	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}
	task, err := s.tasks.FindById(ctx, taskId)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(userId) {
		return nil, domain.ErrForbidden()
	}
	return task, nil
}
