package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"task-management-app/tasks-service/domain"
	"task-management-app/tasks-service/services"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

// Form overhead allowed on top of the file payloads.
const uploadSlack = 1 << 20

type FileHandler struct {
	files  *services.FileService
	tracer trace.Tracer
}

func NewFileHandler(s *services.FileService, t trace.Tracer) *FileHandler {
	return &FileHandler{s, t}
}

func (h FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FileHandler.Upload")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxFilesPerUpload*(domain.MaxFileSize+uploadSlack))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResp(domain.NewValidationError("files", "upload too large"), w)
			return
		}
		writeErrorResp(domain.NewValidationError("files", "invalid multipart form"), w)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var uploads []services.FileUpload
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeErrorResp(err, w)
			return
		}
		// One byte past the limit is enough for the size check.
		data, err := io.ReadAll(io.LimitReader(f, domain.MaxFileSize+1))
		f.Close()
		if err != nil {
			writeErrorResp(err, w)
			return
		}
		uploads = append(uploads, services.FileUpload{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	count, err := h.files.Upload(ctx, userIdFrom(r), r.FormValue("taskId"), uploads)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}{"Files uploaded", count}, http.StatusCreated, w)
}

func (h FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FileHandler.Download")
	defer span.End()

	file, err := h.files.Download(ctx, userIdFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeErrorResp(err, w)
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (h FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FileHandler.Delete")
	defer span.End()

	if err := h.files.Delete(ctx, userIdFrom(r), mux.Vars(r)["id"]); err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(struct {
		Message string `json:"message"`
	}{"File deleted"}, http.StatusOK, w)
}
