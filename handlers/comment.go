package handlers

import (
	"net/http"

	"task-management-app/tasks-service/services"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

type CommentHandler struct {
	comments *services.CommentService
	tracer   trace.Tracer
}

func NewCommentHandler(s *services.CommentService, t trace.Tracer) *CommentHandler {
	return &CommentHandler{s, t}
}

func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CommentHandler.Create")
	defer span.End()

	req := &struct {
		Content string `json:"content"`
		TaskId  string `json:"taskId"`
	}{}
	if err := readReq(req, r, w); err != nil {
		return
	}

	comment, err := h.comments.Create(ctx, userIdFrom(r), req.TaskId, req.Content)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(comment, http.StatusCreated, w)
}

func (h CommentHandler) GetByTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CommentHandler.GetByTask")
	defer span.End()

	comments, err := h.comments.ListByTask(ctx, userIdFrom(r), mux.Vars(r)["taskId"])
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(comments, http.StatusOK, w)
}

func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CommentHandler.Update")
	defer span.End()

	req := &struct {
		Content string `json:"content"`
	}{}
	if err := readReq(req, r, w); err != nil {
		return
	}

	comment, err := h.comments.Update(ctx, userIdFrom(r), mux.Vars(r)["id"], req.Content)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(comment, http.StatusOK, w)
}

func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CommentHandler.Delete")
	defer span.End()

	if err := h.comments.Delete(ctx, userIdFrom(r), mux.Vars(r)["id"]); err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(struct {
		Message string `json:"message"`
	}{"Comment deleted"}, http.StatusOK, w)
}
