package handlers

import (
	"net/http"

	"task-management-app/tasks-service/services"

	"go.opentelemetry.io/otel/trace"
)

type NotificationHandler struct {
	service *services.NotificationService
	tracer  trace.Tracer
}

func NewNotificationHandler(service *services.NotificationService, t trace.Tracer) *NotificationHandler {
	return &NotificationHandler{service: service, tracer: t}
}

func (h *NotificationHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "NotificationHandler.GetAll")
	defer span.End()

	notifications, err := h.service.List(ctx, userIdFrom(r))
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(notifications, http.StatusOK, w)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "NotificationHandler.MarkAllRead")
	defer span.End()

	if err := h.service.MarkAllRead(ctx, userIdFrom(r)); err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(map[string]string{"message": "All notifications marked as read"}, http.StatusOK, w)
}
