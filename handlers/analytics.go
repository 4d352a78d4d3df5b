package handlers

import (
	"net/http"

	"task-management-app/tasks-service/domain"
	"task-management-app/tasks-service/services"

	"go.opentelemetry.io/otel/trace"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	tracer    trace.Tracer
}

func NewAnalyticsHandler(s *services.AnalyticsService, t trace.Tracer) *AnalyticsHandler {
	return &AnalyticsHandler{s, t}
}

func (h AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AnalyticsHandler.Stats")
	defer span.End()

	stats, err := h.analytics.Stats(ctx, userIdFrom(r))
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(stats, http.StatusOK, w)
}

func (h AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AnalyticsHandler.Trends")
	defer span.End()

	trends, err := h.analytics.Trends(ctx, userIdFrom(r))
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(struct {
		Trends domain.Trends `json:"trends"`
	}{trends}, http.StatusOK, w)
}
