package handlers

import (
	"net/http"

	"task-management-app/tasks-service/domain"
	"task-management-app/tasks-service/services"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TaskHandler struct {
	tasks  *services.TaskService
	export *services.ExportService
	tracer trace.Tracer
}

func NewTaskHandler(s *services.TaskService, e *services.ExportService, t trace.Tracer) *TaskHandler {
	return &TaskHandler{s, e, t}
}

// GetAll serves the filtered, sorted and paginated task list.
func (h TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TaskHandler.GetAll")
	defer span.End()

	body, err := h.tasks.List(ctx, userIdFrom(r), r.URL.Query())
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeJSON(body, http.StatusOK, w)
}

func (h TaskHandler) GetById(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TaskHandler.GetById")
	defer span.End()

	task, err := h.tasks.Get(ctx, userIdFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(task, http.StatusOK, w)
}

func (h TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TaskHandler.Create")
	defer span.End()

	req := &domain.TaskInput{}
	if err := readReq(req, r, w); err != nil {
		return
	}

	task, err := h.tasks.Create(ctx, userIdFrom(r), *req)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(task, http.StatusCreated, w)
}

func (h TaskHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TaskHandler.CreateBulk")
	defer span.End()

	var req []domain.TaskInput
	if err := readReq(&req, r, w); err != nil {
		return
	}

	tasks, err := h.tasks.CreateBulk(ctx, userIdFrom(r), req)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(tasks, http.StatusCreated, w)
}

// Update handles both PUT and PATCH; only the fields present in the body change.
func (h TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TaskHandler.Update")
	defer span.End()

	req := &domain.TaskPatchInput{}
	if err := readReq(req, r, w); err != nil {
		return
	}

	task, err := h.tasks.Update(ctx, userIdFrom(r), mux.Vars(r)["id"], *req)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(task, http.StatusOK, w)
}

func (h TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TaskHandler.Delete")
	defer span.End()

	if err := h.tasks.Delete(ctx, userIdFrom(r), mux.Vars(r)["id"]); err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(struct {
		Message string `json:"message"`
	}{"Task deleted"}, http.StatusOK, w)
}

func (h TaskHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TaskHandler.Export")
	defer span.End()

	body, err := h.export.Export(ctx, userIdFrom(r), r.URL.Query())
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
