package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Auth          *AuthHandler
	Tasks         *TaskHandler
	Comments      *CommentHandler
	Files         *FileHandler
	Analytics     *AnalyticsHandler
	Notifications *NotificationHandler
}

// NewRouter mounts every endpoint under /api. Only register and login are
// reachable without a bearer token.
func NewRouter(h Handlers, verifier TokenVerifier) *mux.Router {
	router := mux.NewRouter()
	router.Use(MiddlewareRequestId)
	router.Use(MiddlewareContentTypeSet)

	api := router.PathPrefix("/api").Subrouter()

	publicRouter := api.Methods(http.MethodPost).Subrouter()
	publicRouter.HandleFunc("/auth/register", h.Auth.Register)
	publicRouter.HandleFunc("/auth/login", h.Auth.LogIn)

	privateRouter := api.NewRoute().Subrouter()
	privateRouter.Use(MiddlewareAuth(verifier))

	getRouter := privateRouter.Methods(http.MethodGet).Subrouter()
	getRouter.HandleFunc("/auth/me", h.Auth.Me)
	getRouter.HandleFunc("/auth/users", h.Auth.Users)
	getRouter.HandleFunc("/tasks", h.Tasks.GetAll)
	getRouter.HandleFunc("/tasks/export", h.Tasks.Export)
	getRouter.HandleFunc("/tasks/{id}", h.Tasks.GetById)
	getRouter.HandleFunc("/comments/task/{taskId}", h.Comments.GetByTask)
	getRouter.HandleFunc("/files/{id}/download", h.Files.Download)
	getRouter.HandleFunc("/analytics/stats", h.Analytics.Stats)
	getRouter.HandleFunc("/analytics/trends", h.Analytics.Trends)
	getRouter.HandleFunc("/notifications", h.Notifications.GetAll)

	postRouter := privateRouter.Methods(http.MethodPost).Subrouter()
	postRouter.HandleFunc("/tasks", h.Tasks.Create)
	postRouter.HandleFunc("/tasks/bulk", h.Tasks.CreateBulk)
	postRouter.HandleFunc("/comments", h.Comments.Create)
	postRouter.HandleFunc("/files/upload", h.Files.Upload)

	putRouter := privateRouter.Methods(http.MethodPut).Subrouter()
	putRouter.HandleFunc("/tasks/{id}", h.Tasks.Update)
	putRouter.HandleFunc("/comments/{id}", h.Comments.Update)
	putRouter.HandleFunc("/notifications/read", h.Notifications.MarkAllRead)

	patchRouter := privateRouter.Methods(http.MethodPatch).Subrouter()
	patchRouter.HandleFunc("/tasks/{id}", h.Tasks.Update)

	deleteRouter := privateRouter.Methods(http.MethodDelete).Subrouter()
	deleteRouter.HandleFunc("/tasks/{id}", h.Tasks.Delete)
	deleteRouter.HandleFunc("/comments/{id}", h.Comments.Delete)
	deleteRouter.HandleFunc("/files/{id}", h.Files.Delete)

	return router
}
