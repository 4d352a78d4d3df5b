package handlers

import (
	"net/http"

	"task-management-app/tasks-service/domain"
	"task-management-app/tasks-service/services"

	"go.opentelemetry.io/otel/trace"
)

type AuthHandler struct {
	auth   *services.AuthService
	tracer trace.Tracer
}

func NewAuthHandler(s *services.AuthService, t trace.Tracer) *AuthHandler {
	return &AuthHandler{s, t}
}

type authResp struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandler.Register")
	defer span.End()

	req := &services.RegisterInput{}
	if err := readReq(req, r, w); err != nil {
		return
	}

	token, user, err := h.auth.Register(ctx, *req)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(authResp{Token: token, User: user}, http.StatusCreated, w)
}

func (h AuthHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandler.LogIn")
	defer span.End()

	req := &struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := readReq(req, r, w); err != nil {
		return
	}

	token, user, err := h.auth.LogIn(ctx, req.Email, req.Password)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(authResp{Token: token, User: user}, http.StatusOK, w)
}

func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandler.Me")
	defer span.End()

	user, err := h.auth.Me(ctx, userIdFrom(r))
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(user, http.StatusOK, w)
}

func (h AuthHandler) Users(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandler.Users")
	defer span.End()

	users, err := h.auth.Users(ctx)
	if err != nil {
		writeErrorResp(err, w)
		return
	}
	writeResp(users, http.StatusOK, w)
}
