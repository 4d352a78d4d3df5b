package handlers

import (
	"context"
	"net/http"
	"strings"

	"task-management-app/tasks-service/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type KeyUser struct{}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// MiddlewareAuth rejects requests without a valid bearer token and stores the
// caller's id in the request context.
func MiddlewareAuth(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeErrorResp(domain.ErrUnauthorized(), rw)
				return
			}
			userId, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				writeErrorResp(err, rw)
				return
			}

			ctx := context.WithValue(r.Context(), KeyUser{}, userId)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}

func MiddlewareContentTypeSet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(rw, r)
	})
}

func MiddlewareRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		rw.Header().Set("X-Request-Id", id)
		next.ServeHTTP(rw, r)
	})
}

func userIdFrom(r *http.Request) string {
	userId, _ := r.Context().Value(KeyUser{}).(string)
	return userId
}
