package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"task-management-app/tasks-service/domain"

	"github.com/rs/zerolog/log"
)

type errorResp struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeErrorResp(err error, w http.ResponseWriter) {
	if err == nil {
		return
	}

	status := http.StatusInternalServerError
	resp := errorResp{Message: "Server error"}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp = errorResp{Message: "Validation failed", Errors: verr.Fields}
	case errors.Is(err, domain.ErrUnauthorized()), errors.Is(err, domain.ErrInvalidToken()):
		status = http.StatusUnauthorized
		resp.Message = "Unauthorized"
	case errors.Is(err, domain.ErrForbidden()):
		status = http.StatusForbidden
		resp.Message = "Forbidden"
	case domain.IsNotFound(err):
		status = http.StatusNotFound
		resp.Message = err.Error()
	case errors.Is(err, domain.ErrUserAlreadyExists()), errors.Is(err, domain.ErrInvalidCredentials()):
		status = http.StatusBadRequest
		resp.Message = err.Error()
	default:
		log.Error().Err(err).Msg("unexpected error")
	}

	writeResp(resp, status, w)
}

func writeResp(resp any, status int, w http.ResponseWriter) {
	if resp == nil {
		w.WriteHeader(status)
		return
	}
	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(respBytes, status, w)
}

func writeJSON(body []byte, status int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func readReq(req any, r *http.Request, w http.ResponseWriter) error {
	err := json.NewDecoder(r.Body).Decode(req)
	if err != nil {
		writeResp(errorResp{Message: "Invalid JSON body"}, http.StatusBadRequest, w)
	}
	return err
}
