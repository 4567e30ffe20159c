package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/inventory-dashboard/internal/domain"
)

// envelope — общий формат ответа API.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// mapError — HTTP-статус и текст для клиента. Подробности только в лог.
func mapError(err error) (int, string) {
	var syncErr *domain.SyncError
	switch {
	case errors.Is(err, domain.ErrBadParams), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "bad params"
	case errors.Is(err, domain.ErrUnauth):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict, "sync already in progress"
	case errors.As(err, &syncErr):
		return http.StatusInternalServerError, "sync failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, text := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, envelope{Success: false, Error: text})
}
