// Package httpapi exposes the REST and websocket surface of the platform.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/bitpredict/trading-platform/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}

// respondError maps a service error onto the wire. Internal causes are logged
// by the caller and never serialized; clients only see the client-safe
// message and kind.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.AsServiceError(err)

	if serviceErr.Kind == errors.KindInternal || serviceErr.Kind == errors.KindUnavailable {
		s.log.WithError(err).WithFields(map[string]interface{}{
			"path":   r.URL.Path,
			"method": r.Method,
		}).Error("request failed")
	}

	body := map[string]interface{}{
		"error": serviceErr.Message,
		"code":  string(serviceErr.Kind),
	}
	if len(serviceErr.Details) > 0 && !s.production {
		body["details"] = serviceErr.Details
	}
	writeJSON(w, serviceErr.HTTPStatus, body)
}
