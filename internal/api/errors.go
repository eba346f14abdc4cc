// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/pushedge/internal/log"
)

// errorResponse is the JSON body of every non-2xx answer.
type errorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a coded error response correlated with the request id.
func writeError(w http.ResponseWriter, r *http.Request, code int, errCode, detail string) {
	writeJSON(w, code, errorResponse{
		Error:     errCode,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}
