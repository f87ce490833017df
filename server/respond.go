package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leadwise/dispatch/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps an engine or store error onto an HTTP status by its
// taxonomy. Unclassified errors are internal.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case types.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case types.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case types.IsInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses the {id} path segment as an int64. A false return means the
// response has already been written.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")

		return 0, false
	}

	return id, true
}

// decodeJSON reads the request body into v. A false return means the
// response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")

		return false
	}

	return true
}
