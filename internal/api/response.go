package api

import (
	"encoding/json"
	"net/http"
)

// errorBody is the envelope for every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes body as the response with the given status. A nil body
// sets the headers only.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error envelope with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
