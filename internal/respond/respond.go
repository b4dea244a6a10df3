// Package respond writes JSON bodies in the shape the frontend expects.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON encodes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Detail writes an error body of the form {"detail": message}.
func Detail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"detail": message})
}

// DetailWith writes {"detail": message} merged with extra fields.
func DetailWith(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["detail"] = message
	JSON(w, status, body)
}

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
