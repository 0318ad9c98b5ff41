package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Machine-readable error codes carried alongside the human message.
// Clients branch on the code, never on the message text.
const (
	CodeBadRequest       = "bad_request"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeQuotaExceeded    = "quota_exceeded"
)

// ErrorResponse is the envelope every failing endpoint returns.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const maxBodyBytes = 1 << 20

// WriteJSON encodes data as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError responds with the error envelope and no machine code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteErrorWithCode responds with the error envelope and a machine code.
func WriteErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// RequireMethod reports whether the request method is one of those allowed.
// On mismatch it answers 405 with an Allow header; the caller must return.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteErrorWithCode(w, http.StatusMethodNotAllowed, "Method not allowed", CodeMethodNotAllowed)
	return false
}

// DecodeJSON decodes the request body into v, capping it at maxBodyBytes.
// On failure it answers 400; the caller must return.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "Request body is required", CodeBadRequest)
		return false
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), CodeBadRequest)
		return false
	}
	return true
}

// PathParam pulls the path segment between prefix and suffix, keeping the
// routes on plain net/http muxing. An empty suffix means the segment runs
// to the next slash. For /api/sessions/{id}/messages,
// PathParam(r, "/api/sessions/", "/messages") yields the id.
func PathParam(r *http.Request, prefix, suffix string) string {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == r.URL.Path {
		return ""
	}
	if suffix == "" {
		suffix = "/"
	}
	if idx := strings.Index(rest, suffix); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
