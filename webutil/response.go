package webutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// RequestTimeout is the deadline the router gives every request. Work a handler
// runs synchronously, such as notification fan-out, must fit inside it.
const RequestTimeout = 60 * time.Second

const (
	HeaderContentType = "Content-Type"
	// HeaderSignature carries the HMAC of webhook bodies, as "sha256=<hex>".
	HeaderSignature = "X-Forum-Signature"

	ContentTypeJSON          = "application/json"
	ContentTypeJSONUTF8      = "application/json; charset=utf-8"
	ContentTypeTextPlainUTF8 = "text/plain; charset=utf-8"
)

// ErrorResponse is the body of every failed API request. Fields is only
// present on validation failures and maps a dotted field path to its problem.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithJSON writes payload with the given status. Post bodies routinely
// contain markup, so HTML characters are left unescaped.
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err, "status", status)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"` + msgInternalServer + `"}`)
	}

	w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
