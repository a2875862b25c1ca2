package web

import (
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/hpungsan/storydrop/internal/config"
	"github.com/hpungsan/storydrop/internal/db"
	"github.com/hpungsan/storydrop/internal/errors"
	"github.com/hpungsan/storydrop/internal/ops"
	"github.com/hpungsan/storydrop/internal/ratelimit"
)

// maxRequestBytes caps the raw request body. The store's real size
// ceiling applies post-encoding; this only keeps a hostile client from
// streaming unbounded bytes at the JSON parser.
const maxRequestBytes = 64 << 20

// Handlers contains HTTP route handlers for the story API.
type Handlers struct {
	store   *db.Store
	cfg     *config.Config
	limiter *ratelimit.Limiter
}

// HandlePublish handles POST /api/stories.
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, errors.NewInvalidRequest("could not read request body"))
		return
	}

	out, opErr := ops.Publish(r.Context(), h.store, h.cfg, h.limiter, ops.PublishInput{
		Raw:    raw,
		Origin: clientOrigin(r),
	})
	if opErr != nil {
		writeError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

// HandleResolve handles GET /api/stories/{id}.
func (h *Handlers) HandleResolve(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Resolve(r.Context(), h.store, ops.ResolveInput{
		ID: r.PathValue("id"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// clientOrigin identifies the publishing client by remote host.
// Forwarding headers are deliberately not trusted; anyone can set them.
func clientOrigin(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// writeError maps an operation error to a status code and JSON body.
// Server faults are logged with their cause but reach the client as a
// generic message.
func writeError(w http.ResponseWriter, err error) {
	sErr, ok := err.(*errors.StoryError)
	if !ok {
		sErr = errors.NewInternal(err)
	}

	var body errorBody
	body.Error.Code = string(sErr.Code)
	body.Error.Message = sErr.Message
	body.Error.Details = sErr.Details

	if sErr.Status >= 500 {
		log.Printf("server fault: %v", sErr)
		body.Error.Message = "internal error"
		body.Error.Details = nil
	}

	writeJSON(w, sErr.Status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
