package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/middleware"
	"github.com/technosupport/vms-inventory/internal/paging"
)

const maxBodyBytes = 4 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func respondText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

// errorResponder turns service errors into responses. Server-side failures are
// logged with their cause and answered with an opaque code and the request id.
type errorResponder struct {
	log *zap.Logger
}

func newResponder(log *zap.Logger) errorResponder {
	if log == nil {
		log = zap.NewNop()
	}
	return errorResponder{log: log.Named("api")}
}

func (e errorResponder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	reqID := middleware.RequestID(r.Context())

	if status >= http.StatusInternalServerError {
		e.log.Error("request failed",
			zap.String("req_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		respondJSON(w, status, ErrorResponse{Error: "internal error", Code: kind.String(), RequestID: reqID})
		return
	}

	body := ErrorResponse{Error: err.Error(), Code: kind.String(), RequestID: reqID}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Error = ae.Message
		body.Fields = ae.Fields
	}
	respondJSON(w, status, body)
}

// decodeJSON reads one JSON value from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Invalid("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("request body is empty")
		}
		return &apperr.Error{Kind: apperr.Validation, Message: "malformed JSON body", Err: err}
	}
	return nil
}

// pathID parses the named URL parameter as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(name + " must be a positive integer")
	}
	return id, nil
}

// pageQuery reads pageNumber and pageSize, applying the defaults when absent.
func pageQuery(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	p, err := paging.Parse(q.Get("pageNumber"), q.Get("pageSize"), 0)
	if err != nil {
		return 0, 0, err
	}
	return p.Number, p.Size, nil
}
