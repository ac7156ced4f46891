package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"

	"github.com/aouyang1/go-regress/internal/apierrors"
	"github.com/aouyang1/go-regress/payload"
)

// writePayload sanitizes and writes a payload tree as a 200 JSON response.
func (s *Server) writePayload(w http.ResponseWriter, r *http.Request, v payload.Value) {
	body, err := payload.Marshal(v)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write response", slog.String("error", err.Error()))
	}
}

// readJSON reads the whole body before decoding so a size limit error is not mistaken for
// malformed JSON.
func readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return bodyError(err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}

// decodeJSON reads the body into dst and runs struct validation.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if err := readJSON(r, dst); err != nil {
		return err
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// bodyError keeps size limit errors intact so they map to 413.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	if strings.Contains(err.Error(), "http: request body too large") {
		return apierrors.ErrPayloadTooLarge
	}
	return apierrors.InvalidRequestWithError(err)
}

// formBool reads a boolean form field. Unset fields take def.
func formBool(r *http.Request, key string, def bool) bool {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

// formID reads the first non-empty of keys as a positive integer id.
func formID(r *http.Request, keys ...string) (int64, bool) {
	for _, k := range keys {
		v := strings.TrimSpace(r.FormValue(k))
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// okResponse is the acknowledgement of a state change
type okResponse struct {
	OK        bool   `json:"ok"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func renderOK(w http.ResponseWriter, r *http.Request, updatedAt string) {
	render.JSON(w, r, okResponse{OK: true, UpdatedAt: updatedAt})
}
