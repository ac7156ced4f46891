package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"

	"github.com/aouyang1/go-regress/internal/apierrors"
	"github.com/aouyang1/go-regress/payload"
)

type tableStateResponse struct {
	Exists       bool    `json:"exists"`
	RowsJSON     string  `json:"rows_json"`
	FitIntercept bool    `json:"fit_intercept"`
	UpdatedAt    *string `json:"updated_at"`
}

type saveTableStateRequest struct {
	RowsJSON     *string `json:"rows_json" validate:"required"`
	FitIntercept *bool   `json:"fit_intercept"`
}

type excelStateResponse struct {
	Exists       bool     `json:"exists"`
	YColumn      string   `json:"y_column"`
	XColumns     []string `json:"x_columns"`
	FitIntercept bool     `json:"fit_intercept"`
	UpdatedAt    *string  `json:"updated_at"`
	HasFile      bool     `json:"has_file"`
}

type saveExcelStateRequest struct {
	YColumn      string   `json:"y_column" validate:"required"`
	XColumns     []string `json:"x_columns" validate:"required"`
	FitIntercept *bool    `json:"fit_intercept"`
}

func isoTime(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

// getTableState handles GET /api/state/table
func (s *Server) getTableState(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store.TableState(s.sid(r))
	if !ok {
		render.JSON(w, r, tableStateResponse{RowsJSON: "[]", FitIntercept: true})
		return
	}
	rows := st.RowsJSON
	if rows == "" {
		rows = "[]"
	}
	render.JSON(w, r, tableStateResponse{
		Exists:       true,
		RowsJSON:     rows,
		FitIntercept: st.FitIntercept,
		UpdatedAt:    isoTime(st.UpdatedAt),
	})
}

// saveTableState handles POST /api/state/table. rows_json is stored as sent but must be
// valid JSON.
func (s *Server) saveTableState(w http.ResponseWriter, r *http.Request) {
	var req saveTableStateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	if *req.RowsJSON != "" && !json.Valid([]byte(*req.RowsJSON)) {
		s.errors.HandleError(w, r, apierrors.Validation([]apierrors.ValidationError{{
			Field:   "rows_json",
			Message: "rows_json must hold valid JSON",
		}}))
		return
	}

	fitIntercept := req.FitIntercept == nil || *req.FitIntercept
	st, err := s.store.SaveTableState(s.sid(r), *req.RowsJSON, fitIntercept)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	renderOK(w, r, *isoTime(st.UpdatedAt))
}

// getExcelState handles GET /api/state/excel
func (s *Server) getExcelState(w http.ResponseWriter, r *http.Request) {
	sid := s.sid(r)
	st, ok := s.store.ExcelState(sid)
	if !ok {
		render.JSON(w, r, excelStateResponse{XColumns: []string{}, FitIntercept: true})
		return
	}
	xs := st.XColumns
	if xs == nil {
		xs = []string{}
	}
	render.JSON(w, r, excelStateResponse{
		Exists:       true,
		YColumn:      st.YColumn,
		XColumns:     xs,
		FitIntercept: st.FitIntercept,
		UpdatedAt:    isoTime(st.UpdatedAt),
		HasFile:      s.store.HasSessionFile(sid),
	})
}

// saveExcelState handles POST /api/state/excel. The saved workbook is left untouched.
func (s *Server) saveExcelState(w http.ResponseWriter, r *http.Request) {
	var req saveExcelStateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	fitIntercept := req.FitIntercept == nil || *req.FitIntercept
	if err := s.store.SaveExcelState(s.sid(r), req.YColumn, req.XColumns, fitIntercept, ""); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	renderOK(w, r, "")
}

// getExcelResult handles GET /api/state/excel/result
func (s *Server) getExcelResult(w http.ResponseWriter, r *http.Request) {
	result, updatedAt, ok := s.store.ExcelResult(s.sid(r))
	if !ok {
		s.writePayload(w, r, payload.Mapping{"exists": payload.Bool(false)})
		return
	}
	s.writePayload(w, r, payload.Mapping{
		"exists":     payload.Bool(true),
		"result":     result,
		"updated_at": payload.String(*isoTime(updatedAt)),
	})
}
