package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	regress "github.com/aouyang1/go-regress"
	"github.com/aouyang1/go-regress/design"
	"github.com/aouyang1/go-regress/internal/apierrors"
	"github.com/aouyang1/go-regress/internal/metrics"
	"github.com/aouyang1/go-regress/internal/sheet"
	"github.com/aouyang1/go-regress/payload"
)

// multipartMemory is the part of a multipart body kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// regressionRequest is the body of the JSON and chart routes. Missing or empty columns are
// reported by the design matrix builder rather than by struct validation.
type regressionRequest struct {
	Y            []float64            `json:"y"`
	X            map[string][]float64 `json:"X"`
	FitIntercept *bool                `json:"fit_intercept"`
	Diagnostics  bool                 `json:"diagnostics"`
	Outliers     *outlierRequest      `json:"outliers"`
}

type outlierRequest struct {
	LowerPercentile float64 `json:"lower_percentile" validate:"gte=0,lte=1,ltfield=UpperPercentile"`
	UpperPercentile float64 `json:"upper_percentile" validate:"gte=0,lte=1"`
	TukeyFactor     float64 `json:"tukey_factor" validate:"gt=0"`
}

func (req *regressionRequest) fitIntercept() bool {
	return req.FitIntercept == nil || *req.FitIntercept
}

func (req *regressionRequest) diagnosticOptions() *regress.DiagnosticOptions {
	opt := regress.NewDefaultDiagnosticOptions()
	if req.Outliers != nil {
		opt.OutlierOptions = &regress.OutlierOptions{
			LowerPercentile: req.Outliers.LowerPercentile,
			UpperPercentile: req.Outliers.UpperPercentile,
			TukeyFactor:     req.Outliers.TukeyFactor,
		}
	}
	return opt
}

// columnSelection is the spreadsheet column choice sent as form fields
type columnSelection struct {
	Y            string
	X            []string
	FitIntercept bool
	Diagnostics  bool
}

func columnsFromForm(r *http.Request) (columnSelection, error) {
	sel := columnSelection{
		Y:            strings.TrimSpace(r.FormValue("y_column")),
		X:            sheet.SplitColumns(r.FormValue("x_columns")),
		FitIntercept: formBool(r, "fit_intercept", true),
		Diagnostics:  formBool(r, "diagnostics", false),
	}
	if sel.Y == "" {
		return sel, apierrors.NewWithDetails(http.StatusBadRequest, "MISSING_PARAMETER", "y_column is required", "y_column")
	}
	if len(sel.X) == 0 {
		return sel, sheet.ErrNoXColumns
	}
	return sel, nil
}

// parseForm accepts both urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return bodyError(err)
	}
	return nil
}

// readUpload returns the content and name of the "file" part.
func readUpload(r *http.Request) ([]byte, string, error) {
	f, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", apierrors.NewWithDetails(http.StatusBadRequest, "MISSING_PARAMETER", "file is required", "file")
		}
		return nil, "", bodyError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, "", bodyError(err)
	}
	return content, header.Filename, nil
}

// fit builds the design matrix and fits it, recording the outcome under source.
func (s *Server) fit(source string, y []float64, x design.Columns, fitIntercept bool) (*regress.NamedFitResult, error) {
	start := time.Now()
	res, err := regress.Fit(y, x, fitIntercept)
	if err != nil {
		if errors.Is(err, design.ErrInvalidInput) {
			s.metrics.ObserveInvalidInput(source)
		}
		return nil, err
	}
	s.metrics.ObserveFit(source, res.Strategy, time.Since(start))
	return res, nil
}

// fitSheet fits the selected columns of a workbook and shapes the response.
func (s *Server) fitSheet(source string, sh *sheet.Sheet, sel columnSelection) (payload.Mapping, error) {
	y, x, err := sh.Columns(sel.Y, sel.X)
	if err != nil {
		return nil, err
	}
	res, err := s.fit(source, y, x, sel.FitIntercept)
	if err != nil {
		return nil, err
	}

	out := res.Payload(payload.Mapping{
		"columns_used": payload.Mapping{
			"y": payload.String(sel.Y),
			"X": payload.MustFrom(sel.X),
		},
	})
	if sel.Diagnostics {
		d, err := regress.Diagnose(res, x, nil)
		if err != nil {
			return nil, err
		}
		out["diagnostics"] = d.Payload()
	}
	return out, nil
}

// regressionJSON handles POST /api/regression/json
func (s *Server) regressionJSON(w http.ResponseWriter, r *http.Request) {
	var req regressionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	res, err := s.fit(metrics.SourceJSON, req.Y, req.X, req.fitIntercept())
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	out := res.Payload(nil)
	if req.Diagnostics || req.Outliers != nil {
		d, err := regress.Diagnose(res, req.X, req.diagnosticOptions())
		if err != nil {
			s.errors.HandleError(w, r, err)
			return
		}
		out["diagnostics"] = d.Payload()
	}
	s.writePayload(w, r, out)
}

// regressionChart handles POST /api/regression/chart, rendering the fit as an html page.
func (s *Server) regressionChart(w http.ResponseWriter, r *http.Request) {
	var req regressionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	res, err := s.fit(metrics.SourceChart, req.Y, req.X, req.fitIntercept())
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := regress.PlotFit(&buf, res, req.Y); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write chart", slog.String("error", err.Error()))
	}
}

// regressionExcel handles POST /api/regression/excel. The workbook is kept as the session's
// file so later fits can reuse it.
func (s *Server) regressionExcel(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	content, _, err := readUpload(r)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	sel, err := columnsFromForm(r)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	sh, err := sheet.Read(bytes.NewReader(content))
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	out, err := s.fitSheet(metrics.SourceExcel, sh, sel)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	sid := s.sid(r)
	path, err := s.store.WriteSessionFile(sid, content)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	if err := s.store.SaveExcelState(sid, sel.Y, sel.X, sel.FitIntercept, path); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	if err := s.store.SaveExcelResult(sid, out); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writePayload(w, r, out)
}

// regressionExcelReuse handles POST /api/regression/excel/reuse, fitting the session's saved
// workbook with a new column selection.
func (s *Server) regressionExcelReuse(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	sel, err := columnsFromForm(r)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	sid := s.sid(r)
	path, err := s.store.SessionFile(sid)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	sh, err := sheet.Open(path)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	out, err := s.fitSheet(metrics.SourceReuse, sh, sel)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	if err := s.store.SaveExcelState(sid, sel.Y, sel.X, sel.FitIntercept, ""); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	if err := s.store.SaveExcelResult(sid, out); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writePayload(w, r, out)
}
