package http

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/aouyang1/go-regress/internal/apierrors"
	"github.com/aouyang1/go-regress/internal/metrics"
	"github.com/aouyang1/go-regress/internal/sheet"
	"github.com/aouyang1/go-regress/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errMissingID = apierrors.NewWithDetails(http.StatusBadRequest, "MISSING_PARAMETER", "id is required", "id")

// fileView is a library entry as listed to clients
type fileView struct {
	ID         int64    `json:"id"`
	Filename   string   `json:"filename"`
	SizeKB     float64  `json:"size_kb"`
	UploadedAt string   `json:"uploaded_at"`
	Kind       string   `json:"kind"`
	YColumn    string   `json:"y_column,omitempty"`
	XColumns   []string `json:"x_columns,omitempty"`
}

func newFileView(f store.File) fileView {
	return fileView{
		ID:         f.ID,
		Filename:   f.Filename,
		SizeKB:     f.SizeKB(),
		UploadedAt: *isoTime(f.UploadedAt),
		Kind:       f.Kind,
		YColumn:    f.YColumn,
		XColumns:   f.XColumns,
	}
}

type uploadResponse struct {
	OK   bool     `json:"ok"`
	File fileView `json:"file"`
}

type listResponse struct {
	Items []fileView `json:"items"`
}

type columnsUsed struct {
	Y  string  `json:"y"`
	X1 string  `json:"x1"`
	X2 *string `json:"x2"`
}

type toTableResponse struct {
	Rows        []map[string]string `json:"rows"`
	ColumnsUsed columnsUsed         `json:"columns_used"`
}

// libraryUpload handles POST /api/library/excel/upload. Only readable workbooks are kept.
func (s *Server) libraryUpload(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	content, filename, err := readUpload(r)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	if _, err := sheet.Read(bytes.NewReader(content)); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	f, err := s.store.AddFile(s.sid(r), filename, content)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, uploadResponse{OK: true, File: newFileView(f)})
}

// libraryList handles GET /api/library/excel/list
func (s *Server) libraryList(w http.ResponseWriter, r *http.Request) {
	files := s.store.Files(s.sid(r))
	items := make([]fileView, 0, len(files))
	for _, f := range files {
		items = append(items, newFileView(f))
	}
	render.JSON(w, r, listResponse{Items: items})
}

// openLibraryFile loads the workbook of the library entry named by the id or file_id field.
func (s *Server) openLibraryFile(r *http.Request) (store.File, *sheet.Sheet, error) {
	id, ok := formID(r, "file_id", "id")
	if !ok {
		return store.File{}, nil, errMissingID
	}
	f, err := s.store.File(s.sid(r), id)
	if err != nil {
		return store.File{}, nil, err
	}
	sh, err := sheet.Open(f.Path)
	if err != nil {
		return store.File{}, nil, err
	}
	return f, sh, nil
}

// libraryToTable handles POST /api/library/excel/to_table, returning the rows of a library
// workbook as strings keyed x, y and optionally x2. Column names match case insensitively and
// an x column requested as x or x1 falls back to the other alias.
func (s *Server) libraryToTable(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	_, sh, err := s.openLibraryFile(r)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	yReq := formDefault(r, "y_column", "y")
	yName, ok := sh.Resolve(yReq)
	if !ok {
		s.errors.HandleError(w, r, &sheet.MissingColumnError{Column: yReq})
		return
	}

	x1Req := formDefault(r, "x1_column", "x")
	var aliases []string
	if l := strings.ToLower(x1Req); l == "x" || l == "x1" {
		aliases = []string{"x", "x1"}
	}
	x1Name, ok := sh.Resolve(x1Req, aliases...)
	if !ok {
		s.errors.HandleError(w, r, &sheet.MissingColumnError{Column: x1Req})
		return
	}

	fields := map[string]string{"x": x1Name, "y": yName}
	used := columnsUsed{Y: yName, X1: x1Name}
	if x2Req := strings.TrimSpace(r.FormValue("x2_column")); x2Req != "" {
		// an unknown x2 is ignored
		if x2Name, ok := sh.Resolve(x2Req); ok {
			fields["x2"] = x2Name
			used.X2 = &x2Name
		}
	}

	rows, err := sh.Records(fields)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, toTableResponse{Rows: rows, ColumnsUsed: used})
}

// libraryCalc handles POST /api/library/excel/calc. The fitted columns are recorded on the
// library entry and the response is cached as the session's last spreadsheet result.
func (s *Server) libraryCalc(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	f, sh, err := s.openLibraryFile(r)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	sel, err := columnsFromForm(r)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	out, err := s.fitSheet(metrics.SourceLibrary, sh, sel)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	sid := s.sid(r)
	if err := s.store.UpdateFileColumns(sid, f.ID, sel.Y, sel.X); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	if err := s.store.SaveExcelResult(sid, out); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writePayload(w, r, out)
}

// libraryDelete handles POST /api/library/excel/delete with either a JSON body {"id": n} or
// an id/file_id form field.
func (s *Server) libraryDelete(w http.ResponseWriter, r *http.Request) {
	var (
		id int64
		ok bool
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			ID int64 `json:"id"`
		}
		if err := readJSON(r, &req); err != nil {
			s.errors.HandleError(w, r, err)
			return
		}
		id, ok = req.ID, req.ID > 0
	} else {
		if err := parseForm(r); err != nil {
			s.errors.HandleError(w, r, err)
			return
		}
		id, ok = formID(r, "id", "file_id")
	}
	if !ok {
		s.errors.HandleError(w, r, errMissingID)
		return
	}

	if err := s.store.DeleteFile(s.sid(r), id); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	renderOK(w, r, "")
}

// libraryDownload handles GET /api/library/excel/download?id=
func (s *Server) libraryDownload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		s.errors.HandleError(w, r, errMissingID)
		return
	}
	f, err := s.store.File(s.sid(r), id)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	http.ServeFile(w, r, f.Path)
}

// formDefault returns the trimmed form value of key, or def when it is blank.
func formDefault(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return def
}
