// Package store persists per session bookkeeping: the last table and spreadsheet parameters,
// the last spreadsheet result, and a library of uploaded workbooks. State lives in memory and
// is written through to a compressed snapshot on every change.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/go-regress/internal/session"
	"github.com/aouyang1/go-regress/payload"
	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	snapshotName   = "state.json.zst"
	uploadsDir     = "uploads"
	sessionFile    = "session.xlsx"
	defaultName    = "upload.xlsx"
	snapshotFormat = 1
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidID     = errors.New("invalid session id")
	ErrNoSessionFile = errors.New("no saved file for this session")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Kinds of library files.
const (
	KindAuto     = "auto"
	KindSimple   = "simple"
	KindMultiple = "multiple"
)

// TableState is the last manually entered table of a session.
type TableState struct {
	RowsJSON     string    `json:"rows_json"`
	FitIntercept bool      `json:"fit_intercept"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExcelState is the last spreadsheet column selection of a session.
type ExcelState struct {
	YColumn      string    `json:"y_column"`
	XColumns     []string  `json:"x_columns"`
	FitIntercept bool      `json:"fit_intercept"`
	FilePath     string    `json:"file_path,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExcelResult is the last spreadsheet fit response of a session.
type ExcelResult struct {
	Result    json.RawMessage `json:"result"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// File is a workbook in a session's library.
type File struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size_bytes"`
	Kind       string    `json:"kind"`
	YColumn    string    `json:"y_column,omitempty"`
	XColumns   []string  `json:"x_columns,omitempty"`
	Checksum   string    `json:"checksum"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SizeKB returns the size in kilobytes rounded to one decimal.
func (f File) SizeKB() float64 {
	return float64(int64(float64(f.Size)/1024.0*10+0.5)) / 10
}

type sessionState struct {
	Table       *TableState     `json:"table,omitempty"`
	Excel       *ExcelState     `json:"excel,omitempty"`
	ExcelResult *ExcelResult    `json:"excel_result,omitempty"`
	Files       map[int64]*File `json:"files,omitempty"`
}

type snapshot struct {
	Format     int                      `json:"format"`
	NextFileID int64                    `json:"next_file_id"`
	Sessions   map[string]*sessionState `json:"sessions"`
}

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	dir    string
	state  snapshot
	logger *slog.Logger
	now    func() time.Time
}

// Open loads the snapshot under dir, creating the directory layout if needed.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, uploadsDir), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create data dir, %w", err)
	}

	s := &Store{
		dir: dir,
		state: snapshot{
			Format:     snapshotFormat,
			NextFileID: 1,
			Sessions:   make(map[string]*sessionState),
		},
		logger: logger.With(slog.String("component", "store")),
		now:    func() time.Time { return time.Now().UTC() },
	}

	data, err := os.ReadFile(s.snapshotPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("starting with empty state", slog.String("dir", dir))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("unable to read snapshot, %w", err)
	}

	raw, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.state); err != nil {
		return nil, fmt.Errorf("unable to decode snapshot, %w, %w", err, ErrCorruptSnapshot)
	}
	if s.state.Sessions == nil {
		s.state.Sessions = make(map[string]*sessionState)
	}
	s.logger.Info("loaded state",
		slog.String("dir", dir),
		slog.Int("sessions", len(s.state.Sessions)),
	)
	return s, nil
}

func (s *Store) snapshotPath() string {
	return filepath.Join(s.dir, snapshotName)
}

// persist writes the snapshot atomically. Callers must hold the write lock.
func (s *Store) persist() error {
	raw, err := json.Marshal(&s.state)
	if err != nil {
		return fmt.Errorf("unable to encode snapshot, %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, snapshotName+".*")
	if err != nil {
		return fmt.Errorf("unable to write snapshot, %w", err)
	}
	if _, err := tmp.Write(encode(raw)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to write snapshot, %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to write snapshot, %w", err)
	}
	return os.Rename(tmp.Name(), s.snapshotPath())
}

// clone copies st deeply enough that mutating the copy leaves st untouched. A nil st yields
// an empty state.
func (st *sessionState) clone() *sessionState {
	out := &sessionState{}
	if st == nil {
		return out
	}
	if st.Table != nil {
		t := *st.Table
		out.Table = &t
	}
	if st.Excel != nil {
		e := *st.Excel
		e.XColumns = append([]string(nil), st.Excel.XColumns...)
		out.Excel = &e
	}
	if st.ExcelResult != nil {
		r := *st.ExcelResult
		out.ExcelResult = &r
	}
	if st.Files != nil {
		out.Files = make(map[int64]*File, len(st.Files))
		for id, f := range st.Files {
			c := *f
			c.XColumns = append([]string(nil), f.XColumns...)
			out.Files[id] = &c
		}
	}
	return out
}

// update applies fn to a copy of the state of sid and keeps the copy only once the snapshot
// holding it has been written. An error from fn or from persisting leaves the store as it
// was. Callers must hold the write lock.
func (s *Store) update(sid string, fn func(st *sessionState) error) error {
	prev, existed := s.state.Sessions[sid]
	prevNextID := s.state.NextFileID

	next := prev.clone()
	if err := fn(next); err != nil {
		s.state.NextFileID = prevNextID
		return err
	}

	s.state.Sessions[sid] = next
	if err := s.persist(); err != nil {
		if existed {
			s.state.Sessions[sid] = prev
		} else {
			delete(s.state.Sessions, sid)
		}
		s.state.NextFileID = prevNextID
		return err
	}
	return nil
}

// TableState returns the saved table of a session.
func (s *Store) TableState(sid string) (TableState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.state.Sessions[sid]
	if !exists || st.Table == nil {
		return TableState{}, false
	}
	return *st.Table, true
}

func (s *Store) SaveTableState(sid, rowsJSON string, fitIntercept bool) (TableState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := TableState{
		RowsJSON:     rowsJSON,
		FitIntercept: fitIntercept,
		UpdatedAt:    s.now(),
	}
	err := s.update(sid, func(st *sessionState) error {
		st.Table = &t
		return nil
	})
	return t, err
}

// ExcelState returns the saved column selection of a session.
func (s *Store) ExcelState(sid string) (ExcelState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.state.Sessions[sid]
	if !exists || st.Excel == nil {
		return ExcelState{}, false
	}
	out := *st.Excel
	out.XColumns = append([]string(nil), st.Excel.XColumns...)
	return out, true
}

// SaveExcelState records the column selection. An empty filePath keeps the previously saved
// file.
func (s *Store) SaveExcelState(sid, yColumn string, xColumns []string, fitIntercept bool, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(sid, func(st *sessionState) error {
		if st.Excel == nil {
			st.Excel = &ExcelState{}
		}
		st.Excel.YColumn = yColumn
		st.Excel.XColumns = append([]string(nil), xColumns...)
		st.Excel.FitIntercept = fitIntercept
		if filePath != "" {
			st.Excel.FilePath = filePath
		}
		st.Excel.UpdatedAt = s.now()
		return nil
	})
}

// SessionFile returns the path of the workbook last uploaded for direct fitting.
func (s *Store) SessionFile(sid string) (string, error) {
	state, ok := s.ExcelState(sid)
	if !ok || state.FilePath == "" {
		return "", ErrNoSessionFile
	}
	if _, err := os.Stat(state.FilePath); err != nil {
		return "", ErrNoSessionFile
	}
	return state.FilePath, nil
}

// HasSessionFile reports whether the session's saved workbook still exists on disk.
func (s *Store) HasSessionFile(sid string) bool {
	_, err := s.SessionFile(sid)
	return err == nil
}

// WriteSessionFile stores the workbook used for direct fitting, replacing any previous one.
func (s *Store) WriteSessionFile(sid string, content []byte) (string, error) {
	dir, err := s.userDir(sid)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, sessionFile)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("unable to save file, %w", err)
	}
	return path, nil
}

// ExcelResult returns the last spreadsheet fit payload of a session.
func (s *Store) ExcelResult(sid string) (payload.Value, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.state.Sessions[sid]
	if !exists || st.ExcelResult == nil {
		return nil, time.Time{}, false
	}
	v, err := payload.Parse(st.ExcelResult.Result)
	if err != nil {
		s.logger.Warn("discarding unreadable result", slog.String("sid", sid), slog.String("error", err.Error()))
		return nil, time.Time{}, false
	}
	return v, st.ExcelResult.UpdatedAt, true
}

// SaveExcelResult caches a sanitized fit payload for the session.
func (s *Store) SaveExcelResult(sid string, result payload.Value) error {
	raw, err := payload.Marshal(result)
	if err != nil {
		return fmt.Errorf("unable to encode result, %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(sid, func(st *sessionState) error {
		st.ExcelResult = &ExcelResult{
			Result:    raw,
			UpdatedAt: s.now(),
		}
		return nil
	})
}

func (s *Store) userDir(sid string) (string, error) {
	if !session.ValidID(sid) {
		return "", ErrInvalidID
	}
	dir := filepath.Join(s.dir, uploadsDir, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create upload dir, %w", err)
	}
	return dir, nil
}

// SafeName reduces an uploaded file name to its base name with only letters, digits, '_',
// '.' and '-'.
func SafeName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = defaultName
	}
	return unsafeChars.ReplaceAllString(base, "_")
}

// AddFile stores an uploaded workbook in the session's library. Uploading identical content
// under the same name returns the existing entry.
func (s *Store) AddFile(sid, filename string, content []byte) (File, error) {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = defaultName
	}
	checksum := fmt.Sprintf("%016x", xxhash.Sum64(content))

	s.mu.RLock()
	existing, found := s.findFile(sid, base, checksum)
	s.mu.RUnlock()
	if found {
		return existing, nil
	}

	dir, err := s.userDir(sid)
	if err != nil {
		return File{}, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s", strings.ReplaceAll(uuid.NewString(), "-", ""), SafeName(base)))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return File{}, fmt.Errorf("unable to save file, %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// an identical upload may have landed while the file was being written
	if existing, found := s.findFile(sid, base, checksum); found {
		s.removeFile(path)
		return existing, nil
	}

	var f File
	err = s.update(sid, func(st *sessionState) error {
		if st.Files == nil {
			st.Files = make(map[int64]*File)
		}
		f = File{
			ID:         s.state.NextFileID,
			Filename:   base,
			Path:       path,
			Size:       int64(len(content)),
			Kind:       KindAuto,
			Checksum:   checksum,
			UploadedAt: s.now(),
		}
		s.state.NextFileID++
		st.Files[f.ID] = &f
		return nil
	})
	if err != nil {
		s.removeFile(path)
		return File{}, err
	}
	return f, nil
}

// findFile looks up a library entry by name and checksum. Callers must hold the lock.
func (s *Store) findFile(sid, filename, checksum string) (File, bool) {
	st, exists := s.state.Sessions[sid]
	if !exists {
		return File{}, false
	}
	for _, f := range st.Files {
		if f.Checksum == checksum && f.Filename == filename {
			return *f, true
		}
	}
	return File{}, false
}

func (s *Store) removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("unable to remove file", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// Files lists the session's library, most recent upload first.
func (s *Store) Files(sid string) []File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.state.Sessions[sid]
	if !exists {
		return []File{}
	}
	out := make([]File, 0, len(st.Files))
	for _, f := range st.Files {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

// File returns a library entry whose file still exists on disk.
func (s *Store) File(sid string, id int64) (File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.state.Sessions[sid]
	if !exists {
		return File{}, fmt.Errorf("file %d, %w", id, ErrNotFound)
	}
	f, exists := st.Files[id]
	if !exists {
		return File{}, fmt.Errorf("file %d, %w", id, ErrNotFound)
	}
	if _, err := os.Stat(f.Path); err != nil {
		return File{}, fmt.Errorf("file %d on disk, %w", id, ErrNotFound)
	}
	return *f, nil
}

// UpdateFileColumns records the columns last fitted from a library file and classifies it as
// a simple or multiple regression.
func (s *Store) UpdateFileColumns(sid string, id int64, yColumn string, xColumns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(sid, func(st *sessionState) error {
		f := st.Files[id]
		if f == nil {
			return fmt.Errorf("file %d, %w", id, ErrNotFound)
		}
		f.YColumn = yColumn
		f.XColumns = append([]string(nil), xColumns...)
		f.Kind = KindSimple
		if len(xColumns) > 1 {
			f.Kind = KindMultiple
		}
		return nil
	})
}

// DeleteFile removes a library entry and its file. A file already gone from disk is not an
// error.
func (s *Store) DeleteFile(sid string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var path string
	err := s.update(sid, func(st *sessionState) error {
		f := st.Files[id]
		if f == nil {
			return fmt.Errorf("file %d, %w", id, ErrNotFound)
		}
		path = f.Path
		delete(st.Files, id)
		return nil
	})
	if err != nil {
		return err
	}
	s.removeFile(path)
	return nil
}
