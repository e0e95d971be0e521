// Package sheetserver serves the remote store action API over a sheet.Store.
// It is the counterpart of sheetapi.Client: one GET per call, the action in
// the query string, JSON out.
package sheetserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"gradebook/internal/adapters/sheetapi"
	"gradebook/internal/adapters/storage/sheet"
	"gradebook/internal/domain/student"
)

// numericKeys are emitted as JSON numbers when their cell parses as one,
// the way a spreadsheet returns numeric cells.
var numericKeys = map[string]bool{"comportement": true}

func init() {
	for _, k := range student.SkillKeys {
		numericKeys[k] = true
	}
}

// Server handles the action API.
type Server struct {
	store sheet.Store
	xssi  string
}

// New creates a Server backed by store.
func New(store sheet.Store) *Server {
	return &Server{store: store}
}

// WithXSSIPrefix prepends prefix (e.g. ")]}'") to every JSON body.
func (s *Server) WithXSSIPrefix(prefix string) *Server {
	s.xssi = prefix
	return s
}

type status struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ServeHTTP dispatches on the action query parameter.
// PRE: r is a GET request
// POST: always answers JSON; failures the caller can fix are {"ok":false,"error":...} with 200
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	action := q.Get("action")
	ctx := r.Context()

	switch action {
	case sheetapi.ActionGet:
		rows, err := s.store.List(ctx)
		if err != nil {
			s.internalError(w, action, err)
			return
		}
		s.writeJSON(w, http.StatusOK, encodeRows(rows))
		return

	case sheetapi.ActionCreate:
		if err := s.store.Append(ctx, rowFrom(q)); err != nil {
			s.internalError(w, action, err)
			return
		}

	case sheetapi.ActionUpdate, sheetapi.ActionDelete:
		index, err := strconv.Atoi(strings.TrimSpace(q.Get("index")))
		if err != nil {
			s.reject(w, action, "index invalide")
			return
		}
		if action == sheetapi.ActionUpdate {
			err = s.store.UpdateAt(ctx, index, rowFrom(q))
		} else {
			err = s.store.DeleteAt(ctx, index)
		}
		if errors.Is(err, sheet.ErrNoRow) {
			s.reject(w, action, "aucune ligne à l'index "+strconv.Itoa(index))
			return
		}
		if err != nil {
			s.internalError(w, action, err)
			return
		}

	default:
		s.reject(w, action, "action inconnue")
		return
	}

	slog.Info("sheet_action", "action", action, "index", q.Get("index"))
	s.writeJSON(w, http.StatusOK, status{OK: true})
}

func (s *Server) reject(w http.ResponseWriter, action, msg string) {
	slog.Warn("sheet_action_rejected", "action", action, "error", msg)
	s.writeJSON(w, http.StatusOK, status{Error: msg})
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	slog.Error("sheet_action_failed", "action", action, "error", err.Error())
	s.writeJSON(w, http.StatusInternalServerError, status{Error: "internal server error"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("sheet_encode_failed", "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if s.xssi != "" {
		_, _ = w.Write([]byte(s.xssi + "\n"))
	}
	_, _ = w.Write(body)
}

// rowFrom copies the known columns out of the query string.
func rowFrom(q map[string][]string) sheet.Row {
	row := sheet.Row{}
	for _, k := range student.WireKeys {
		if v, ok := q[k]; ok && len(v) > 0 {
			row[k] = v[0]
		}
	}
	return row
}

// encodeRows adds the 0-based index of each row.
func encodeRows(rows []sheet.Row) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(row)+1)
		m["index"] = i
		for k, v := range row {
			m[k] = cell(k, v)
		}
		out = append(out, m)
	}
	return out
}

func cell(key, v string) any {
	if !numericKeys[key] || v == "" {
		return v
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64); err == nil {
		return f
	}
	return v
}
