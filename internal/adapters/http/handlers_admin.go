package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gradebook/internal/adapters/spreadsheet"
)

// handleAdminPerf handles GET /admin/perf?minutes=N&top=N as JSON.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		jsonError(w, http.StatusNotFound, "mesures désactivées")
		return
	}
	minutes := queryInt(r, "minutes", 60)
	top := queryInt(r, "top", 10)
	snap := perfCollector.Snapshot(time.Now().Add(-time.Duration(minutes)*time.Minute), top)
	writeJSON(w, http.StatusOK, snap)
}

func queryInt(r *http.Request, key string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n > 0 {
		return n
	}
	return def
}

// handleExport handles GET /export.xlsx: the loaded roster as a workbook.
func handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := ensureLoaded(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	records := deps.Roster.All()
	var buf bytes.Buffer
	if err := spreadsheet.WriteXLSX(&buf, records); err != nil {
		internalError(w, err)
		return
	}
	slog.Info("students_exported", "rows", len(records))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="eleves-`+time.Now().Format("2006-01-02")+`.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
