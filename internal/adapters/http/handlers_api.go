package web

import (
	"encoding/json"
	"net/http"
	"time"

	"gradebook/internal/application/listutil"
	"gradebook/internal/application/orchestrators"
	"gradebook/internal/application/projections"
	"gradebook/internal/domain/behavior"
	"gradebook/internal/domain/student"
)

type apiStudent struct {
	Index  int               `json:"index"`
	Fields map[string]string `json:"fields"`
	Mean   float64           `json:"moyenne"`
}

type apiStudentList struct {
	Total    int          `json:"total"`
	Matching int          `json:"matching"`
	Page     int          `json:"page"`
	Pages    int          `json:"pages"`
	LoadedAt time.Time    `json:"loaded_at"`
	Students []apiStudent `json:"students"`
}

// handleAPIStudents handles GET /api/students with the screen's list parameters.
func handleAPIStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := ensureLoaded(r); err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}
	params := listutil.ParseListParams(r.URL.Query())
	res, err := projections.QueryGetStudentList(r.Context(), projections.GetStudentListQuery{Params: params},
		projections.GetStudentListDeps{Records: deps.Roster, View: view})
	if err != nil {
		internalError(w, err)
		return
	}

	out := apiStudentList{
		Total:    res.Total,
		Matching: res.PageInfo.Total,
		Page:     res.PageInfo.Page,
		Pages:    res.PageInfo.TotalPages,
		LoadedAt: deps.Roster.LoadedAt(),
		Students: []apiStudent{},
	}
	for _, row := range res.Rows {
		rec, err := deps.Roster.Get(row.Index)
		if err != nil {
			continue
		}
		out.Students = append(out.Students, apiStudent{Index: row.Index, Fields: rec.Fields(), Mean: row.Mean})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAPIStudent handles PUT /api/students/{index}: the edit document saves
// the full record here.
func handleAPIStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var row map[string]any
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		jsonError(w, http.StatusBadRequest, "JSON invalide")
		return
	}
	if err := ensureLoaded(r); err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}
	res, err := orchestrators.ExecuteUpdateStudent(r.Context(),
		orchestrators.UpdateStudentInput{Index: index, Record: student.Normalize(row, index)},
		orchestrators.UpdateStudentDeps{Store: deps.Store, Roster: deps.Roster})
	if err != nil {
		jsonError(w, writeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, apiStatus{OK: true, Reloaded: &res.Reloaded})
}

// handleAPIBehavior handles POST /api/students/{index}/behavior with a
// behavior.Submission body. The score is recomputed server-side.
func handleAPIBehavior(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var sub behavior.Submission
	if err := strictDecode(r, &sub); err != nil {
		jsonError(w, http.StatusBadRequest, "JSON invalide")
		return
	}
	res, err := saveBehavior(r, index, sub)
	if err != nil {
		jsonError(w, writeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, apiStatus{OK: true, Reloaded: &res.Reloaded})
}

// handleAPIRefresh handles POST /api/refresh: reloads the roster from the store.
func handleAPIRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := deps.Roster.Load(r.Context()); err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}
	reloaded := true
	writeJSON(w, http.StatusOK, apiStatus{OK: true, Reloaded: &reloaded})
}
