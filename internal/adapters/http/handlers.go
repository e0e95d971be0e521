package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"gradebook/internal/adapters/http/middleware"
	"gradebook/internal/application/listutil"
	"gradebook/internal/application/orchestrators"
	"gradebook/internal/application/projections"
	"gradebook/internal/application/roster"
	"gradebook/internal/domain/student"
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

// apiStatus is the body of every JSON write response.
type apiStatus struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Reloaded *bool  `json:"reloaded,omitempty"`
}

func jsonError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiStatus{Error: msg})
}

// writeStatus maps an orchestrator error to an HTTP status.
func writeStatus(err error) int {
	var verr *student.ValidationError
	var werr *orchestrators.WriteError
	switch {
	case errors.As(err, &verr), errors.Is(err, orchestrators.ErrNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, student.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &werr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// pathIndex parses the {index} path segment.
func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || i < 0 {
		http.Error(w, "index invalide", http.StatusBadRequest)
		return 0, false
	}
	return i, true
}

// ensureLoaded fetches the roster once if nothing has been loaded yet.
func ensureLoaded(r *http.Request) error {
	if !deps.Roster.LoadedAt().IsZero() {
		return nil
	}
	return deps.Roster.Load(r.Context())
}

// flash is a one-shot message shown as a toast after a redirect.
type flash struct {
	Kind    string // "ok" or "error"
	Message string
}

const flashCookieName = "gradebook_flash"

func setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HttpOnly: true,
		Secure:   middleware.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

func takeFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	return &flash{Kind: kind, Message: msg}
}

// redirectHome sends form posts back to the screen with a flash message.
func redirectHome(w http.ResponseWriter, r *http.Request, kind, msg string) {
	setFlash(w, kind, msg)
	target := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path == "/" && ref.RawQuery != "" {
		target = "/?" + ref.RawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	executeTemplate(w, r, status, templateName, "layout.html", data)
}

// executeTemplate parses layout.html with page and runs the named template.
func executeTemplate(w http.ResponseWriter, r *http.Request, status int, page, name string, data any) {
	_, loggedIn := middleware.GetSessionFromContext(r.Context())
	funcMap := template.FuncMap{
		"csrfField":   func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":   func() string { return csrf.Token(r) },
		"authEnabled": func() bool { return len(deps.PasswordHash) > 0 },
		"isLoggedIn":  func() bool { return loggedIn },
		"score":       frenchNumber,
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
	}
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets, "templates/layout.html", "templates/"+page)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render_failed", "template", page, "error", err.Error())
	}
}

// frenchNumber prints 14.5 as "14,5".
func frenchNumber(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

type skillInput struct {
	Key   string
	Label string
}

type sortOption struct {
	Value    roster.SortOrder
	Label    string
	Selected bool
}

var sortLabels = map[roster.SortOrder]string{
	roster.SortNameAsc:   "Nom (A → Z)",
	roster.SortNameDesc:  "Nom (Z → A)",
	roster.SortClassAsc:  "Classe (A → Z)",
	roster.SortClassDesc: "Classe (Z → A)",
}

type pageLink struct {
	Number  int
	Query   string
	Current bool
}

type screenPage struct {
	List           projections.GetStudentListResult
	Flash          *flash
	LoadError      string
	LoadedAt       time.Time
	Skills         []skillInput
	SortOptions    []sortOption
	PerPageOptions []int
	Pages          []pageLink
	ResetQuery     string
	EmailEnabled   bool
	PDFEnabled     bool
	ReportTo       string
	// Form re-fills the add form after a validation failure.
	Form map[string]string
}

// handleScreen renders GET /: the add form, controls, the list and the import form.
// A full render refetches the roster so positional indexes match the sheet;
// ?partial=list renders the cached list alone for the search box.
func handleScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("partial") == "list" {
		page := buildScreen(w, r, ensureLoaded)
		executeTemplate(w, r, http.StatusOK, "screen.html", "list", page)
		return
	}
	page := buildScreen(w, r, reloadRoster)
	renderTemplate(w, r, http.StatusOK, "screen.html", page)
}

// reloadRoster fetches the roster unconditionally. On failure the previous
// records stay in place.
func reloadRoster(r *http.Request) error {
	return deps.Roster.Load(r.Context())
}

func buildScreen(w http.ResponseWriter, r *http.Request, load func(*http.Request) error) screenPage {
	page := screenPage{
		Flash:          takeFlash(w, r),
		PerPageOptions: listutil.PerPageOptions,
		EmailEnabled:   deps.Sender != nil,
		PDFEnabled:     deps.Presenter != nil,
		ReportTo:       deps.ReportTo,
		Form:           map[string]string{},
	}
	if err := load(r); err != nil {
		page.LoadError = err.Error()
	}
	page.LoadedAt = deps.Roster.LoadedAt()

	params := listutil.ParseListParams(r.URL.Query())
	res, _ := projections.QueryGetStudentList(r.Context(), projections.GetStudentListQuery{Params: params},
		projections.GetStudentListDeps{Records: deps.Roster, View: view})
	page.List = res

	for i, key := range student.SkillKeys {
		page.Skills = append(page.Skills, skillInput{Key: key, Label: student.Skills[i]})
	}
	for _, o := range roster.SortOrders {
		page.SortOptions = append(page.SortOptions, sortOption{Value: o, Label: sortLabels[o], Selected: o == res.Params.View.Sort})
	}
	for _, n := range res.PageInfo.PageNumbers() {
		page.Pages = append(page.Pages, pageLink{Number: n, Query: res.Params.WithPage(n).Encode(), Current: n == res.PageInfo.Page})
	}
	page.ResetQuery = url.Values{
		listutil.ParamClass: {roster.AllClasses},
		listutil.ParamSort:  {string(roster.SortNameAsc)},
	}.Encode()
	return page
}

// rowFromForm copies the posted wire fields into a loosely-keyed row.
func rowFromForm(form url.Values) map[string]any {
	row := map[string]any{}
	for _, k := range student.WireKeys {
		if v := form.Get(k); v != "" {
			row[k] = v
		}
	}
	return row
}

// handleAddStudent handles POST /students from the add form or as JSON.
func handleAddStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var row map[string]any
	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			jsonError(w, http.StatusBadRequest, "JSON invalide")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		row = rowFromForm(r.PostForm)
	}
	delete(row, "index")

	res, err := orchestrators.ExecuteAddStudent(r.Context(),
		orchestrators.AddStudentInput{Record: student.Normalize(row, 0)},
		orchestrators.AddStudentDeps{Store: deps.Store, Roster: deps.Roster})

	if isJSONRequest(r) {
		if err != nil {
			jsonError(w, writeStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, apiStatus{OK: true, Reloaded: &res.Reloaded})
		return
	}

	var verr *student.ValidationError
	if errors.As(err, &verr) {
		page := buildScreen(w, r, ensureLoaded)
		page.Flash = &flash{Kind: "error", Message: verr.Error()}
		for _, k := range student.WireKeys {
			page.Form[k] = r.PostForm.Get(k)
		}
		renderTemplate(w, r, http.StatusBadRequest, "screen.html", page)
		return
	}
	if err != nil {
		redirectHome(w, r, "error", err.Error())
		return
	}
	redirectHome(w, r, "ok", afterWrite(res.Reloaded, res.Record.FullName()+" ajouté(e)."))
}

// handleDeleteStudent handles POST /students/{index}/delete. The form must carry confirm=yes.
func handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	if err := ensureLoaded(r); err != nil {
		redirectHome(w, r, "error", err.Error())
		return
	}
	res, err := orchestrators.ExecuteDeleteStudent(r.Context(),
		orchestrators.DeleteStudentInput{Index: index, Confirmed: r.PostForm.Get("confirm") == "yes"},
		orchestrators.DeleteStudentDeps{Store: deps.Store, Roster: deps.Roster})
	if errors.Is(err, orchestrators.ErrNotConfirmed) {
		redirectHome(w, r, "error", "Suppression annulée: cochez la confirmation.")
		return
	}
	if err != nil {
		redirectHome(w, r, "error", err.Error())
		return
	}
	redirectHome(w, r, "ok", afterWrite(res.Reloaded, res.Record.FullName()+" supprimé(e)."))
}

// afterWrite appends a reload warning to a success message.
func afterWrite(reloaded bool, msg string) string {
	if !reloaded {
		msg += " La liste n'a pas pu être rechargée."
	}
	return msg
}
