package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"gradebook/internal/adapters/document"
	"gradebook/internal/adapters/present"
	"gradebook/internal/application/orchestrators"
	"gradebook/internal/domain/behavior"
	"gradebook/internal/domain/student"
)

// serveDocument builds a document and writes it as the response.
func serveDocument(w http.ResponseWriter, r *http.Request, index int, kind document.Kind, opts document.ReportOptions) {
	if err := ensureLoaded(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	html, err := orchestrators.ExecuteBuildDocument(r.Context(),
		orchestrators.BuildDocumentInput{Index: index, Kind: kind, Report: opts},
		orchestrators.BuildDocumentDeps{Records: deps.Roster})
	if errors.Is(err, student.ErrNotFound) {
		http.Error(w, "Élève introuvable", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(html)
}

// handleReport handles GET /students/{index}/report?print=1&close=1
func handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	serveDocument(w, r, index, document.KindReport, document.ReportOptions{
		AutoPrint: q.Get("print") == "1",
		AutoClose: q.Get("close") == "1",
	})
}

// handleEdit handles GET /students/{index}/edit
func handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if index, ok := pathIndex(w, r); ok {
		serveDocument(w, r, index, document.KindEdit, document.ReportOptions{})
	}
}

// handleBehavior handles GET (evaluation document) and POST (form save) for
// /students/{index}/behavior
func handleBehavior(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		serveDocument(w, r, index, document.KindBehavior, document.ReportOptions{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		res, err := saveBehavior(r, index, submissionFromForm(r))
		if err != nil {
			redirectHome(w, r, "error", err.Error())
			return
		}
		redirectHome(w, r, "ok", afterWrite(res.Reloaded, "Comportement de "+res.Record.FullName()+" enregistré."))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func submissionFromForm(r *http.Request) behavior.Submission {
	checked := func(k string) bool { return r.PostForm.Get(k) != "" }
	count := func(k string) int {
		n, _ := parseCount(r.PostForm.Get(k))
		return n
	}
	return behavior.Submission{
		Chatter:       checked(behavior.RuleChatter),
		Disrespect:    checked(behavior.RuleDisrespect),
		Homework:      checked(behavior.RuleHomework),
		Tardies:       count(behavior.RuleTardies),
		Missing:       count(behavior.RuleMissing),
		Participation: checked(behavior.RuleParticipation),
		Help:          checked(behavior.RuleHelp),
		Comment:       strings.TrimSpace(r.PostForm.Get("commentaire")),
	}
}

// parseCount reads a non-negative counter; blank is zero.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return max(0, n), nil
}

func saveBehavior(r *http.Request, index int, sub behavior.Submission) (orchestrators.WriteResult, error) {
	if err := ensureLoaded(r); err != nil {
		return orchestrators.WriteResult{}, err
	}
	return orchestrators.ExecuteEvaluateBehavior(r.Context(),
		orchestrators.EvaluateBehaviorInput{Index: index, Checklist: sub.Checklist()},
		orchestrators.EvaluateBehaviorDeps{Store: deps.Store, Roster: deps.Roster})
}

// handlePresent handles POST /students/{index}/present?kind=report|edit|behavior
//
// A report with a headless browser available is printed to PDF through the
// presenter. Every other case stores the document under a temporary URL and
// redirects the user's own browser (a target=_blank form) to it.
func handlePresent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	kind, err := document.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := ensureLoaded(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if kind == document.KindReport && deps.Presenter != nil {
		presentPDF(w, r, index)
		return
	}

	html, err := orchestrators.ExecuteBuildDocument(r.Context(),
		orchestrators.BuildDocumentInput{Index: index, Kind: kind},
		orchestrators.BuildDocumentDeps{Records: deps.Roster})
	if errors.Is(err, student.ErrNotFound) {
		http.Error(w, "Élève introuvable", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	id := deps.Documents.Put(html)
	slog.Info("document_published", "kind", kind, "index", index, "id", id)
	http.Redirect(w, r, present.DocumentPath(id), http.StatusSeeOther)
}

func presentPDF(w http.ResponseWriter, r *http.Request, index int) {
	rec, err := deps.Roster.Get(index)
	if err != nil {
		http.Error(w, "Élève introuvable", http.StatusNotFound)
		return
	}
	h, err := orchestrators.ExecutePresentDocument(r.Context(),
		orchestrators.PresentDocumentInput{Index: index, Kind: document.KindReport},
		orchestrators.PresentDocumentDeps{Records: deps.Roster, Presenter: deps.Presenter})
	var perr *present.PresentationError
	switch {
	case errors.Is(err, present.ErrPopupBlocked):
		http.Error(w, "Impossible d'ouvrir une fenêtre pour le bulletin.", http.StatusServiceUnavailable)
		return
	case errors.As(err, &perr):
		slog.Error("report_present_failed", "index", index, "strategies", perr.Strategies())
		http.Error(w, perr.Error(), http.StatusBadGateway)
		return
	case err != nil:
		internalError(w, err)
		return
	}
	defer h.Close()

	pdf, err := h.PDF(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	slog.Info("report_printed", "index", index, "strategy", h.Strategy(), "bytes", len(pdf))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+orchestrators.ReportBaseName(rec)+`.pdf"`)
	_, _ = w.Write(pdf)
}

// handleEmailReport handles POST /students/{index}/report/email
func handleEmailReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if deps.Sender == nil {
		redirectHome(w, r, "error", "L'envoi d'e-mails n'est pas configuré.")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	to := r.PostForm.Get("to")
	if to == "" {
		to = deps.ReportTo
	}
	if err := ensureLoaded(r); err != nil {
		redirectHome(w, r, "error", err.Error())
		return
	}
	res, err := orchestrators.ExecuteEmailReport(r.Context(),
		orchestrators.EmailReportInput{Index: index, To: to},
		orchestrators.EmailReportDeps{
			Records:     deps.Roster,
			Sender:      deps.Sender,
			Presenter:   deps.Presenter,
			FromAddress: deps.EmailFrom,
		})
	if err != nil {
		redirectHome(w, r, "error", "Échec de l'envoi du bulletin: "+err.Error())
		return
	}
	redirectHome(w, r, "ok", "Bulletin envoyé à "+to+" ("+res.Attachment+").")
}
