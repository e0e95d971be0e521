package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gradebook/internal/adapters/spreadsheet"
	"gradebook/internal/application/orchestrators"
	"gradebook/internal/domain/student"
)

// ImportTTL is how long parsed rows wait for confirmation.
const ImportTTL = 10 * time.Minute

// MaxUploadBytes caps an uploaded spreadsheet.
const MaxUploadBytes = 10 << 20

// importPreviewSize is the number of names listed on the confirmation page.
const importPreviewSize = 10

type pendingImport struct {
	filename string
	rows     []map[string]any
	timer    *time.Timer
}

// importStore holds parsed uploads between the upload and the confirmation.
type importStore struct {
	mu      sync.Mutex
	pending map[string]*pendingImport
	ttl     time.Duration
}

func newImportStore(ttl time.Duration) *importStore {
	return &importStore{pending: map[string]*pendingImport{}, ttl: ttl}
}

func (s *importStore) put(filename string, rows []map[string]any) string {
	token := uuid.NewString()
	p := &pendingImport{filename: filename, rows: rows}
	s.mu.Lock()
	s.pending[token] = p
	p.timer = time.AfterFunc(s.ttl, func() { s.take(token) })
	s.mu.Unlock()
	return token
}

// take removes and returns the upload stored under token.
func (s *importStore) take(token string) (*pendingImport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[token]
	if !ok {
		return nil, false
	}
	p.timer.Stop()
	delete(s.pending, token)
	return p, true
}

type importConfirmPage struct {
	Flash    *flash
	Filename string
	Count    int
	Token    string
	Preview  []string
	More     int
}

// handleImport handles POST /import.
//
// Step one is a multipart upload (field "file"): the sheet is parsed and a
// confirmation page asks to type the row count. Step two posts token and
// confirm; only an exact count starts the import.
func handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		handleImportUpload(w, r)
		return
	}
	handleImportConfirm(w, r)
}

func handleImportUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		redirectHome(w, r, "error", "Fichier trop volumineux ou envoi invalide.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		redirectHome(w, r, "error", "Choisissez un fichier à importer.")
		return
	}
	defer file.Close()

	rows, err := spreadsheet.ReadRows(file, header.Filename)
	if err != nil {
		slog.Info("students_import_rejected", "file", header.Filename, "error", err)
		redirectHome(w, r, "error", "Import impossible: "+err.Error())
		return
	}

	page := importConfirmPage{
		Filename: header.Filename,
		Count:    len(rows),
		Token:    imports.put(header.Filename, rows),
	}
	for i, row := range rows {
		if i == importPreviewSize {
			page.More = len(rows) - i
			break
		}
		page.Preview = append(page.Preview, student.Normalize(row, i).FullName())
	}
	slog.Info("students_import_parsed", "file", header.Filename, "rows", len(rows))
	renderTemplate(w, r, http.StatusOK, "import_confirm.html", page)
}

func handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	p, ok := imports.take(r.PostForm.Get("token"))
	if !ok {
		redirectHome(w, r, "error", "Import expiré: renvoyez le fichier.")
		return
	}
	confirmed, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("confirm")))
	if err != nil {
		confirmed = -1
	}

	res, err := orchestrators.ExecuteImportStudents(r.Context(),
		orchestrators.ImportStudentsInput{Rows: p.rows, Confirmed: confirmed},
		orchestrators.ImportStudentsDeps{Store: deps.Store, Roster: deps.Roster})
	if errors.Is(err, orchestrators.ErrNotConfirmed) {
		redirectHome(w, r, "error", fmt.Sprintf("Import annulé: saisissez %d pour confirmer.", len(p.rows)))
		return
	}
	if err != nil {
		redirectHome(w, r, "error", fmt.Sprintf("Import interrompu après %d élèves: %v", res.Created, err))
		return
	}
	redirectHome(w, r, importKind(res), afterWrite(res.Reloaded, importSummary(res)))
}

func importKind(res orchestrators.ImportStudentsResult) string {
	if len(res.Errors) > 0 {
		return "error"
	}
	return "ok"
}

// importSummary reports the counts and the first failed rows.
func importSummary(res orchestrators.ImportStudentsResult) string {
	msg := fmt.Sprintf("%d élève(s) importé(s) sur %d.", res.Created, res.Total)
	for i, e := range res.Errors {
		if i == 3 {
			msg += fmt.Sprintf(" … et %d autre(s) erreur(s).", len(res.Errors)-i)
			break
		}
		msg += fmt.Sprintf(" Ligne %d (%s): %s.", e.Row, e.Name, e.Message)
	}
	return msg
}
