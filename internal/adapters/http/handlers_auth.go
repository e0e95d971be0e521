package web

import (
	"errors"
	"net/http"

	"gradebook/internal/adapters/http/middleware"
	"gradebook/internal/application/orchestrators"
)

type loginPage struct {
	Flash *flash
	Error string
}

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if len(deps.PasswordHash) == 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, http.StatusOK, "login.html", loginPage{})
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		result, err := orchestrators.ExecuteLogin(r.Context(),
			orchestrators.LoginInput{Password: r.PostForm.Get("password")},
			orchestrators.LoginDeps{PasswordHash: deps.PasswordHash})
		if errors.Is(err, orchestrators.ErrInvalidCredentials) {
			renderTemplate(w, r, http.StatusUnauthorized, "login.html", loginPage{Error: err.Error()})
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}

		token, err := sessions.Create(result.Teacher)
		if err != nil {
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		middleware.SetSessionCookie(w, token)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
