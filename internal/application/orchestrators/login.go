package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// TeacherName is the session identity of the single teacher account.
const TeacherName = "enseignant"

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	Teacher string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	// PasswordHash is a bcrypt hash; empty disables login.
	PasswordHash []byte
}

var (
	ErrInvalidCredentials = errors.New("mot de passe incorrect")
	ErrLoginDisabled      = errors.New("connexion désactivée")
)

// ExecuteLogin checks the teacher password against the configured hash.
// PRE: none
// POST: Returns the teacher identity on success
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if len(deps.PasswordHash) == 0 {
		return LoginResult{}, ErrLoginDisabled
	}
	if input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(deps.PasswordHash, []byte(input.Password)); err != nil {
		slog.Info("auth_event", "event", "login_failed", "reason", "wrong_password")
		return LoginResult{}, ErrInvalidCredentials
	}
	slog.Info("auth_event", "event", "login_success")
	return LoginResult{Teacher: TeacherName}, nil
}
