package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestSessionStore_Lifecycle verifies create, get, expiry and delete.
func TestSessionStore_Lifecycle(t *testing.T) {
	ss := NewSessionStore()
	token, err := ss.Create("enseignant")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if s, ok := ss.Get(token); !ok || s.Teacher != "enseignant" {
		t.Fatalf("Get() = %+v, %v", s, ok)
	}

	ss.mu.Lock()
	s := ss.sessions[token]
	s.CreatedAt = time.Now().Add(-SessionTTL - time.Minute)
	ss.sessions[token] = s
	ss.mu.Unlock()
	if _, ok := ss.Get(token); ok {
		t.Error("expired session should not be returned")
	}

	token, _ = ss.Create("enseignant")
	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("deleted session should not be returned")
	}
}

// TestRequireTeacher verifies redirects, 401s and the open paths.
func TestRequireTeacher(t *testing.T) {
	ss := NewSessionStore()
	handler := Chain(okHandler(http.StatusOK), RequireTeacher(true), Auth(ss))

	tests := []struct {
		path string
		want int
	}{
		{"/", http.StatusSeeOther},
		{"/api/students", http.StatusUnauthorized},
		{"/login", http.StatusOK},
		{"/documents/abc", http.StatusOK},
		{"/static/controller.js", http.StatusOK},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rr.Code, tt.want)
		}
	}

	token, _ := ss.Create("enseignant")
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("signed-in GET / = %d, want 200", rr.Code)
	}
}

// TestRequireTeacher_Disabled verifies no gate without a configured password.
func TestRequireTeacher_Disabled(t *testing.T) {
	handler := RequireTeacher(false)(okHandler(http.StatusOK))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
