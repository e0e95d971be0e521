package present

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BlobTTL is how long a document stays reachable without an explicit release.
const BlobTTL = 60 * time.Second

type blob struct {
	body  []byte
	timer *time.Timer
}

// Registry holds documents behind temporary URLs.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*blob
	ttl     time.Duration
}

// NewRegistry creates a Registry whose entries expire after ttl.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = BlobTTL
	}
	return &Registry{entries: map[string]*blob{}, ttl: ttl}
}

// Put stores body and returns its id.
func (r *Registry) Put(body []byte) string {
	id := uuid.NewString()
	b := &blob{body: body}
	r.mu.Lock()
	r.entries[id] = b
	b.timer = time.AfterFunc(r.ttl, func() { r.Release(id) })
	r.mu.Unlock()
	return id
}

// Get returns the document stored under id.
func (r *Registry) Get(id string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return b.body, true
}

// Release drops id. Releasing an unknown id is a no-op.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.entries[id]; ok {
		b.timer.Stop()
		delete(r.entries, id)
	}
}

// Len returns the number of live documents.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ServeHTTP serves GET /documents/{id}.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(req.URL.Path, DocumentPath(""))
	body, ok := r.Get(id)
	if !ok {
		http.Error(w, "Document expiré ou introuvable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}
