package sheetapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"gradebook/internal/adapters/http/perf"
	"gradebook/internal/domain/student"
)

// newTestServer returns a server replying with the given content type and body,
// and records the last query it received.
func newTestServer(t *testing.T, status int, contentType, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var last url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = r.URL.Query()
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

// TestGetAll_Array verifies rows are returned with their own key spellings.
func TestGetAll_Array(t *testing.T) {
	srv, last := newTestServer(t, 200, "application/json; charset=utf-8",
		`[{"index":0,"Nom":"Dupont"},{"index":1,"nom":"Martin"}]`)
	c := NewClient(srv.URL, nil)

	rows, err := c.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error: %v", err)
	}
	if len(rows) != 2 || rows[0]["Nom"] != "Dupont" {
		t.Errorf("rows = %v", rows)
	}
	if last.Get("action") != ActionGet {
		t.Errorf("action = %q, want get", last.Get("action"))
	}
}

// TestGetAll_FramedEnvelope verifies leading framing and markup are tolerated.
func TestGetAll_FramedEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, 200, "application/json",
		")]}'\n<pre>[{\"nom\":\"a]b\"}]</pre>")
	rows, err := NewClient(srv.URL, nil).GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error: %v", err)
	}
	if len(rows) != 1 || rows[0]["nom"] != "a]b" {
		t.Errorf("rows = %v", rows)
	}
}

// TestGetAll_Wrapped verifies {"ok":true,"data":[...]} bodies.
func TestGetAll_Wrapped(t *testing.T) {
	srv, _ := newTestServer(t, 200, "application/json", `{"ok":true,"data":[{"nom":"A"}]}`)
	rows, err := NewClient(srv.URL, nil).GetAll(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetAll() = %v, %v", rows, err)
	}
}

// TestGetAll_WrapperWithoutData verifies an object body without rows is an
// error, never an empty sheet.
func TestGetAll_WrapperWithoutData(t *testing.T) {
	t.Run("empty data", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "application/json", `{"ok":true,"data":[]}`)
		rows, err := NewClient(srv.URL, nil).GetAll(context.Background())
		if err != nil || len(rows) != 0 {
			t.Errorf("GetAll() = %v, %v, want no rows and no error", rows, err)
		}
	})
	t.Run("error only", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "application/json", `{"error":"Exception: feuille introuvable"}`)
		rows, err := NewClient(srv.URL, nil).GetAll(context.Background())
		var re *RejectedError
		if !errors.As(err, &re) || re.Message != "Exception: feuille introuvable" || rows != nil {
			t.Errorf("GetAll() = %v, %v, want *RejectedError", rows, err)
		}
	})
	t.Run("no data field", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "application/json", `{"ok":true}`)
		_, err := NewClient(srv.URL, nil).GetAll(context.Background())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})
}

// TestCall_ErrorTaxonomy verifies every failure maps onto its error type.
func TestCall_ErrorTaxonomy(t *testing.T) {
	t.Run("non-JSON content type", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "text/html", `<html>login</html>`)
		_, err := NewClient(srv.URL, nil).GetAll(context.Background())
		if !errors.Is(err, ErrNotJSON) {
			t.Errorf("err = %v, want ErrNotJSON", err)
		}
	})
	t.Run("unbalanced body", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "application/json", `[{"nom":"A"}`)
		_, err := NewClient(srv.URL, nil).GetAll(context.Background())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})
	t.Run("bad status", func(t *testing.T) {
		srv, _ := newTestServer(t, 502, "text/plain", "bad gateway")
		_, err := NewClient(srv.URL, nil).GetAll(context.Background())
		var se *StatusError
		if !errors.As(err, &se) || se.Code != 502 {
			t.Errorf("err = %v, want *StatusError 502", err)
		}
	})
	t.Run("explicit rejection", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "application/json", `{"ok":false,"error":"row locked"}`)
		err := NewClient(srv.URL, nil).Delete(context.Background(), 3)
		var re *RejectedError
		if !errors.As(err, &re) || re.Message != "row locked" || re.Action != ActionDelete {
			t.Errorf("err = %v, want *RejectedError", err)
		}
	})
	t.Run("success false", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "application/json", `{"success":false}`)
		err := NewClient(srv.URL, nil).Create(context.Background(), student.Record{LastName: "A"})
		var re *RejectedError
		if !errors.As(err, &re) {
			t.Errorf("err = %v, want *RejectedError", err)
		}
	})
	t.Run("network", func(t *testing.T) {
		srv, _ := newTestServer(t, 200, "application/json", `[]`)
		srv.Close()
		_, err := NewClient(srv.URL, nil).GetAll(context.Background())
		var ne *NetworkError
		if !errors.As(err, &ne) {
			t.Errorf("err = %v, want *NetworkError", err)
		}
	})
}

// TestUpdate_SendsIndexAndFields verifies the update request parameters.
func TestUpdate_SendsIndexAndFields(t *testing.T) {
	srv, last := newTestServer(t, 200, "application/json", `{"ok":true}`)
	collector := perf.NewCollector(10)
	c := NewClient(srv.URL, nil).WithCollector(collector)

	rec := student.Record{LastName: "Dupont", FirstName: "Marie", Scores: student.Scores{1, 2, 3, 4, 5, 6}}
	if err := c.Update(context.Background(), 4, rec); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	q := *last
	if q.Get("action") != ActionUpdate || q.Get("index") != "4" {
		t.Errorf("query = %v", q)
	}
	if q.Get("nom") != "Dupont" || q.Get("orthographe") != "6" || q.Get("comportement") != "" {
		t.Errorf("fields = %v", q)
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
}

// TestBaseURLWithQuery verifies parameters are appended to an existing query.
func TestBaseURLWithQuery(t *testing.T) {
	srv, last := newTestServer(t, 200, "application/json", `[]`)
	if _, err := NewClient(srv.URL+"/exec?key=abc", nil).GetAll(context.Background()); err != nil {
		t.Fatalf("GetAll() error: %v", err)
	}
	if last.Get("key") != "abc" || last.Get("action") != "get" {
		t.Errorf("query = %v", *last)
	}
}
