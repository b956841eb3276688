package recipe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
)

const pageWithLD = `<html><head>
<script type="application/ld+json">{"@type":"Recipe","name":"First"}</script>
<script type="application/ld+json">{"@type":"Recipe","name":"Second"}</script>
</head><body>Recipe</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ld", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			http.Error(w, "missing user agent", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(pageWithLD))
	})
	mux.HandleFunc("/none", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>No structured data.</p></body></html>`))
	})
	mux.HandleFunc("/malformed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><script type="application/ld+json">{"name": "broken",</script></head></html>`))
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		// "Crème" in ISO-8859-1.
		_, _ = w.Write([]byte("<html><head><script type=\"application/ld+json\">{\"name\":\"Cr\xe8me\"}</script></head></html>"))
	})
	mux.HandleFunc("/meta-charset", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><meta charset=\"windows-1252\"><script type=\"application/ld+json\">{\"name\":\"Caf\xe9\"}</script></head></html>"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(srv *httptest.Server, timeout time.Duration) *Fetcher {
	return NewFetcherWithClient(srv.Client(), config.RecipeConfig{
		FetchTimeout: timeout,
		UserAgent:    "test-agent",
	})
}

func TestFetchStructuredData(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(srv, 5*time.Second)

	tests := []struct {
		path     string
		wantName string // "" means absent
	}{
		{"/ld", "First"},
		{"/none", ""},
		{"/malformed", ""},
		{"/latin1", "Crème"},
		{"/meta-charset", "Café"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			data, err := f.FetchStructuredData(context.Background(), srv.URL+tt.path)
			if err != nil {
				t.Fatalf("FetchStructuredData: %v", err)
			}
			if tt.wantName == "" {
				if data != nil {
					t.Errorf("data = %v, want nil", data)
				}
				return
			}
			m, ok := data.(map[string]any)
			if !ok {
				t.Fatalf("data is %T, want object", data)
			}
			if m["name"] != tt.wantName {
				t.Errorf("name = %v, want %q", m["name"], tt.wantName)
			}
		})
	}
}

func TestFetchStructuredData_Failures(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		url     string
		timeout time.Duration
	}{
		{"non-2xx", srv.URL + "/missing", 5 * time.Second},
		{"timeout", srv.URL + "/slow", 50 * time.Millisecond},
		{"unreachable", "http://127.0.0.1:1/recipe", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(srv, tt.timeout)
			data, err := f.FetchStructuredData(context.Background(), tt.url)
			if data != nil {
				t.Errorf("data = %v, want nil", data)
			}
			if got := models.CodeOf(err); got != models.ErrCodeFetchFailed {
				t.Fatalf("error = %v, want %s", err, models.ErrCodeFetchFailed)
			}
		})
	}
}

func TestFetchPage_KeepsHTML(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(srv, 5*time.Second)

	page, err := f.FetchPage(context.Background(), srv.URL+"/none")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.StructuredData != nil {
		t.Error("StructuredData should be nil")
	}
	if page.HTML == "" || page.URL != srv.URL+"/none" {
		t.Errorf("page = %+v", page)
	}
}
