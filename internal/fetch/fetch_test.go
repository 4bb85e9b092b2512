package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTP_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("expected User-Agent %q, got %q", UserAgent, got)
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewHTTP(srv.URL, 5*time.Second)
	body, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestHTTP_Fetch_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"server error is transient", http.StatusInternalServerError, Transient},
		{"bad gateway is transient", http.StatusBadGateway, Transient},
		{"throttling is transient", http.StatusTooManyRequests, Transient},
		{"not found is permanent", http.StatusNotFound, Permanent},
		{"forbidden is permanent", http.StatusForbidden, Permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := NewHTTP(srv.URL, 5*time.Second)
			_, err := f.Fetch(context.Background())

			var fetchErr *Error
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected *fetch.Error, got %v", err)
			}
			if fetchErr.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", fetchErr.Kind, tt.want)
			}
		})
	}
}

func TestHTTP_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewHTTP(srv.URL, 20*time.Millisecond)
	_, err := f.Fetch(context.Background())

	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}
	if fetchErr.Kind != Transient {
		t.Errorf("timeout should be transient, got %s", fetchErr.Kind)
	}
}

func TestHTTP_Fetch_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTP(srv.URL, 5*time.Second)
	if _, err := f.Fetch(ctx); err == nil {
		t.Fatal("expected error after cancellation")
	}
}

func TestHTTP_Fetch_BadURL(t *testing.T) {
	f := NewHTTP("://not-a-url", time.Second)
	_, err := f.Fetch(context.Background())

	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}
	if fetchErr.Kind != Permanent {
		t.Errorf("malformed URL should be permanent, got %s", fetchErr.Kind)
	}
}
