package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPutUploadsObject(t *testing.T) {
	var gotPath, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT got %s", r.Method)
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	url, err := client.Put(context.Background(), "appbox-files", "avatar.png", strings.NewReader("png-bytes"), 9, "image/png")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if gotPath != "/appbox-files/avatar.png" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotType != "image/png" {
		t.Fatalf("unexpected content type %q", gotType)
	}
	if gotBody != "png-bytes" {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if url != srv.URL+"/appbox-files/avatar.png" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestPutSurfacesRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.Put(context.Background(), "appbox-files", "x", strings.NewReader("y"), 1, ""); err == nil {
		t.Fatalf("expected error for 403 response")
	}
}
