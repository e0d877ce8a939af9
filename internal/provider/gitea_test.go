package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGiteaRequiresBaseURL(t *testing.T) {
	g := NewGitea(NewClient(), "", "")
	if _, err := g.LatestRelease(context.Background(), "acme/tool"); err == nil {
		t.Fatal("expected error without a base URL")
	}
}

func TestGiteaLatestRelease(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{
			"id": 5,
			"tag_name": "v0.3.1",
			"name": "0.3.1",
			"published_at": "2024-04-10T09:30:00Z",
			"assets": [
				{"id": 1, "name": "tool-linux-arm.tar.gz", "browser_download_url": "https://git.example/a.tar.gz", "size": 2048, "created_at": "2024-04-10T09:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	g := NewGitea(NewClient(), "tkn", server.URL)
	rel, err := g.LatestRelease(context.Background(), "acme/tool")
	if err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}

	if gotPath != "/api/v1/repos/acme/tool/releases/latest" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAuth != "token tkn" {
		t.Errorf("Authorization = %q, want token scheme", gotAuth)
	}
	if rel.Tag != "v0.3.1" || len(rel.Assets) != 1 {
		t.Errorf("release = %q with %d assets", rel.Tag, len(rel.Assets))
	}
}
