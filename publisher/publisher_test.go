package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"autoblog/apperr"
)

func TestPublishCreatesDraft(t *testing.T) {
	var got createPostPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != postsPath {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "abcd efgh" {
			t.Errorf("basic auth = %q %q %v", user, pass, ok)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"link":"https://blog.example.com/creatine-guide/"}`))
	}))
	defer srv.Close()

	p, err := New(Config{URL: srv.URL + "/", Username: "admin", AppPassword: "abcd efgh"}, srv.Client(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := p.Publish(context.Background(), Article{Title: "Creatine", HTML: "<p>hi</p>", MetaDescription: "meta"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if out.PostID != 42 || out.PostURL != "https://blog.example.com/creatine-guide/" {
		t.Fatalf("published = %+v", out)
	}
	if got.Status != "draft" || got.Excerpt != "meta" || got.Meta["_yoast_wpseo_title"] != "Creatine" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestPublishServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"rest_cannot_create"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	p, _ := New(Config{URL: srv.URL, Username: "u", AppPassword: "p", Status: "publish"}, srv.Client(), nil)
	_, err := p.Publish(context.Background(), Article{Title: "t", HTML: "<p>x</p>"})
	if !errors.Is(err, apperr.ErrService) {
		t.Fatalf("err = %v", err)
	}
	if apperr.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("status = %d", apperr.StatusCode(err))
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{URL: "https://x"}, nil, nil)
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}
