package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		calls = append(calls, r.URL.Path)

		switch {
		case r.URL.Path == "/createAccount":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":     true,
				"result": map[string]string{"access_token": "test-token"},
			})
		case r.URL.Path == "/createPage" || strings.HasPrefix(r.URL.Path, "/editPage/"):
			if r.FormValue("access_token") != "test-token" {
				json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "ACCESS_TOKEN_INVALID"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"ok": true,
				"result": map[string]string{
					"path": "Pismo-dlya-Andreya-08-31",
					"url":  "https://telegra.ph/Pismo-dlya-Andreya-08-31",
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	return srv, &calls
}

func TestPublish(t *testing.T) {
	srv, calls := newTestServer(t)
	defer srv.Close()

	p := NewTelegraphPublisher(srv.URL, "coparenting")
	if !p.Available() {
		t.Fatal("publisher with short name should be available")
	}

	res, err := p.Publish(context.Background(), "Письмо для Андрея", "Первый абзац.\n\nВторой абзац.")
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if res.URL != "https://telegra.ph/Pismo-dlya-Andreya-08-31" {
		t.Errorf("URL = %q", res.URL)
	}
	if res.EditPath == "" {
		t.Error("EditPath is empty")
	}

	// Token is created once and reused
	if _, err := p.Publish(context.Background(), "Ещё", "Текст"); err != nil {
		t.Fatalf("second Publish() error: %v", err)
	}
	accountCalls := 0
	for _, path := range *calls {
		if path == "/createAccount" {
			accountCalls++
		}
	}
	if accountCalls != 1 {
		t.Errorf("createAccount called %d times, want 1", accountCalls)
	}
}

func TestRetract(t *testing.T) {
	srv, calls := newTestServer(t)
	defer srv.Close()

	p := NewTelegraphPublisher(srv.URL, "coparenting")
	if err := p.Retract(context.Background(), "Pismo-dlya-Andreya-08-31"); err != nil {
		t.Fatalf("Retract() error: %v", err)
	}

	edited := false
	for _, path := range *calls {
		if strings.HasPrefix(path, "/editPage/") {
			edited = true
		}
	}
	if !edited {
		t.Error("Retract did not hit editPage")
	}
}

func TestPublishRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "SHORT_NAME_REQUIRED"})
	}))
	defer srv.Close()

	p := NewTelegraphPublisher(srv.URL, "coparenting")
	if _, err := p.Publish(context.Background(), "t", "c"); err == nil {
		t.Fatal("Publish() expected error")
	}
}

func TestUnconfiguredNotAvailable(t *testing.T) {
	p := NewTelegraphPublisher("", "")
	if p.Available() {
		t.Error("publisher without short name reported available")
	}
}

func TestBuildContent(t *testing.T) {
	nodes := buildContent("Первый.\n\nВторой.\n\n\n\n")
	if len(nodes) != 2 {
		t.Fatalf("buildContent = %d nodes, want 2", len(nodes))
	}
	if nodes[0].Tag != "p" || nodes[0].Children[0] != "Первый." {
		t.Errorf("node[0] = %+v", nodes[0])
	}
}
