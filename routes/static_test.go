package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

const testIndex = "<!doctype html><title>relai</title><div id=app></div>"

func newStaticApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	root := t.TempDir()
	public := filepath.Join(root, "public")
	if err := os.MkdirAll(filepath.Join(public, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"index.html":       testIndex,
		"assets/app.js":    "console.log('relai');",
		"assets/style.css": "body{margin:0}",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(public, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Sibling of the public dir that must never be reachable.
	if err := os.WriteFile(filepath.Join(root, "secret.txt"), []byte("top secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/*", StaticHandler(public))
	return app, public
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestStatic_Fallbacks(t *testing.T) {
	app, _ := newStaticApp(t)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"root serves index", "/", testIndex},
		{"unknown path serves index", "/nonexistent-path", testIndex},
		{"client route serves index", "/chat/42/settings", testIndex},
		{"directory serves index", "/assets", testIndex},
		{"existing file", "/assets/app.js", "console.log('relai');"},
		{"traversal stays inside public", "/../secret.txt", testIndex},
		{"encoded traversal stays inside public", "/..%2fsecret.txt", testIndex},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, app, tc.target)
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if body != tc.want {
				t.Errorf("expected %q, got %q", tc.want, body)
			}
		})
	}
}

func TestStatic_ContentType(t *testing.T) {
	app, _ := newStaticApp(t)

	resp, _ := get(t, app, "/assets/style.css")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("expected text/css, got %q", ct)
	}
	resp, _ = get(t, app, "/")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
}

func TestStatic_MissingIndex(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/*", StaticHandler(filepath.Join(t.TempDir(), "does-not-exist")))

	resp, _ := get(t, app, "/")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}
