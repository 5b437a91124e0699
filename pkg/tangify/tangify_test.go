package tangify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGenerator(t *testing.T, endpoint string, fallback ...string) Generator {
	t.Helper()
	g, err := NewGenerator(Config{
		APIKey:   "test-key",
		Model:    "model-a",
		Fallback: fallback,
		Endpoint: endpoint,
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGenerateReturnsImage(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		gotPrompt = req.Prompt
		fmt.Fprint(w, `{"data": [{"b64_json": "aGVsbG8="}]}`)
	}))
	defer srv.Close()

	res, err := newTestGenerator(t, srv.URL).Generate(context.Background(), Request{Prompt: "a tangerine at a desk"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ImageB64 != "aGVsbG8=" || res.Model != "model-a" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasSuffix(gotPrompt, "a tangerine at a desk") || gotPrompt == "a tangerine at a desk" {
		t.Fatalf("prompt should be prefixed with the house style, got %q", gotPrompt)
	}
}

func TestGenerateFallsBackThroughModels(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		models = append(models, req.Model)
		if req.Model != "model-c" {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error": {"message": "model overloaded"}}`)
			return
		}
		fmt.Fprint(w, `{"data": [{"b64_json": "ok"}]}`)
	}))
	defer srv.Close()

	res, err := newTestGenerator(t, srv.URL, "model-b", "model-c").Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Model != "model-c" {
		t.Fatalf("expected fallback to model-c, got %s", res.Model)
	}
	if strings.Join(models, ",") != "model-a,model-b,model-c" {
		t.Fatalf("models tried in wrong order: %v", models)
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "prompt rejected"}}`)
	}))
	defer srv.Close()

	_, err := newTestGenerator(t, srv.URL).Generate(context.Background(), Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "prompt rejected") {
		t.Fatalf("expected the API error message to surface, got %v", err)
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	if _, err := newTestGenerator(t, "http://unused").Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}
