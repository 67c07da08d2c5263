package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tablevote/internal/group"
)

func sampleReviews() []group.Review {
	return []group.Review{
		{AuthorName: "a", Rating: 5, Text: "amazing ramen"},
		{AuthorName: "b", Rating: 4, Text: "good broth"},
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := BuildSummaryPrompt("Ichiran", sampleReviews())

	if !strings.Contains(prompt, "Restaurant: Ichiran") {
		t.Errorf("prompt missing restaurant name:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- a (5/5): amazing ramen") {
		t.Errorf("prompt missing review line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- b (4/5): good broth") {
		t.Errorf("prompt missing second review line:\n%s", prompt)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLAMA_API_URL", "")

	s, err := FromEnv()
	if s != nil || err != nil {
		t.Errorf("expected summaries disabled without config, got %T, %v", s, err)
	}

	t.Setenv("GEMINI_API_KEY", "k")
	s, err = FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*GeminiClient); !ok {
		t.Error("expected gemini backend by default")
	}

	t.Setenv("LLAMA_API_URL", "https://llama.example/generate")
	t.Setenv("LLM_PROVIDER", "llama")
	s, err = FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*LLaMAClient); !ok {
		t.Error("expected llama backend")
	}
}

func TestFromEnv_Misconfigured(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLAMA_API_URL", "")

	// Naming a backend without its credentials must error, never
	// silently disable summaries.
	t.Setenv("LLM_PROVIDER", "llama")
	if _, err := FromEnv(); err == nil {
		t.Error("llama without LLAMA_API_URL: expected error")
	}

	t.Setenv("LLM_PROVIDER", "gemini")
	if _, err := FromEnv(); err == nil {
		t.Error("gemini without GEMINI_API_KEY: expected error")
	}

	t.Setenv("LLM_PROVIDER", "bard")
	if _, err := FromEnv(); err == nil {
		t.Error("unknown provider: expected error")
	}
}

func TestGeminiSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash-lite") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": " Cozy ramen spot. "}]}}]}`)
	}))
	defer srv.Close()

	client := &GeminiClient{
		apiKey:  "k",
		model:   "gemini-2.5-flash-lite",
		baseURL: srv.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}

	summary, err := client.Summarize(context.Background(), "Ichiran", sampleReviews())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "Cozy ramen spot." {
		t.Errorf("expected trimmed summary, got %q", summary)
	}
}

func TestGeminiSummarize_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	client := &GeminiClient{
		apiKey:  "k",
		model:   "m",
		baseURL: srv.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}

	if _, err := client.Summarize(context.Background(), "x", sampleReviews()); err == nil {
		t.Error("expected error on empty candidates")
	}
	if _, err := client.Summarize(context.Background(), "x", nil); err == nil {
		t.Error("expected error with no reviews")
	}

	client.apiKey = ""
	if _, err := client.Summarize(context.Background(), "x", sampleReviews()); err == nil {
		t.Error("expected error without api key")
	}
}

func TestLLaMASummarize_ResponseVariants(t *testing.T) {
	bodies := []string{
		`{"output_text": "Variant one."}`,
		`{"generated_text": "Variant two."}`,
		`{"generation": {"text": "Variant three."}}`,
	}
	want := []string{"Variant one.", "Variant two.", "Variant three."}

	for i, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "Bearer k" {
				t.Errorf("unexpected auth header %q", auth)
			}
			fmt.Fprint(w, body)
		}))

		client := &LLaMAClient{
			apiKey: "k",
			model:  "m",
			apiURL: srv.URL,
			client: &http.Client{Timeout: 5 * time.Second},
		}

		summary, err := client.Summarize(context.Background(), "Ichiran", sampleReviews())
		if err != nil {
			t.Errorf("variant %d failed: %v", i, err)
		} else if summary != want[i] {
			t.Errorf("variant %d: expected %q, got %q", i, want[i], summary)
		}
		srv.Close()
	}
}

func TestLLaMASummarize_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	client := &LLaMAClient{
		apiURL: srv.URL,
		client: &http.Client{Timeout: 5 * time.Second},
	}

	if _, err := client.Summarize(context.Background(), "x", sampleReviews()); err == nil {
		t.Error("expected error on unrecognized response body")
	}
}
