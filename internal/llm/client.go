package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tablevote/internal/group"
)

// Summarizer turns a candidate's review snippets into a short
// natural-language blurb for its card.
type Summarizer interface {
	Summarize(ctx context.Context, restaurantName string, reviews []group.Review) (string, error)
}

// FromEnv selects the configured summary backend. A nil Summarizer with
// a nil error means no backend is configured and summaries are disabled.
// Naming a backend via LLM_PROVIDER without its credentials is a
// configuration error, not a silent opt-out.
func FromEnv() (Summarizer, error) {
	switch provider := os.Getenv("LLM_PROVIDER"); provider {
	case "llama":
		if os.Getenv("LLAMA_API_URL") == "" {
			return nil, errors.New("LLM_PROVIDER=llama requires LLAMA_API_URL")
		}
		return NewLLaMAClient(), nil
	case "gemini":
		if os.Getenv("GEMINI_API_KEY") == "" {
			return nil, errors.New("LLM_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return NewGeminiClient(), nil
	case "":
		if os.Getenv("GEMINI_API_KEY") != "" {
			return NewGeminiClient(), nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}
