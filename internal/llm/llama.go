package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"tablevote/internal/group"
)

type LLaMAClient struct {
	apiKey string
	model  string
	apiURL string
	client *http.Client
}

func NewLLaMAClient() *LLaMAClient {
	return &LLaMAClient{
		apiKey: os.Getenv("LLAMA_API_KEY"),
		model:  os.Getenv("LLAMA_MODEL"),
		apiURL: os.Getenv("LLAMA_API_URL"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *LLaMAClient) Summarize(ctx context.Context, restaurantName string, reviews []group.Review) (string, error) {
	if l.apiURL == "" {
		return "", errors.New("missing LLAMA_API_URL")
	}
	if len(reviews) == 0 {
		return "", errors.New("no reviews to summarize")
	}

	payload := map[string]interface{}{
		"model":       l.model,
		"input":       BuildSummaryPrompt(restaurantName, reviews),
		"temperature": 0.2,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		l.apiURL,
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}

	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}

	// Hosted llama endpoints disagree on the response field name.
	if v, ok := parsed["output_text"].(string); ok && v != "" {
		return strings.TrimSpace(v), nil
	}
	if v, ok := parsed["generated_text"].(string); ok && v != "" {
		return strings.TrimSpace(v), nil
	}
	if gen, ok := parsed["generation"].(map[string]interface{}); ok {
		if txt, ok := gen["text"].(string); ok && txt != "" {
			return strings.TrimSpace(txt), nil
		}
	}

	return "", errors.New("empty llama response")
}
