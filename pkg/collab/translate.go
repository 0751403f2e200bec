package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// translateTimeout bounds a single translation call so a slow endpoint can
// never stall a session's command loop for long.
const translateTimeout = 5 * time.Second

// HTTPTranslator calls an external translation endpoint:
// POST {"text": ..., "target_lang": ...} -> {"translated_text": ...}.
type HTTPTranslator struct {
	url    string
	client *http.Client
}

var _ Translator = (*HTTPTranslator)(nil)

// NewHTTPTranslator creates a translator for the given endpoint URL.
func NewHTTPTranslator(url string) *HTTPTranslator {
	return &HTTPTranslator{
		url:    url,
		client: &http.Client{Timeout: translateTimeout},
	}
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate sends the text to the endpoint and returns the translation.
func (t *HTTPTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	body, err := json.Marshal(translateRequest{Text: text, TargetLang: targetLang})
	if err != nil {
		return "", fmt.Errorf("collab: marshal translate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("collab: build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("collab: translate call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("collab: translate endpoint returned %s", resp.Status)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("collab: decode translate response: %w", err)
	}
	return out.TranslatedText, nil
}

// NopTranslator returns the text unchanged. Used when no endpoint is
// configured.
type NopTranslator struct{}

var _ Translator = NopTranslator{}

func (NopTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}
